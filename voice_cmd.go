package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Print the effective voice as YAML",
	Long: paragraph(fmt.Sprintf("\nPrint the voice that results from the config file, the voice file and the flags. The output is a valid %s.",
		keyword("voice file"))),
	Example: paragraph("formant voice --pitch 90 --throat 0.9 > deep.yml\nformant -o out.wav --voice deep.yml 'ˈhɛloʊ'"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		voice, err := loadVoice(cmd.Flags())
		if err != nil {
			return err
		}
		out, err := encodeVoice(voice)
		if err != nil {
			return err
		}

		if cp, _ := cmd.Flags().GetBool("copy"); cp {
			termenv.Copy(string(out))
			// Copy using native system clipboard
			if err := clipboard.WriteAll(string(out)); err != nil {
				log.Debug("Native clipboard unavailable", "err", err)
			}
			fmt.Fprintln(os.Stderr, "Copied voice to clipboard")
		}

		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	voiceCmd.Flags().BoolP("copy", "c", false, "also copy the voice to the clipboard")
}
