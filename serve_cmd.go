package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer synthesis requests over NATS",
	Long: paragraph(fmt.Sprintf("\nSubscribe to %s and stream rendered PCM back in chunks. Requests are JSON with %s or %s and an optional voice.",
		keyword(service.SubjectSynthesize), keyword("ipa"), keyword("symbols"))),
	Example: paragraph("formant serve\nformant serve --url nats://10.0.0.5:4222 --block-size 2048"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := loadTable()
		if err != nil {
			return err
		}
		voice, err := loadVoice(cmd.Flags())
		if err != nil {
			return err
		}

		cfg := service.DefaultConfig()
		cfg.Subject = viper.GetString("serve.subject")
		cfg.SampleRate = viper.GetInt("sample_rate")
		cfg.BlockSize = viper.GetInt("serve.block_size")
		cfg.Voice = voice

		logger := log.Default()
		conn, err := service.Connect(viper.GetString("serve.url"), logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// renders in flight finish after the signal
		svc := service.New(context.WithoutCancel(cmd.Context()), cfg, conn, table, logger)
		if err := svc.Start(conn); err != nil {
			return err
		}

		<-ctx.Done()
		log.Info("Shutting down")
		svc.Close()
		return nil
	},
}

func init() {
	serveCmd.Flags().String("url", "", "NATS server URL")
	serveCmd.Flags().String("subject", "", "request subject")
	serveCmd.Flags().Int("block-size", 0, "samples per streamed chunk")

	_ = viper.BindPFlag("serve.url", serveCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("serve.subject", serveCmd.Flags().Lookup("subject"))
	_ = viper.BindPFlag("serve.block_size", serveCmd.Flags().Lookup("block-size"))
}
