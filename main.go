// Package main provides the entry point for the formant CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/service"
	"github.com/dgnsrekt/formant/pkg/klatt"
	"github.com/dgnsrekt/formant/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	output     string
	inputFile  string
	play       bool
	showFrames bool

	rootCmd = &cobra.Command{
		Use:   "formant [IPA...]",
		Short: "Speak IPA on the CLI, with formants!",
		Long: paragraph(
			fmt.Sprintf("\nTurn phonetic transcriptions into speech with a %s.", keyword("formant synthesizer")),
		),
		Example:          paragraph("formant -o hello.wav 'həˈloʊ'\necho 'wɜːld' | formant --play\nformant --frames 'ˈdɑg'"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		path := utils.ExpandPath(configFile)
		if _, err := os.Stat(path); err == nil {
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("unable to read config file: %w", err)
			}
		}
	}
	if no, _ := cmd.Flags().GetBool("no-cache"); no {
		viper.Set("cache.enabled", false)
	}

	switch rate := viper.GetInt("sample_rate"); rate {
	case 44100, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d: use 44100 or 48000", rate)
	}

	if path := viper.GetString("table"); path != "" {
		if _, err := os.Stat(utils.ExpandPath(path)); err != nil {
			return fmt.Errorf("phoneme table: %w", err)
		}
	}
	if path := viper.GetString("voice.file"); path != "" {
		if _, err := os.Stat(utils.ExpandPath(path)); err != nil {
			return fmt.Errorf("voice file: %w", err)
		}
	}
	if level := viper.GetInt("cache.compression_level"); level < 0 || level > 22 {
		return fmt.Errorf("cache compression level must be in [0, 22], got %d", level)
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readInput returns the text to speak: the --file contents, the arguments
// or piped stdin, in that order.
func readInput(args []string) (string, error) {
	switch {
	case inputFile == "-":
		return readAll(os.Stdin)
	case inputFile != "":
		b, err := os.ReadFile(utils.ExpandPath(inputFile))
		if err != nil {
			return "", fmt.Errorf("unable to read input: %w", err)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		return readAll(os.Stdin)
	}
	return "", errors.New("nothing to say: pass IPA as arguments, with --file or on stdin")
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), nil
}

func execute(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	r, err := newRenderer(cmd.Flags())
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck

	if showFrames {
		// keep stdout clean for audio
		w := io.Writer(os.Stdout)
		if output == "-" {
			w = os.Stderr
		}
		if err := printFrames(w, r.sequence(text), r.voice.Speed, r.rate); err != nil {
			return err
		}
		if output == "" && !play {
			return nil
		}
	}

	data, err := r.render(text)
	if err != nil {
		return err
	}

	dest := output
	if dest == "" && !play {
		if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
			return errors.New("no output: use --output FILE, --output - or --play")
		}
		dest = "-"
	}
	if dest != "" {
		if err := writeAudio(dest, data, r.rate); err != nil {
			return err
		}
	}

	if play {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		p, err := newPlayer(r.rate)
		if err != nil {
			return err
		}
		defer p.Close() //nolint:errcheck
		return playAudio(ctx, p, data)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	setColorProfile()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().Int("sample-rate", klatt.SampleRate, "output sample rate (44100 or 48000)")
	rootCmd.PersistentFlags().String("table", "", "phoneme table file (YAML), replaces the built-in table")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the audio cache")
	addVoiceFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().StringVarP(&output, "output", "o", "", "write WAV to file (- for stdout)")
	rootCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read IPA from file (- for stdin)")
	rootCmd.Flags().BoolVarP(&play, "play", "p", false, "play through the speakers")
	rootCmd.Flags().BoolVar(&showFrames, "frames", false, "print the frame timeline")

	// Config bindings
	_ = viper.BindPFlag("sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate"))
	_ = viper.BindPFlag("table", rootCmd.PersistentFlags().Lookup("table"))

	viper.SetDefault("sample_rate", klatt.SampleRate)
	viper.SetDefault("table", "")
	viper.SetDefault("voice.file", "")

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", 512)
	viper.SetDefault("cache.compression_level", 3)

	// Serve defaults
	viper.SetDefault("serve.url", nats.DefaultURL)
	viper.SetDefault("serve.subject", service.SubjectSynthesize)
	viper.SetDefault("serve.block_size", service.DefaultConfig().BlockSize)

	rootCmd.AddCommand(configCmd, manCmd, phonemesCmd, voiceCmd, watchCmd, batchCmd, serveCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "formant")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "formant")}, dirs...)
	}

	if c := os.Getenv("FORMANT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("formant")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("formant")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "formant.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
