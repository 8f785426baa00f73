package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# output sample rate: 44100 or 48000
sample_rate: 44100
# phoneme table (YAML); empty uses the built-in table
table: ""

voice:
  # voice file (YAML) with parameters and per-phoneme overrides
  file: ""
  # base pitch in Hz
  pitch: 120
  # speaking rate multiplier
  speed: 1.0
  # pitch fall over the utterance (0-1)
  declination: 0.0
  # formant scale, below 1 sounds larger
  throat: 1.0
  # glottal open phase ratio (0-1)
  mouth: 0.5
  # second formant scale
  tongue: 1.0
  breathiness: 0.0
  flutter: 0.0
  vibrato_depth: 0.0
  vibrato_rate: 6.0
  # spectral tilt (0-100)
  tilt: 0.0
  # robotic waveform mix (0-1)
  robotic: 0.0

cache:
  enabled: true
  # empty uses the user cache directory
  dir: ""
  # disk cache size in MB
  max_size: 512
  # zstd level, 0 disables compression
  compression_level: 3

serve:
  url: "nats://127.0.0.1:4222"
  subject: "formant.synthesize"
  # samples per streamed chunk
  block_size: 4096
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the formant config file",
	Long:    paragraph(fmt.Sprintf("\n%s the formant config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("formant config\nformant config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}
		if only, _ := cmd.Flags().GetBool("path"); only {
			fmt.Println(configFile)
			return nil
		}

		c, err := editor.Cmd("formant", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

func init() {
	configCmd.Flags().Bool("path", false, "print the config file path instead of editing it")
}
