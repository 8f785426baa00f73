package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the audio cache",
	Long: paragraph(fmt.Sprintf("\nRendered audio is cached on disk, keyed by the phonemes, the %s, the sample rate and the table.",
		keyword("voice"))),
	Args: cobra.NoArgs,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the cache location and size",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		dir, err := cacheDir()
		if err != nil {
			return err
		}
		m, err := openCache()
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		s := m.Stats().L2
		fmt.Printf("%s %s\n", keyword("Directory:"), dir)
		fmt.Printf("%s %d\n", keyword("Entries:  "), s.ItemCount)
		fmt.Printf("%s %s of %s\n", keyword("Size:     "),
			humanize.IBytes(uint64(s.Size)), humanize.IBytes(uint64(s.Capacity))) //nolint:gosec
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached render",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		m, err := openCache()
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		if err := m.Clear(); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Remove cached renders not used for a duration",
	Example: paragraph("formant cache prune --older-than 168h"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		m, err := openCache()
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		cutoff := time.Now().Add(-age)
		n := m.Prune(cutoff)
		fmt.Printf("Removed %d entries not used since %s\n", n, humanize.Time(cutoff))
		return nil
	},
}

func init() {
	cachePruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "remove entries not used for this long")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
}
