package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/pcm"
	"github.com/dgnsrekt/formant/utils"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Render every line of a file to its own WAV",
	Long: paragraph(fmt.Sprintf("\nRender each non-empty line of %s concurrently. A line is either IPA or %s separated by a tab; lines starting with # are skipped.",
		keyword("FILE"), keyword("name and IPA"))),
	Example: paragraph("formant batch words.txt -o out/\nformant batch words.txt -o out/ -j 2"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("output")
		workers, _ := cmd.Flags().GetInt("jobs")

		f, err := os.Open(utils.ExpandPath(args[0]))
		if err != nil {
			return fmt.Errorf("unable to open file: %w", err)
		}
		defer f.Close() //nolint:errcheck

		jobs, err := parseBatch(f)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return errors.New("batch file has no lines to render")
		}

		r, err := newRenderer(cmd.Flags())
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		written, err := runBatch(cmd.Context(), r, jobs, utils.ExpandPath(dir), workers)
		if err != nil {
			return err
		}
		fmt.Printf("Rendered %d files (%s) to %s\n", len(jobs), humanize.Bytes(uint64(written)), dir) //nolint:gosec
		return nil
	},
}

// batchJob is one line of a batch file.
type batchJob struct {
	line int
	name string
	ipa  string
}

// parseBatch reads jobs from r. Unnamed lines are named after their line
// number.
func parseBatch(r io.Reader) ([]batchJob, error) {
	var jobs []batchJob
	seen := make(map[string]int)

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		job := batchJob{line: n, name: fmt.Sprintf("%04d", n), ipa: line}
		if name, ipa, ok := strings.Cut(line, "\t"); ok {
			job.name = strings.TrimSpace(name)
			job.ipa = strings.TrimSpace(ipa)
		}
		if job.name == "" || strings.ContainsAny(job.name, `/\`) {
			return nil, fmt.Errorf("line %d: invalid name %q", n, job.name)
		}
		if prev, ok := seen[job.name]; ok {
			return nil, fmt.Errorf("line %d: name %q already used on line %d", n, job.name, prev)
		}
		seen[job.name] = n
		jobs = append(jobs, job)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read batch file: %w", err)
	}
	return jobs, nil
}

// runBatch renders jobs into dir with at most workers renders in flight
// and returns the number of bytes written. Every render owns its engine;
// only the table and the cache are shared.
func runBatch(ctx context.Context, r *renderer, jobs []batchJob, dir string, workers int) (int64, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return 0, fmt.Errorf("unable to create output directory: %w", err)
	}

	var written atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.render(job.ipa)
			if err != nil {
				return fmt.Errorf("line %d: %w", job.line, err)
			}
			path := filepath.Join(dir, job.name+".wav")
			if err := pcm.WriteWAV16File(path, pcm.DecodeS16LE(data), r.rate); err != nil {
				return fmt.Errorf("line %d: %w", job.line, err)
			}
			written.Add(int64(wavHeaderSize + len(data)))
			log.Debug("Wrote audio", "path", path, "duration", humanizeDuration(len(data)/2, r.rate))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return written.Load(), err
	}
	return written.Load(), nil
}

func init() {
	batchCmd.Flags().StringP("output", "o", ".", "output directory")
	batchCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "number of concurrent renders")
}
