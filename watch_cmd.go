package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/audio"
	"github.com/dgnsrekt/formant/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// watchInterval is the shortest time between two renders of a watched file.
const watchInterval = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-render a file of IPA whenever it changes",
	Long: paragraph(fmt.Sprintf("\nWatch %s and render it again every time it is saved. Handy while tuning a voice file.",
		keyword("FILE"))),
	Example: paragraph("formant watch words.txt\nformant watch words.txt -o take2.wav\nformant watch words.txt --play --voice deep.yml"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		playback, _ := cmd.Flags().GetBool("play")

		path, err := filepath.Abs(utils.ExpandPath(args[0]))
		if err != nil {
			return fmt.Errorf("unable to get absolute path: %w", err)
		}
		if out, err = watchOutput(path, out, playback); err != nil {
			return err
		}

		r, err := newRenderer(cmd.Flags())
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		var p audio.Player
		if playback {
			if p, err = newPlayer(r.rate); err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w := &watcher{path: path, render: func(ctx context.Context) error {
			return renderFile(ctx, r, path, out, p)
		}}
		return w.run(ctx)
	},
}

// watchOutput returns the file watch writes to. Without --output or --play
// it is path with a .wav extension.
func watchOutput(path, out string, playback bool) (string, error) {
	switch {
	case out == "-":
		return "", errors.New("watch cannot write to stdout")
	case out != "" || playback:
		return out, nil
	case utils.IsWAVFile(path):
		return "", errors.New("watch needs --output FILE or --play for a .wav input")
	}
	return utils.ReplaceExt(path, ".wav"), nil
}

// renderFile renders path once, writing to out and playing through p when
// they are set.
func renderFile(ctx context.Context, r *renderer, path, out string, p audio.Player) error {
	b, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to read input: %w", err)
	}
	data, err := r.render(string(b))
	if err != nil {
		return err
	}
	if out != "" {
		if err := writeAudio(out, data, r.rate); err != nil {
			return err
		}
	}
	if p != nil {
		return playAudio(ctx, p, data)
	}
	return nil
}

// watcher calls render once and then after every write to path.
type watcher struct {
	path   string
	render func(context.Context) error
}

func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer fw.Close() //nolint:errcheck

	// editors replace files on save, so watch the directory
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("Watching", "file", w.path)

	limiter := rate.NewLimiter(rate.Every(watchInterval), 1)
	w.once(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)

			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			w.drain(fw.Events)
			w.once(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

// drain drops events that piled up while waiting for the limiter; the next
// render reads the file as it is now.
func (w *watcher) drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (w *watcher) once(ctx context.Context) {
	start := time.Now()
	if err := w.render(ctx); err != nil {
		log.Error("Render failed", "file", w.path, "err", err)
		return
	}
	log.Info("Rendered", "file", filepath.Base(w.path), "took", time.Since(start).Round(time.Millisecond))
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "write WAV to file on every change (default FILE.wav)")
	watchCmd.Flags().BoolP("play", "p", false, "play every render")
}
