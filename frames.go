package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dgnsrekt/formant/pkg/klatt"
)

// printFrames writes the expanded frame timeline of seq.
func printFrames(w io.Writer, seq klatt.Sequence, speed float64, rate int) error {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("#", "SYMBOL", "KIND", "MS", "AV", "AH", "AF", "F1", "F2", "F3").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 1:
				return symbolStyle.Padding(0, 1)
			default:
				return cell
			}
		})

	for i, f := range seq {
		t.Row(
			strconv.Itoa(i),
			f.Symbol,
			f.Kind.String(),
			num(f.Duration/speed),
			num(f.VoiceAmp),
			num(f.AspirationAmp),
			num(f.FricationAmp),
			num(f.Cascade[0].Freq),
			num(f.Cascade[1].Freq),
			num(f.Cascade[2].Freq),
		)
	}

	_, err := fmt.Fprintf(w, "%s\n%d frames, %s\n",
		t.Render(), len(seq), humanizeDuration(seq.Samples(speed, float64(rate)), rate))
	return err
}

// num formats v with at most one decimal.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
