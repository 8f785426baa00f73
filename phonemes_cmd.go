package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dgnsrekt/formant/internal/phoneme"
	"github.com/dgnsrekt/formant/pkg/klatt"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var phonemesCmd = &cobra.Command{
	Use:     "phonemes [QUERY]",
	Aliases: []string{"ls"},
	Short:   "List the phonemes of the table",
	Long: paragraph(fmt.Sprintf("\nList the phonemes formant knows. With a %s, symbols and classes are fuzzy matched, e.g. %s or %s.",
		keyword("query"), keyword("nasal"), keyword("fric"))),
	Example: paragraph("formant phonemes\nformant phonemes vowel\nformant phonemes --grid"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		entries := tableEntries(t)
		width := terminalWidth()

		if len(args) == 1 {
			matches := searchPhonemes(entries, args[0])
			if len(matches) == 0 {
				return fmt.Errorf("no phonemes match %q", args[0])
			}
			return printMatches(os.Stdout, entries, matches, width)
		}
		if grid, _ := cmd.Flags().GetBool("grid"); grid {
			return printGrid(os.Stdout, entries, width)
		}
		return printPhonemeTable(os.Stdout, entries)
	},
}

// phonemeEntry is one row of the listing.
type phonemeEntry struct {
	symbol string
	class  string
	frame  klatt.Frame
}

// label is the symbol as shown to the user.
func (e phonemeEntry) label() string {
	if e.symbol == klatt.Space {
		return "space"
	}
	return e.symbol
}

// phonemeEntries is the fuzzy.Source of a listing.
type phonemeEntries []phonemeEntry

func (p phonemeEntries) String(i int) string { return p[i].label() + " " + p[i].class }
func (p phonemeEntries) Len() int            { return len(p) }

func tableEntries(t *phoneme.Table) phonemeEntries {
	symbols := t.Symbols()
	entries := make(phonemeEntries, 0, len(symbols))
	for _, s := range symbols {
		f, _ := t.Lookup(s)
		entries = append(entries, phonemeEntry{symbol: s, class: phonemeClass(f), frame: f})
	}
	return entries
}

func phonemeClass(f klatt.Frame) string {
	switch {
	case f.Silence:
		return "silence"
	case f.IsStop && f.IsVoiced:
		return "voiced stop"
	case f.IsStop:
		return "stop"
	case f.IsNasal && f.IsVowel:
		return "nasal vowel"
	case f.IsNasal:
		return "nasal"
	case f.IsVowel:
		return "vowel"
	case f.FricationAmp > 0 && f.IsVoiced:
		return "voiced fricative"
	case f.FricationAmp > 0:
		return "fricative"
	case f.AspirationAmp > 0 && f.VoiceAmp == 0:
		return "aspirate"
	default:
		return "approximant"
	}
}

func searchPhonemes(entries phonemeEntries, query string) fuzzy.Matches {
	return fuzzy.FindFrom(query, entries)
}

func printMatches(w io.Writer, entries phonemeEntries, matches fuzzy.Matches, width int) error {
	for _, m := range matches {
		line := highlight(m.Str, m.MatchedIndexes) + dimStyle.Render(fmt.Sprintf("  %.0f ms", entries[m.Index].frame.Duration))
		if _, err := fmt.Fprintln(w, truncate.StringWithTail(line, uint(width), "…")); err != nil { //nolint:gosec
			return err
		}
	}
	return nil
}

// highlight renders the matched byte offsets of s with the keyword style.
func highlight(s string, matched []int) string {
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(keyword(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// printGrid lays the symbols out in columns. Widths are measured in cells
// since IPA symbols may carry combining marks.
func printGrid(w io.Writer, entries phonemeEntries, width int) error {
	cell := 0
	for _, e := range entries {
		cell = max(cell, runewidth.StringWidth(e.label()))
	}
	cell += 2
	cols := max(1, width/cell)

	var b strings.Builder
	for i, e := range entries {
		b.WriteString(symbolStyle.Render(runewidth.FillRight(e.label(), cell)))
		if (i+1)%cols == 0 || i == len(entries)-1 {
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func printPhonemeTable(w io.Writer, entries phonemeEntries) error {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("SYMBOL", "CLASS", "MS", "AV", "AF", "F1", "F2", "F3").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return symbolStyle.Padding(0, 1)
			default:
				return cell
			}
		})
	for _, e := range entries {
		f := e.frame
		t.Row(e.label(), e.class, num(f.Duration), num(f.VoiceAmp), num(f.FricationAmp),
			num(f.Cascade[0].Freq), num(f.Cascade[1].Freq), num(f.Cascade[2].Freq))
	}
	_, err := fmt.Fprintf(w, "%s\n%d phonemes\n", t.Render(), len(entries))
	return err
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func init() {
	phonemesCmd.Flags().Bool("grid", false, "print symbols only, in columns")
}
