package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// writeTable prints rows under a header using the rounded style shared
// by the listing commands. rightAligned names header columns whose
// values read better right-aligned, such as IDs, counts, and scores.
func writeTable(w io.Writer, header []string, rows [][]string, rightAligned ...string) {
	if len(header) == 0 {
		return
	}
	right := make(map[string]bool, len(rightAligned))
	for _, name := range rightAligned {
		right[name] = true
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	headerRow := make(table.Row, len(header))
	configs := make([]table.ColumnConfig, 0, len(header))
	for i, name := range header {
		headerRow[i] = name
		align := text.AlignLeft
		if right[name] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(headerRow)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(header))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}
		tw.AppendRow(cells)
	}
	tw.Render()
}

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
)

// reporter writes the sectioned key/value output of the status command,
// coloring lines when the destination is a terminal.
type reporter struct {
	w     io.Writer
	color bool
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w, color: isTerminalWriter(w)}
}

func (r *reporter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	r.println(colorBlue, heading)
	r.println(colorBlue, strings.Repeat("-", len(heading)))
}

func (r *reporter) ok(label, message string)   { r.line(colorGreen, "OK", label, message) }
func (r *reporter) warn(label, message string) { r.line(colorYellow, "WARN", label, message) }
func (r *reporter) fail(label, message string) { r.line(colorRed, "ERROR", label, message) }
func (r *reporter) info(label, message string) { r.line(colorBlue, "INFO", label, message) }

func (r *reporter) check(label string, passed bool, message string) {
	if passed {
		r.ok(label, message)
	} else {
		r.fail(label, message)
	}
}

func (r *reporter) line(color, tag, label, message string) {
	detail := "[" + tag + "]"
	if message != "" {
		detail += " " + message
	}
	r.println(color, fmt.Sprintf("  %-20s %s", label+":", detail))
}

func (r *reporter) plain(line string) {
	fmt.Fprintln(r.w, line)
}

func (r *reporter) blank() {
	fmt.Fprintln(r.w)
}

func (r *reporter) println(color, line string) {
	if r.color && color != "" {
		line = color + line + colorReset
	}
	fmt.Fprintln(r.w, line)
}

func isTerminalWriter(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
