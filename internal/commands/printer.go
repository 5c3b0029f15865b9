package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// printer writes human-readable output, colored only when the writer is a
// terminal.
type printer struct {
	out   io.Writer
	ok    *color.Color
	warn  *color.Color
	bad   *color.Color
	faint *color.Color
	bold  *color.Color
}

func newPrinter(w io.Writer) *printer {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &printer{
		out:   w,
		ok:    mk(color.FgGreen),
		warn:  mk(color.FgYellow),
		bad:   mk(color.FgRed, color.Bold),
		faint: mk(color.Faint),
		bold:  mk(color.Bold),
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) success(format string, args ...any) {
	p.ok.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) warning(format string, args ...any) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) failure(format string, args ...any) {
	p.bad.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) heading(format string, args ...any) {
	p.bold.Fprintf(p.out, format+"\n", args...)
}

// table returns a tabwriter over the printer's output. Callers must Flush.
func (p *printer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
}
