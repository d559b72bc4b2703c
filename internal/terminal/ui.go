package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Colors for terminal output.
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Logger is the side channel every post-build step reports through.
// Outcomes are never returned to the host build; they are only logged.
type Logger interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Printer writes glyph-prefixed lines to w. Colors are only emitted
// when w is a terminal.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{w: w, color: color}
}

// Writer returns the underlying writer, used to pass subprocess output through.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) paint(codes ...string) string {
	if !p.color {
		return ""
	}
	return strings.Join(codes, "")
}

func (p *Printer) line(glyph, color, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s%s%s %s\n", p.paint(Bold, color), glyph, p.paint(Reset), msg)
}

// Success prints a green success message.
func (p *Printer) Success(msg string) { p.line("✓", Green, msg) }

// Error prints a red error message.
func (p *Printer) Error(msg string) { p.line("✗", Red, msg) }

// Info prints a blue info message.
func (p *Printer) Info(msg string) { p.line("i", Blue, msg) }

// Warning prints a yellow warning message.
func (p *Printer) Warning(msg string) { p.line("!", Yellow, msg) }

// Header prints a bold header.
func (p *Printer) Header(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n%s%s%s\n", p.paint(Bold), msg, p.paint(Reset))
}

// Detail prints an indented detail line.
func (p *Printer) Detail(label, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s%s:%s %s\n", p.paint(Dim), label, p.paint(Reset), value)
}

// Divider prints a horizontal line.
func (p *Printer) Divider() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s%s%s\n", p.paint(Dim), strings.Repeat("─", 60), p.paint(Reset))
}

// UI helper functions writing to stdout.

var std = NewPrinter(os.Stdout)

// Stdout returns the shared stdout printer.
func Stdout() *Printer { return std }

// Success prints a green success message.
func Success(msg string) { std.Success(msg) }

// Error prints a red error message.
func Error(msg string) { std.Error(msg) }

// Info prints a blue info message.
func Info(msg string) { std.Info(msg) }

// Warning prints a yellow warning message.
func Warning(msg string) { std.Warning(msg) }

// Header prints a bold header.
func Header(msg string) { std.Header(msg) }

// Detail prints an indented detail line.
func Detail(label, value string) { std.Detail(label, value) }

// Divider prints a horizontal line.
func Divider() { std.Divider() }
