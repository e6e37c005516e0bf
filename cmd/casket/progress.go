package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// progress redraws a single status line on an interactive terminal.
type progress struct {
	w     io.Writer
	width int
}

// progressFor returns nil when f is not a terminal.
func progressFor(f *os.File) *progress {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	return &progress{w: f, width: width}
}

func (p *progress) FileDone(done, total int, path string, err error) {
	fmt.Fprintf(p.w, "\r\033[K%s", progressLine(done, total, path, err, p.width))
}

func (p *progress) finish() {
	fmt.Fprintln(p.w)
}

// progressLine formats "[done/total] name", cut to fit width columns when
// width is positive.
func progressLine(done, total int, path string, err error, width int) string {
	line := fmt.Sprintf("[%d/%d] %s", done, total, filepath.Base(path))
	if err != nil {
		line += " (failed)"
	}
	if width > 1 {
		if r := []rune(line); len(r) >= width {
			line = string(r[:width-1])
		}
	}
	return line
}
