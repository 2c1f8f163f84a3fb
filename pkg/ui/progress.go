package ui

import (
	"fmt"
	"io"
	"strings"
)

// Reporter receives the job's progress as a fraction of the time window
// already covered. Fractions are monotone non-decreasing.
type Reporter interface {
	Report(fraction float64)
}

// Noop discards progress updates.
type Noop struct{}

// Report implements Reporter.
func (Noop) Report(float64) {}

const (
	progressBar   = "█"
	progressEmpty = "░"
	progressWidth = 30
)

// Progress renders a single-line terminal progress bar.
type Progress struct {
	out   io.Writer
	label string
	last  float64
}

// NewProgress creates a terminal progress renderer.
func NewProgress(out io.Writer, label string) *Progress {
	return &Progress{out: out, label: label, last: -1}
}

// Report redraws the bar. Regressions and repeats are ignored.
func (p *Progress) Report(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction <= p.last {
		return
	}
	p.last = fraction

	filled := int(fraction * progressWidth)
	bar := strings.Repeat(progressBar, filled) +
		strings.Repeat(progressEmpty, progressWidth-filled)
	fmt.Fprintf(p.out, "\r%s [%s] %5.1f%%", p.label, bar, fraction*100)
}

// Done terminates the progress line.
func (p *Progress) Done() {
	fmt.Fprintln(p.out)
}
