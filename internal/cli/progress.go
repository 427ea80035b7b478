package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// BatchProgress reports batch estimation progress on a terminal.
type BatchProgress struct {
	bar  *progressbar.ProgressBar
	done int
	mu   sync.Mutex
}

// NewBatchProgress creates a progress bar for total products.
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Estimating products...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &BatchProgress{bar: bar}
}

// Update moves the bar to done. It matches the batch OnProgress callback.
func (p *BatchProgress) Update(done, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if done <= p.done {
		return
	}
	if err := p.bar.Add(done - p.done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.done = done
}

// Done returns the last reported count.
func (p *BatchProgress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
