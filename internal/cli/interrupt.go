package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a batch on SIGINT or SIGTERM and reports how far it got.
type InterruptHandler struct {
	writer   io.Writer
	progress func() (done, total int)
	once     sync.Once
	mu       sync.Mutex
	fired    bool
}

// NewInterruptHandler reports to writer, or stdout when writer is nil.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts derives a context that is cancelled by the first signal. progress,
// when set, is called once to fill in the interrupt message.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, progress func() (done, total int)) (context.Context, context.CancelFunc) {
	h.progress = progress
	ctx, cancel := context.WithCancel(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt()
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (h *InterruptHandler) interrupt() {
	h.once.Do(func() {
		h.mu.Lock()
		h.fired = true
		h.mu.Unlock()

		msg := "\n\n" + FormatWarning("Batch interrupted!")
		if h.progress != nil {
			done, total := h.progress()
			msg += "\n" + FormatInfo(fmt.Sprintf("Estimated %d of %d products; no output was written.", done, total))
		}
		if _, err := fmt.Fprintln(h.writer, msg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
		}
	})
}

// WasInterrupted reports whether a signal arrived.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}
