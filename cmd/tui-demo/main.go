// Package main runs the estimate form against an in-memory feedback store seeded with
// sample measurements.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/tui"
)

var samples = []struct {
	key       string
	category  model.Category
	predicted float64
	actual    float64
}{
	{"DEMO-KT-01", model.CategoryKettle, 1.44, 1.62},
	{"DEMO-KT-02", model.CategoryKettle, 1.68, 1.79},
	{"DEMO-RC-01", model.CategoryRiceCooker, 3.2, 3.05},
	{"DEMO-TH-01", model.CategoryThermos, 0.41, 0.47},
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := feedback.NewStore(feedback.NewMemoryBackend(), logger)
	for _, s := range samples {
		if _, err := store.RecordFeedback(ctx, s.key, s.predicted, s.actual, s.category); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error seeding feedback: %v\n", err)
			os.Exit(1)
		}
	}

	err := tui.Run(ctx, tui.Config{
		Pipeline: engine.NewPipeline(nil, nil, engine.WithLogger(logger)),
		Store:    store,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
