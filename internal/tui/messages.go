package tui

import (
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/model"
)

type estimatedMsg struct {
	err error
	out engine.Output
}

type feedbackSavedMsg struct {
	err   error
	entry model.FeedbackEntry
}
