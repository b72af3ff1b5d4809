package ui

import "github.com/bamsammich/dirchanges/internal/event"

// quietPresenter consumes events but produces no output. Warnings still
// reach the user through the logger.
type quietPresenter struct{}

func (quietPresenter) Handle(event.Event) {}
