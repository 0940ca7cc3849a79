package contact

import "errors"

var (
	// ErrMissingColumns is returned when the sheet lacks a required column
	ErrMissingColumns = errors.New("required columns missing")

	// ErrEmptySheet is returned when the sheet has no header row
	ErrEmptySheet = errors.New("sheet has no header row")
)
