package services

import "errors"

// Data service errors
var (
	ErrTablesNotLoaded = errors.New("fused tables not loaded")

	// Request errors
	ErrUnknownColumn = errors.New("unknown map column")
	ErrUnknownTerm   = errors.New("unknown search term")
	ErrUnknownParty  = errors.New("unknown party")
)
