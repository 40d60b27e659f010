package models

const (
	ErrTypeNotFound    = "not_found"
	ErrTypeOutOfBounds = "out_of_bounds"
)
