package feed

import "errors"

var (
	ErrMissingColumn    = errors.New("missing required column")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrEmptyFeed        = errors.New("empty feed")
)
