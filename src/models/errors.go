package models

import "errors"

// Failure classes of a pipeline run. Stage errors wrap one of these, so callers
// use errors.Is to tell them apart.
var (
	ErrNetwork = errors.New("network error")
	ErrParse   = errors.New("parse error")
	ErrConfig  = errors.New("configuration error")
	ErrStorage = errors.New("storage error")
)
