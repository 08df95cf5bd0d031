package search

import "errors"

// ErrProviderUnavailable is returned when every destination query failed or
// timed out. Partial failures degrade gracefully and never surface as
// errors; zero matching offers is a valid empty result, not an error.
var ErrProviderUnavailable = errors.New("all providers unavailable")

// ErrEngineClosed is returned by engine operations after Close.
var ErrEngineClosed = errors.New("search engine closed")
