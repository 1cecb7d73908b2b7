package mcp

import "errors"

// ErrMissingAskService is returned by NewServer when no ask service is wired.
var ErrMissingAskService = errors.New("mcp: ask service is required")
