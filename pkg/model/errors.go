package model

import "errors"

var (
	errShortExpiresAt   = errors.New("model: truncated expiresAt attribute")
	errUnknownAttribute = errors.New("model: unknown metadata attribute code")
)
