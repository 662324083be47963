// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLanguage matches every *UnsupportedLanguageError via errors.Is.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Direction tells which code map a language was looked up in.
type Direction string

// Lookup directions
const (
	DirectionSource Direction = "source"
	DirectionTarget Direction = "target"
)

// UnsupportedLanguageError is returned when a language code has no mapping
// in the upstream API's code space. It is never worth retrying.
type UnsupportedLanguageError struct {
	Code      string
	Direction Direction
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported %s language %q", e.Direction, e.Code)
}

// Is reports whether target is ErrUnsupportedLanguage.
func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// GatewayError is returned when the upstream API answers with a non-success
// status, returns a malformed body, or cannot be reached at all.
type GatewayError struct {
	StatusCode int    // 0 for network failures
	Body       string // truncated upstream response body
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("translation gateway: status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode > 0:
		if e.Body == "" {
			return fmt.Sprintf("translation gateway: status %d", e.StatusCode)
		}
		return fmt.Sprintf("translation gateway: status %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return "translation gateway: " + e.Err.Error()
	default:
		return "translation gateway: unknown error"
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
