// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package reading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissing    = errors.New("value missing")
	ErrNotNumeric = errors.New("value not numeric")
)

// ValidationError reports a channel value that could not be used.
type ValidationError struct {
	Raw any
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid channel value %v: %v", e.Raw, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseChannel converts a raw decoded JSON value into a finite float.
func ParseChannel(raw any) (float64, error) {
	var (
		v   float64
		err error
	)
	switch x := raw.(type) {
	case nil:
		return 0, &ValidationError{Raw: raw, Err: ErrMissing}
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		v, err = x.Float64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, &ValidationError{Raw: raw, Err: ErrMissing}
		}
		v, err = strconv.ParseFloat(s, 64)
	default:
		return 0, &ValidationError{Raw: raw, Err: ErrNotNumeric}
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Raw: raw, Err: ErrNotNumeric}
	}
	return v, nil
}

// ValueOr returns the parsed value, or fallback when it does not parse.
func ValueOr(raw any, fallback float64) float64 {
	v, err := ParseChannel(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Round rounds v to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // no -0 in JSON output
	}
	return r
}

// Format renders v with a fixed number of decimals.
func Format(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', places, 64)
}
