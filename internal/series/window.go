// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package series keeps the bounded label/value buffers behind the charts.
package series

import (
	"errors"
	"fmt"
)

const (
	// LivePoints is the capacity of a chart fed by live updates.
	LivePoints = 15
	// SeedPoints is how many history records seed a chart.
	SeedPoints = 10
)

var ErrLengthMismatch = errors.New("labels and values differ in length")

// Meta is display metadata carried with a window. The core never reads it.
type Meta struct {
	Label string `json:"label"`
	Unit  string `json:"unit"`
	Color string `json:"color"`
}

// ChartSeries is a copy of a window's contents, oldest first.
type ChartSeries struct {
	Meta   Meta      `json:"meta"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Window is a strict FIFO of (label, value) pairs with a fixed capacity.
// It is not safe for concurrent use; the owner serialises access.
type Window struct {
	meta      Meta
	maxPoints int
	labels    []string
	values    []float64
}

// NewWindow creates an empty window. maxPoints below 1 is treated as 1.
func NewWindow(meta Meta, maxPoints int) *Window {
	if maxPoints < 1 {
		maxPoints = 1
	}
	return &Window{
		meta:      meta,
		maxPoints: maxPoints,
		labels:    make([]string, 0, maxPoints),
		values:    make([]float64, 0, maxPoints),
	}
}

// Push appends a point, dropping the oldest one when the window is full.
func (w *Window) Push(label string, value float64) {
	if len(w.labels) >= w.maxPoints {
		n := len(w.labels) - w.maxPoints + 1
		w.labels = append(w.labels[:0], w.labels[n:]...)
		w.values = append(w.values[:0], w.values[n:]...)
	}
	w.labels = append(w.labels, label)
	w.values = append(w.values, value)
}

// Seed replaces the contents with history delivered newest first. The
// window ends up ordered oldest to newest; when more points are supplied
// than fit, the newest are kept.
func (w *Window) Seed(labels []string, values []float64) error {
	if len(labels) != len(values) {
		return fmt.Errorf("seeding %q: %w (%d labels, %d values)", w.meta.Label, ErrLengthMismatch, len(labels), len(values))
	}
	n := min(len(labels), w.maxPoints)

	w.labels = w.labels[:0]
	w.values = w.values[:0]
	for i := n - 1; i >= 0; i-- {
		w.labels = append(w.labels, labels[i])
		w.values = append(w.values, values[i])
	}
	return nil
}

// Clear empties the window and keeps its metadata.
func (w *Window) Clear() {
	w.labels = w.labels[:0]
	w.values = w.values[:0]
}

// Len returns the number of points held.
func (w *Window) Len() int { return len(w.labels) }

// Cap returns the window capacity.
func (w *Window) Cap() int { return w.maxPoints }

// Meta returns the display metadata.
func (w *Window) Meta() Meta { return w.meta }

// Series returns a copy of the contents.
func (w *Window) Series() ChartSeries {
	return ChartSeries{
		Meta:   w.meta,
		Labels: append([]string{}, w.labels...),
		Values: append([]float64{}, w.values...),
	}
}
