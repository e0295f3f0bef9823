// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

var ErrUnknownTopic = errors.New("unknown device topic")

// Accumulator keeps the latest value received on each device topic.
type Accumulator struct {
	mu     sync.Mutex
	values map[string]float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{values: make(map[string]float64, len(Suffixes))}
}

// Set records payload as the latest value of suffix.
func (a *Accumulator) Set(suffix string, payload []byte) error {
	if !knownSuffix(suffix) {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, suffix)
	}
	v, err := reading.ParseChannel(string(payload))
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[suffix] = v
	return nil
}

// Current returns the accumulated values as a snapshot block. Channels
// never received stay null. ok is false until some value arrived.
func (a *Accumulator) Current() (cur *reading.Current, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.values) == 0 {
		return nil, false
	}
	get := func(suffix string) any {
		if v, ok := a.values[suffix]; ok {
			return v
		}
		return nil
	}
	return &reading.Current{
		Temperature:   get(SuffixTemperature),
		Humidity:      get(SuffixHumidity),
		Altitude:      get(SuffixAltitude),
		Gyroscope:     get(SuffixGyroscopeTotal),
		Acceleration:  get(SuffixAccelerationTotal),
		GyroscopeX:    get(SuffixGyroscopeX),
		GyroscopeY:    get(SuffixGyroscopeY),
		GyroscopeZ:    get(SuffixGyroscopeZ),
		AccelerationX: get(SuffixAccelerationX),
		AccelerationY: get(SuffixAccelerationY),
		AccelerationZ: get(SuffixAccelerationZ),
	}, true
}

func knownSuffix(s string) bool {
	for _, k := range Suffixes {
		if k == s {
			return true
		}
	}
	return false
}
