// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bridge

import (
	"strconv"
	"strings"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// Device topic suffixes, relative to the configured prefix.
const (
	SuffixTemperature       = "temperature"
	SuffixHumidity          = "humidity"
	SuffixAltitude          = "altitude"
	SuffixGyroscopeTotal    = "gyroscope/total"
	SuffixAccelerationTotal = "acceleration/total"
	SuffixGyroscopeX        = "gyroscope/x"
	SuffixGyroscopeY        = "gyroscope/y"
	SuffixGyroscopeZ        = "gyroscope/z"
	SuffixAccelerationX     = "acceleration/x"
	SuffixAccelerationY     = "acceleration/y"
	SuffixAccelerationZ     = "acceleration/z"
)

// Suffixes lists every device topic suffix the bridge listens to.
var Suffixes = []string{
	SuffixTemperature,
	SuffixHumidity,
	SuffixAltitude,
	SuffixGyroscopeTotal,
	SuffixAccelerationTotal,
	SuffixGyroscopeX,
	SuffixGyroscopeY,
	SuffixGyroscopeZ,
	SuffixAccelerationX,
	SuffixAccelerationY,
	SuffixAccelerationZ,
}

// DeviceTopic joins prefix and suffix.
func DeviceTopic(prefix, suffix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return suffix
	}
	return prefix + "/" + suffix
}

// DeviceTopics returns the full device topics under prefix.
func DeviceTopics(prefix string) []string {
	topics := make([]string, len(Suffixes))
	for i, s := range Suffixes {
		topics[i] = DeviceTopic(prefix, s)
	}
	return topics
}

// suffixOf strips prefix from topic. Leading and trailing slashes are
// ignored on both sides.
func suffixOf(prefix, topic string) (string, bool) {
	topic = strings.Trim(topic, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return topic, true
	}
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	return rest, ok
}

// Payloads renders a reading as device topic payloads, keyed by suffix.
func Payloads(r reading.Reading) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	return map[string]string{
		SuffixTemperature:       f(r.Temperature),
		SuffixHumidity:          f(r.Humidity),
		SuffixAltitude:          f(r.Altitude),
		SuffixGyroscopeTotal:    f(r.GyroscopeTotal),
		SuffixAccelerationTotal: f(r.AccelerationTotal),
		SuffixGyroscopeX:        f(r.Gyroscope.X),
		SuffixGyroscopeY:        f(r.Gyroscope.Y),
		SuffixGyroscopeZ:        f(r.Gyroscope.Z),
		SuffixAccelerationX:     f(r.Acceleration.X),
		SuffixAccelerationY:     f(r.Acceleration.Y),
		SuffixAccelerationZ:     f(r.Acceleration.Z),
	}
}
