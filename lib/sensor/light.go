// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// consumer is the label that shows up in gpioinfo while a line is held.
const consumer = "boushitsu"

// Config holds the GPIO wiring of the light sensor.
type Config struct {
	// Chip is the GPIO character device name. Defaults to "gpiochip0",
	// the Raspberry Pi header.
	Chip string

	// DriveLine is the BCM offset of the line powering the
	// phototransistor.
	DriveLine int

	// SenseLine is the BCM offset of the line reading it. Requested
	// with an internal pull-down so an open circuit reads low (dark).
	SenseLine int
}

// Light reads the room's light sensor. It implements the presence
// oracle's Sensor interface.
type Light struct {
	chip      string
	driveLine int
	senseLine int
}

// NewLight creates a light sensor adapter. No hardware is touched
// until the first Sample call.
func NewLight(cfg Config) *Light {
	chip := cfg.Chip
	if chip == "" {
		chip = "gpiochip0"
	}
	return &Light{
		chip:      chip,
		driveLine: cfg.DriveLine,
		senseLine: cfg.SenseLine,
	}
}

// Sample powers the sensor, reads it once, and releases both lines.
// Returns true when the sense line reads high (room lit).
func (l *Light) Sample(ctx context.Context) (bool, error) {
	drive, err := gpiocdev.RequestLine(l.chip, l.driveLine,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsOutput(1),
	)
	if err != nil {
		return false, fmt.Errorf("sensor: requesting drive line %d: %w", l.driveLine, err)
	}
	defer drive.Close()

	sense, err := gpiocdev.RequestLine(l.chip, l.senseLine,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
	)
	if err != nil {
		return false, fmt.Errorf("sensor: requesting sense line %d: %w", l.senseLine, err)
	}
	defer sense.Close()

	value, err := sense.Value()
	if err != nil {
		return false, fmt.Errorf("sensor: reading sense line %d: %w", l.senseLine, err)
	}
	return value != 0, nil
}
