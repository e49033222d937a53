// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pfpacket/boushitsu/lib/clock"
)

// Sensor produces one raw occupancy reading. Implementations wrap the
// physical light sensor; tests use scripted fakes.
type Sensor interface {
	// Sample reports whether the room currently reads as lit. A
	// returned error is treated by the Oracle as a false sample.
	Sample(ctx context.Context) (bool, error)
}

// Default sampling policy: nine samples, 500 ms apart, strict
// majority. Matches the deployed debounce window of ~4.5 seconds.
const (
	defaultSamples       = 9
	defaultInterval      = 500 * time.Millisecond
	defaultSampleTimeout = 2 * time.Second
)

// Config holds the parameters for creating an Oracle. Sensor is
// required; everything else has deployed defaults.
type Config struct {
	// Sensor is the occupancy sensor to sample. Required.
	Sensor Sensor

	// Samples is the window size. Defaults to 9. Use an odd count so
	// a strict majority always exists.
	Samples int

	// Interval is the delay before each sample. Defaults to 500 ms.
	Interval time.Duration

	// SampleTimeout bounds one sensor read. A read that hangs past
	// it counts as false (fail closed). Defaults to 2 s.
	SampleTimeout time.Duration

	// Clock provides sleeps and timeouts. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives the sample window at debug level. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// Oracle reduces noisy sensor samples to a single room-open boolean.
type Oracle struct {
	sensor        Sensor
	samples       int
	interval      time.Duration
	sampleTimeout time.Duration
	clock         clock.Clock
	logger        *slog.Logger
}

// New creates an Oracle from the configuration.
func New(cfg Config) (*Oracle, error) {
	if cfg.Sensor == nil {
		return nil, fmt.Errorf("presence: Sensor is required")
	}

	oracle := &Oracle{
		sensor:        cfg.Sensor,
		samples:       cfg.Samples,
		interval:      cfg.Interval,
		sampleTimeout: cfg.SampleTimeout,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
	}
	if oracle.samples <= 0 {
		oracle.samples = defaultSamples
	}
	if oracle.interval <= 0 {
		oracle.interval = defaultInterval
	}
	if oracle.sampleTimeout <= 0 {
		oracle.sampleTimeout = defaultSampleTimeout
	}
	if oracle.clock == nil {
		oracle.clock = clock.Real()
	}
	if oracle.logger == nil {
		oracle.logger = slog.Default()
	}
	return oracle, nil
}

// IsOpen samples the sensor across the full window and reports
// whether a strict majority read true. The call blocks for the whole
// window; the dispatch loop stalls behind it by design, preserving
// the one-command-at-a-time ordering guarantee.
//
// There is no error path. Anything that prevents a confident reading
// contributes a false sample, so an unreadable room reports closed.
func (o *Oracle) IsOpen(ctx context.Context) bool {
	window := make([]bool, 0, o.samples)
	trueCount := 0

	for i := 0; i < o.samples; i++ {
		o.clock.Sleep(o.interval)
		lit := o.sampleOnce(ctx)
		window = append(window, lit)
		if lit {
			trueCount++
		}
	}

	open := trueCount > o.samples/2
	o.logger.Debug("sensor window sampled",
		"window", window,
		"true_count", trueCount,
		"open", open,
	)
	return open
}

// sampleOnce performs one bounded sensor read. Timeouts, errors, and
// cancellation all read as false.
func (o *Oracle) sampleOnce(ctx context.Context) bool {
	type reading struct {
		lit bool
		err error
	}

	// Buffered so a read that completes after the timeout does not
	// leak its goroutine.
	results := make(chan reading, 1)
	go func() {
		lit, err := o.sensor.Sample(ctx)
		results <- reading{lit: lit, err: err}
	}()

	select {
	case result := <-results:
		if result.err != nil {
			o.logger.Warn("sensor read failed, counting as closed", "error", result.err)
			return false
		}
		return result.lit
	case <-o.clock.After(o.sampleTimeout):
		o.logger.Warn("sensor read timed out, counting as closed", "timeout", o.sampleTimeout)
		return false
	case <-ctx.Done():
		return false
	}
}
