// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package watchdog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Reason:    ReasonUpdate,
		Initiator: "club_admin",
		Timestamp: time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Component != state.Component {
		t.Errorf("Component = %q, want %q", got.Component, state.Component)
	}
	if got.Reason != state.Reason {
		t.Errorf("Reason = %q, want %q", got.Reason, state.Reason)
	}
	if got.Initiator != state.Initiator {
		t.Errorf("Initiator = %q, want %q", got.Initiator, state.Initiator)
	}
	if !got.Timestamp.Equal(state.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, state.Timestamp)
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")

	first := State{
		Component: "boushitsud",
		Reason:    ReasonRestart,
		Initiator: "alice",
		Timestamp: time.Now(),
	}
	if err := Write(path, first); err != nil {
		t.Fatalf("Write first: %v", err)
	}

	second := State{
		Component: "boushitsud",
		Reason:    ReasonUpdate,
		Initiator: "bob",
		Timestamp: time.Now().Add(time.Minute),
	}
	if err := Write(path, second); err != nil {
		t.Fatalf("Write second: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Reason != ReasonUpdate {
		t.Errorf("Reason = %q, want %q (second write should overwrite)", got.Reason, ReasonUpdate)
	}
	if got.Initiator != "bob" {
		t.Errorf("Initiator = %q, want %q", got.Initiator, "bob")
	}
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now(),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	// Mask out file type bits, check only permission bits.
	permissions := info.Mode().Perm()
	if permissions != 0600 {
		t.Errorf("permissions = %04o, want 0600", permissions)
	}
}

func TestWriteNoTemporaryFileLeftBehind(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now(),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	temporaryPath := path + ".tmp"
	if _, err := os.Stat(temporaryPath); !os.IsNotExist(err) {
		t.Errorf("temporary file %s still exists after successful Write", temporaryPath)
	}
}

func TestWriteParentDirectoryMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "subdir", "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now(),
	}

	err := Write(path, state)
	if err == nil {
		t.Fatal("Write to nonexistent parent directory should fail")
	}
}

func TestReadNonexistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	_, err := Read(path)
	if err == nil {
		t.Fatal("Read nonexistent file should return an error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got: %v", err)
	}
}

func TestReadCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Read(path)
	if err == nil {
		t.Fatal("Read corrupt JSON should return an error")
	}
	// The error should mention the file path for diagnostics.
	if got := err.Error(); !strings.Contains(got, path) {
		t.Errorf("error %q should mention file path %q", got, path)
	}
}

func TestCheckRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Reason:    ReasonRestart,
		Timestamp: time.Now(),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, found, err := Check(path, time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !found {
		t.Fatal("Check should return found=true for a recent watchdog file")
	}
	if got.Reason != ReasonRestart {
		t.Errorf("Reason = %q, want %q", got.Reason, ReasonRestart)
	}
}

func TestCheckStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now().Add(-10 * time.Minute),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, found, err := Check(path, time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if found {
		t.Error("Check should return found=false for a stale watchdog file")
	}
}

func TestCheckNonexistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	_, found, err := Check(path, time.Minute)
	if err != nil {
		t.Fatalf("Check should not return an error for nonexistent file, got: %v", err)
	}
	if found {
		t.Error("Check should return found=false for nonexistent file")
	}
}

func TestCheckCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	if err := os.WriteFile(path, []byte("{invalid"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, err := Check(path, time.Minute)
	if err == nil {
		t.Fatal("Check should return an error for corrupt JSON (not silently ignore it)")
	}
}

func TestClearExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now(),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Clear(path); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not exist after Clear")
	}
}

func TestClearNonexistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	if err := Clear(path); err != nil {
		t.Errorf("Clear nonexistent file should be idempotent, got: %v", err)
	}
}

func TestClearIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.json")
	state := State{
		Component: "boushitsud",
		Timestamp: time.Now(),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Clear twice; second call should succeed silently.
	if err := Clear(path); err != nil {
		t.Fatalf("Clear first: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Errorf("Clear second (idempotent): %v", err)
	}
}
