// Copyright 2024-2026 Aiku AI

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatchConfigReloads(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	e := New(zerolog.Nop(), path)
	if _, err := e.ReloadFile(path); err != nil {
		t.Fatalf("ReloadFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.WatchConfig(ctx, 10*time.Millisecond) }()

	updated := []byte("symbol-prefix: \"!\"\ncustom-placeholder:\n  motd:\n    value: hi\n")
	deadline := time.Now().Add(5 * time.Second)
	for e.State().SymbolPrefix != "!" {
		if time.Now().After(deadline) {
			t.Fatal("config change was not picked up")
		}
		// Rewrite until the watcher has started and seen a change.
		if err := os.WriteFile(path, updated, 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if _, ok := e.State().Placeholders.Lookup("motd"); !ok {
		t.Error("motd should be registered after the reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchConfig: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WatchConfig did not return after cancel")
	}
}

func TestWatchConfigNoPath(t *testing.T) {
	t.Parallel()
	if err := New(zerolog.Nop(), "").WatchConfig(context.Background(), 0); err == nil {
		t.Error("expected error without a config path")
	}
}
