// Copyright 2024-2026 Aiku AI

// Package engine ties configuration, placeholders and model producers into
// the chat dispatch pipeline. Configuration is published as immutable
// snapshots; readers never see a half-built configuration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/aiku/chatmarkup/pkg/config"
	"github.com/aiku/chatmarkup/pkg/placeholder"
	"github.com/aiku/chatmarkup/pkg/requirement"
)

// ErrNotLoaded is returned by operations that need a configuration before
// the first successful reload.
var ErrNotLoaded = errors.New("no configuration loaded")

// ErrRejected wraps failures that prevented a configuration from being
// published at all.
var ErrRejected = errors.New("configuration rejected")

// Engine serves chat dispatch and placeholder resolution from the most
// recently published State.
type Engine struct {
	Log        zerolog.Logger
	ConfigPath string
	Metrics    *Metrics
	Predicates *requirement.Predicates

	clock    placeholder.Clock
	state    atomic.Pointer[State]
	reloadMu sync.Mutex
}

// New returns an engine with no configuration. Call Reload or ReloadFile
// before dispatching.
func New(log zerolog.Logger, configPath string) *Engine {
	return &Engine{
		Log:        log,
		ConfigPath: configPath,
		Predicates: requirement.NewPredicates(),
	}
}

// Clock returns the animation clock shared by every published registry.
func (e *Engine) Clock() *placeholder.Clock {
	return &e.clock
}

// RunClock advances the animation clock every period until ctx is done.
func (e *Engine) RunClock(ctx context.Context) {
	period := config.DefaultTickInterval
	if st := e.State(); st != nil && st.TickInterval > 0 {
		period = st.TickInterval
	}
	e.clock.Run(ctx, period)
}

// State returns the published configuration, or nil before the first load.
func (e *Engine) State() *State {
	return e.state.Load()
}

// ReloadResult summarises one reload.
type ReloadResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Total   int `json:"total"`
}

// Reload builds a new state from cfg and publishes it. Invalid entries are
// skipped and reported in err; the valid ones are still published.
func (e *Engine) Reload(cfg *config.Config) (ReloadResult, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	next, err := Build(e.Log, cfg, &e.clock, e.Predicates)
	prev := e.state.Swap(next)

	res := ReloadResult{Total: next.Placeholders.Len()}
	current := make(map[string]struct{}, res.Total)
	for _, id := range next.Placeholders.IDs() {
		current[id] = struct{}{}
		if prev == nil {
			res.Added++
		} else if _, ok := prev.Placeholders.Lookup(id); !ok {
			res.Added++
		}
	}
	if prev != nil {
		for _, id := range prev.Placeholders.IDs() {
			if _, ok := current[id]; !ok {
				e.Log.Info().Str("placeholder", id).Msg("Removed placeholder")
				res.Removed++
			}
		}
	}

	e.Log.Info().
		Int("added", res.Added).
		Int("removed", res.Removed).
		Int("total", res.Total).
		Bool("partial", err != nil).
		Msg("Configuration reload complete")
	e.Metrics.observeReload(res.Total, err)
	return res, err
}

// ReloadFile parses the file at path and publishes it. A file that cannot
// be read or parsed leaves the current state in place.
func (e *Engine) ReloadFile(path string) (ReloadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.Metrics.observeReloadFailure()
		return ReloadResult{}, fmt.Errorf("%w: failed to read config: %w", ErrRejected, err)
	}
	return e.ReloadBytes(data)
}

// ReloadBytes parses a YAML document and publishes it.
func (e *Engine) ReloadBytes(data []byte) (ReloadResult, error) {
	cfg, err := config.Parse(data)
	if err != nil {
		e.Log.Error().Err(err).Msg("Rejected configuration")
		e.Metrics.observeReloadFailure()
		return ReloadResult{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return e.Reload(cfg)
}

// ResolveCommand resolves one placeholder on explicit request. Unlike chat
// expansion, an unknown identifier is an error the caller reports to the
// user.
func (e *Engine) ResolveCommand(sender, id string, args []string) (placeholder.Resolution, error) {
	st := e.State()
	if st == nil {
		return placeholder.Resolution{}, ErrNotLoaded
	}
	params := append([]string{sender}, args...)
	res, err := st.Placeholders.Resolve(id, params)
	if err != nil {
		e.Metrics.observeResolution(resolutionUnknown)
		return res, err
	}
	e.Metrics.observeResolution(res.State.String())
	return res, nil
}
