// Copyright 2024-2026 Aiku AI

package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/chatmarkup/pkg/config"
	"github.com/aiku/chatmarkup/pkg/placeholder"
	"github.com/aiku/chatmarkup/pkg/progress"
	"github.com/aiku/chatmarkup/pkg/requirement"
)

// Model renders the content of one model tag. tags holds every tag found in
// the message so producers can read modifiers such as <percent>.
type Model interface {
	Render(content string, tags []string) (string, error)
}

// State is one published configuration. It is never modified after Build
// returns it.
type State struct {
	SymbolPrefix string
	TickInterval time.Duration
	Placeholders *placeholder.Registry
	Progress     *progress.Model

	models map[string]Model
}

// Model returns the producer for a model tag name.
func (s *State) Model(name string) (Model, bool) {
	m, ok := s.models[strings.ToLower(name)]
	return m, ok
}

// Build compiles cfg into a new state. Entries that fail validation are
// logged, left out and returned joined in err; the state holds every entry
// that was valid.
func Build(log zerolog.Logger, cfg *config.Config, clock *placeholder.Clock, predicates *requirement.Predicates) (*State, error) {
	if predicates == nil {
		predicates = requirement.NewPredicates()
	}
	var errs []error

	reg := placeholder.NewRegistry(clock)
	for _, p := range cfg.Placeholders {
		plog := log.With().Str("placeholder", p.ID).Logger()
		kind, ok := placeholder.ParseKind(p.Type)
		if !ok {
			plog.Warn().Str("type", p.Type).Msg("Unknown placeholder type, using string")
		}

		rules := make([]requirement.Rule, 0, len(p.Requirements))
		for _, r := range p.Requirements {
			rules = append(rules, requirement.Rule{Identifier: r.Type, Input: r.Input, Output: r.Output, Deny: r.Deny})
		}
		chain, ruleErrs := predicates.Build(rules)
		for _, err := range ruleErrs {
			plog.Warn().Err(err).Msg("Skipping requirement")
			errs = append(errs, fmt.Errorf("placeholder %q: %w", p.ID, err))
		}

		def, err := placeholder.NewDefinition(p.ID, kind, p.Templates(), p.Interval, chain)
		if err != nil {
			plog.Warn().Err(err).Msg("Skipping placeholder")
			errs = append(errs, err)
			continue
		}
		reg.Register(p.ID, def)
		plog.Info().
			Str("type", kind.String()).
			Ints("slots", def.Slots()).
			Int("requirements", len(chain)).
			Msg("Registered placeholder")
	}

	bars := make([]*progress.Bar, 0, len(cfg.ProgressBars))
	for _, b := range cfg.ProgressBars {
		bar := &progress.Bar{
			ID:             b.ID,
			Symbol:         b.Symbol,
			CompletedColor: b.CompletedColor,
			ProgressColor:  b.ProgressColor,
			RemainingColor: b.RemainingColor,
		}
		if err := bar.Validate(); err != nil {
			log.Warn().Err(err).Str("progress", b.ID).Msg("Skipping progress bar")
			errs = append(errs, err)
			continue
		}
		bars = append(bars, bar)
		log.Info().Str("progress", b.ID).Msg("Registered progress bar")
	}
	model := progress.NewModel(bars)

	return &State{
		SymbolPrefix: cfg.SymbolPrefix,
		TickInterval: cfg.TickInterval,
		Placeholders: reg,
		Progress:     model,
		models:       map[string]Model{progress.TagName: model},
	}, errors.Join(errs...)
}
