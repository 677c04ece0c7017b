// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/chatmarkup/pkg/config"
	"github.com/aiku/chatmarkup/pkg/engine"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg, err := config.Parse([]byte(config.ExampleConfig))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	e := engine.New(zerolog.Nop(), "")
	if _, err := e.Reload(cfg); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return e
}

func TestRender(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	tests := []struct {
		name       string
		input      string
		format     string
		structured bool
		want       string
	}{
		{"markup", "$<bold>hi</bold>\n", "markup", false, "<bold>hi</bold>\n"},
		{"mattermost", "$<bold>hi</bold>", "mattermost", false, "**hi**\n"},
		{"unhandled passes through", "plain\n", "markup", false, "plain\n"},
		{"structured", `{"text":"$hi","italic":true}`, "markup", true, "<italic>hi</italic>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			if err := render(e, strings.NewReader(tt.input), &out, "steve", tt.format, tt.structured); err != nil {
				t.Fatalf("render: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRenderMatrix(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := render(testEngine(t), strings.NewReader("$<bold>hi</bold>"), &out, "", "matrix", false); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), `"formatted_body": "<strong>hi</strong>"`) {
		t.Errorf("matrix output: %s", out.String())
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := render(testEngine(t), strings.NewReader("$x"), &out, "", "html", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	var out bytes.Buffer
	if err := resolve(e, &out, "console", "staff", []string{"Steve", "admin"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.String() != "<green>Welcome back, Steve</green>\n" {
		t.Errorf("got %q", out.String())
	}
	if err := resolve(e, &out, "console", "missing", nil); err == nil || err.Error() != "placeholder missing not found" {
		t.Errorf("unknown placeholder: got %v", err)
	}
}
