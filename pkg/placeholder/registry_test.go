// Copyright 2024-2026 Aiku AI

package placeholder

import (
	"errors"
	"slices"
	"testing"

	"github.com/aiku/chatmarkup/pkg/requirement"
)

func mustDefinition(t *testing.T, id string, kind Kind, templates []string, interval int64, rules ...requirement.Rule) *Definition {
	t.Helper()
	chain, errs := requirement.NewPredicates().Build(rules)
	if len(errs) != 0 {
		t.Fatalf("Build rules: %v", errs)
	}
	def, err := NewDefinition(id, kind, templates, interval, chain)
	if err != nil {
		t.Fatalf("NewDefinition(%q): %v", id, err)
	}
	return def
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		want   Kind
		wantOK bool
	}{
		{"STRING", KindString, true},
		{"color", KindColor, true},
		{"Random", KindRandom, true},
		{"animated", KindAnimated, true},
		{"", KindString, true},
		{"sparkly", KindString, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseKind(%q): got (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewDefinitionValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		id        string
		kind      Kind
		templates []string
	}{
		{"empty id", " ", KindString, []string{"x"}},
		{"string needs one value", "a", KindString, []string{"x", "y"}},
		{"random needs values", "a", KindRandom, nil},
		{"animated needs values", "a", KindAnimated, []string{}},
		{"color must be a color", "a", KindColor, []string{"not a color"}},
	}
	for _, tt := range tests {
		if _, err := NewDefinition(tt.id, tt.kind, tt.templates, 0, nil); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	for _, ok := range []string{"#ff00aa", "gold", "{0}"} {
		if _, err := NewDefinition("c", KindColor, []string{ok}, 0, nil); err != nil {
			t.Errorf("color %q should be accepted: %v", ok, err)
		}
	}
}

func TestDefinitionSlots(t *testing.T) {
	t.Parallel()
	def := mustDefinition(t, "p", KindString, []string{"{2} and {0} and {0}"}, 0,
		requirement.Rule{Identifier: "string", Input: "{5}", Output: "x", Deny: "{1}"})
	if got, want := def.Slots(), []int{0, 1, 2, 5}; !slices.Equal(got, want) {
		t.Errorf("Slots: got %v, want %v", got, want)
	}
}

func TestResolveString(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("Greeting", mustDefinition(t, "Greeting", KindString, []string{"Hello {0}, meet {1}"}, 0))

	res, err := r.Resolve("greeting", []string{"ctx", "Ann", "Bob"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Text != "Hello Ann, meet Bob" {
		t.Errorf("Resolve: got %q", res.Text)
	}
	if res.State != requirement.Passed {
		t.Errorf("State: got %v, want passed", res.State)
	}
}

func TestResolveContextNeverSubstituted(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("p", mustDefinition(t, "p", KindString, []string{"[{0}]"}, 0))
	res, err := r.Resolve("p", []string{"only-context"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Text != "[{0}]" {
		t.Errorf("params[0] must not fill {0}: got %q", res.Text)
	}
}

func TestResolveOutOfRangeArgumentUnchanged(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("hello", mustDefinition(t, "hello", KindString, []string{"Hello {5}"}, 0))
	res, err := r.Resolve("hello", []string{"ctx", "a"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Text != "Hello {5}" {
		t.Errorf("got %q, want %q", res.Text, "Hello {5}")
	}
}

func TestResolveUnknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	_, err := r.Resolve("missing", nil)
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Errorf("got %v, want ErrUnknownPlaceholder", err)
	}
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("p", mustDefinition(t, "p", KindString, []string{"old"}, 0))
	r.Register("P", mustDefinition(t, "P", KindString, []string{"new"}, 0))
	if r.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", r.Len())
	}
	res, _ := r.Resolve("p", nil)
	if res.Text != "new" {
		t.Errorf("got %q, want %q", res.Text, "new")
	}
	if got := r.IDs(); !slices.Equal(got, []string{"p"}) {
		t.Errorf("IDs: got %v", got)
	}
}

func TestResolveAnimated(t *testing.T) {
	t.Parallel()
	clock := &Clock{}
	r := NewRegistry(clock)
	r.Register("spin", mustDefinition(t, "spin", KindAnimated, []string{"a", "b", "c"}, 1))

	var got []string
	for range 4 {
		res, err := r.Resolve("spin", nil)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		got = append(got, res.Text)
		clock.Advance()
	}
	if want := []string{"a", "b", "c", "a"}; !slices.Equal(got, want) {
		t.Errorf("frames: got %v, want %v", got, want)
	}
}

func TestFrameInterval(t *testing.T) {
	t.Parallel()
	def := mustDefinition(t, "spin", KindAnimated, []string{"a", "b"}, 3)
	var got []string
	for tick := int64(0); tick < 7; tick++ {
		got = append(got, def.Frame(tick))
	}
	if want := []string{"a", "a", "a", "b", "b", "b", "a"}; !slices.Equal(got, want) {
		t.Errorf("frames: got %v, want %v", got, want)
	}
}

func TestResolveRandom(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	values := []string{"x", "y", "z"}
	r.Register("r", mustDefinition(t, "r", KindRandom, values, 0))
	seen := make(map[string]bool)
	for range 300 {
		res, err := r.Resolve("r", nil)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !slices.Contains(values, res.Text) {
			t.Fatalf("unexpected value %q", res.Text)
		}
		seen[res.Text] = true
	}
	if len(seen) != len(values) {
		t.Errorf("expected every value to appear in 300 draws, saw %v", seen)
	}
}

func TestResolveRequirementShortCircuit(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("gate", mustDefinition(t, "gate", KindString, []string{"own output"}, 0,
		requirement.Rule{Identifier: "string ignorecase", Input: "{0}", Output: "a", Deny: "X"},
		requirement.Rule{Identifier: "string", Input: "{1}", Output: "c", Deny: "Y"},
	))
	res, err := r.Resolve("gate", []string{"ctx", "A", "b"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Text != "Y" || res.State != requirement.Denied {
		t.Errorf("got (%q, %v), want (%q, denied)", res.Text, res.State, "Y")
	}
}

func TestResolveArgumentsStayLiteral(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("pair", mustDefinition(t, "pair", KindString, []string{"a={0} b={1}"}, 0))
	res, err := r.Resolve("pair", []string{"ctx", "{1}", "X"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Text != "a={1} b=X" {
		t.Errorf("got %q, want %q", res.Text, "a={1} b=X")
	}
}

func TestResolveRequirementDenySubstituted(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("rank", mustDefinition(t, "rank", KindString, []string{"Welcome, {0}"}, 0,
		requirement.Rule{Identifier: "string", Input: "{1}", Output: "admin", Deny: "Sorry {0}, admins only"},
	))

	res, _ := r.Resolve("rank", []string{"ctx", "Ann", "admin"})
	if res.Text != "Welcome, Ann" {
		t.Errorf("passing chain: got %q", res.Text)
	}
	res, _ = r.Resolve("rank", []string{"ctx", "Bob", "guest"})
	if res.Text != "Sorry Bob, admins only" {
		t.Errorf("denied chain: got %q", res.Text)
	}
}

func TestResolveNegation(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("neg", mustDefinition(t, "neg", KindString, []string{"ok"}, 0,
		requirement.Rule{Identifier: "!string", Input: "same", Output: "same", Deny: "denied"},
	))
	res, _ := r.Resolve("neg", nil)
	if res.Text != "denied" {
		t.Errorf("got %q, want %q", res.Text, "denied")
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("name", mustDefinition(t, "name", KindString, []string{"<gold>Server</gold>"}, 0))
	r.Register("greet", mustDefinition(t, "greet", KindString, []string{"hi {0} and {1}"}, 0))

	out, unknown := r.Expand("{name} says {greet:Ann:Bob} to {nobody:x}, slot {0} stays", "player")
	want := "<gold>Server</gold> says hi Ann and Bob to {nobody:x}, slot {0} stays"
	if out != want {
		t.Errorf("Expand:\n got %q\nwant %q", out, want)
	}
	if !slices.Equal(unknown, []string{"nobody"}) {
		t.Errorf("unknown: got %v", unknown)
	}
}
