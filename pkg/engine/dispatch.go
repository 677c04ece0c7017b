// Copyright 2024-2026 Aiku AI

package engine

import (
	"strings"

	"github.com/aiku/chatmarkup/pkg/component"
	"github.com/aiku/chatmarkup/pkg/markup"
)

// Payload is one outbound chat message. JSON holds a structured component
// payload; when it is empty, Legacy holds flat markup or colour-coded text.
type Payload struct {
	JSON   []byte
	Legacy string
}

// Delivery is the result of dispatching a payload. When Handled is true the
// caller must drop the original payload and send Messages instead.
type Delivery struct {
	Handled  bool
	Messages []*component.Node
}

// modifierModel is implemented by models that read modifier tags, which are
// then left out of the plain text of the message.
type modifierModel interface {
	Modifiers() []string
}

// Handle runs the dispatch pipeline for one payload sent to recipient.
// Payloads not starting with the symbol prefix pass through unhandled. A
// structured payload that cannot be decoded is dropped and its error
// returned.
func (e *Engine) Handle(recipient string, p Payload) (Delivery, error) {
	st := e.State()
	if st == nil || st.SymbolPrefix == "" {
		e.Metrics.observeMessage(resultPassthrough)
		return Delivery{}, nil
	}

	var text, plain string
	if len(p.JSON) > 0 {
		node, err := component.Decode(p.JSON)
		if err != nil {
			e.Log.Warn().Err(err).Str("recipient", recipient).Msg("Dropping malformed chat payload")
			e.Metrics.observeMessage(resultDropped)
			return Delivery{}, err
		}
		text, plain = component.ToMarkup(node), component.PlainText(node)
	} else {
		text, plain = p.Legacy, component.PlainText(markup.Parse(p.Legacy))
	}
	if !strings.HasPrefix(component.StripColorCodes(plain), st.SymbolPrefix) {
		e.Metrics.observeMessage(resultPassthrough)
		return Delivery{}, nil
	}

	text = markup.StripPrefix(strings.ReplaceAll(text, "§", "&"), st.SymbolPrefix)
	text, unknown := st.Placeholders.Expand(text, recipient)
	for _, id := range unknown {
		e.Log.Debug().Str("placeholder", id).Str("recipient", recipient).Msg("Leaving unknown placeholder unresolved")
		e.Metrics.observeResolution(resolutionUnknown)
	}

	d := Delivery{Handled: true, Messages: e.render(st, text)}
	e.Metrics.observeMessage(resultHandled)
	return d, nil
}

// render splits text into model output and plain markup. Without model tags
// the whole text is one message; otherwise every text segment outside the
// model tags comes first, followed by one message per model.
func (e *Engine) render(st *State, text string) []*component.Node {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tags := markup.Tags(text)
	var names, modifiers []string
	for _, name := range tags {
		m, ok := st.Model(name)
		if !ok {
			continue
		}
		names = append(names, name)
		if mm, ok := m.(modifierModel); ok {
			modifiers = append(modifiers, mm.Modifiers()...)
		}
	}
	if len(names) == 0 {
		return []*component.Node{markup.Parse(text)}
	}

	var out []*component.Node
	for _, seg := range markup.TextsWithout(markup.RemoveTags(text, modifiers...), names...) {
		out = append(out, markup.Parse(seg))
	}
	for _, name := range names {
		m, _ := st.Model(name)
		content, _ := markup.Content(name, text)
		rendered, err := m.Render(content, tags)
		if err != nil {
			e.Log.Warn().Err(err).Str("model", name).Msg("Model failed to render")
			e.Metrics.observeModelError(name)
			continue
		}
		out = append(out, markup.Parse(rendered))
	}
	return out
}
