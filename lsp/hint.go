package lsp

import (
	"encoding/json"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/rlch/inlay"
)

// go.lsp.dev/protocol v0.12.0 predates LSP 3.17, so the inlay hint messages are declared
// here on top of its base types.

// InlayHintParams are the parameters of a textDocument/inlayHint request.
type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

// InlayHintKind is the LSP hint kind. Zero means the server sent none.
type InlayHintKind int

// Kinds defined by LSP 3.17.
const (
	InlayHintKindType      InlayHintKind = 1
	InlayHintKindParameter InlayHintKind = 2
)

// InlayHint is one hint as sent by the server.
type InlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        json.RawMessage   `json:"label"`
	Kind         InlayHintKind     `json:"kind,omitempty"`
	Tooltip      json.RawMessage   `json:"tooltip,omitempty"`
	PaddingLeft  bool              `json:"paddingLeft,omitempty"`
	PaddingRight bool              `json:"paddingRight,omitempty"`
}

// InlayHintLabelPart is one segment of a structured label.
type InlayHintLabelPart struct {
	Value   string          `json:"value"`
	Tooltip json.RawMessage `json:"tooltip,omitempty"`
}

// decodeText accepts either a JSON string or something with a string "value" field,
// which covers MarkupContent tooltips.
func decodeText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var markup protocol.MarkupContent

	err := json.Unmarshal(raw, &markup)
	if err != nil {
		return "", err
	}

	return markup.Value, nil
}

func decodeLabel(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []InlayHintLabelPart

	err := json.Unmarshal(raw, &parts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Value)
	}

	return b.String(), nil
}

// toHint converts a wire hint to cache content.
func (h InlayHint) toHint() (inlay.Hint, error) {
	label, err := decodeLabel(h.Label)
	if err != nil {
		return inlay.Hint{}, err
	}

	tooltip, err := decodeText(h.Tooltip)
	if err != nil {
		return inlay.Hint{}, err
	}

	kind := inlay.KindOther

	switch h.Kind {
	case InlayHintKindType:
		kind = inlay.KindType
	case InlayHintKindParameter:
		kind = inlay.KindParameter
	}

	return inlay.Hint{
		Kind:         kind,
		Label:        label,
		Tooltip:      tooltip,
		PaddingLeft:  h.PaddingLeft,
		PaddingRight: h.PaddingRight,
	}, nil
}
