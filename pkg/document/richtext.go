package document

import "encoding/json"

// RichText is the structured payload of a text block. Its shape belongs
// to the rich-text collaborator; this package only stores and copies it.
type RichText json.RawMessage

func (r RichText) Clone() RichText {
	if r == nil {
		return nil
	}
	c := make(RichText, len(r))
	copy(c, r)
	return c
}

func (r RichText) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return EmptyRichText(), nil
	}
	return r, nil
}

func (r *RichText) UnmarshalJSON(data []byte) error {
	*r = RichText(data).Clone()
	return nil
}

const emptyRichText = `{"type":"doc","content":[]}`

// EmptyRichText returns a fresh empty rich-text document.
func EmptyRichText() RichText {
	return RichText(emptyRichText)
}

// RichTextCodec converts rich-text payloads to and from markup.
// Implementations must be pure.
type RichTextCodec interface {
	// Render returns the markup for a payload.
	Render(RichText) (string, error)
	// Parse converts a markup fragment into a payload.
	Parse(fragment string) (RichText, error)
}
