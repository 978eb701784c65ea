package asset

import (
	"encoding/json"
)

// Payload kinds emitted by the office extractors.
const (
	KindSlide   = "slide"
	KindSection = "section"
	KindSheet   = "sheet"
	KindTable   = "table"
)

// Structured is the kind-tagged extraction payload for office documents.
// Exactly one of Slide/Section/Sheet is non-nil for the matching Kind;
// a "table" kind carries only the Table field.
type Structured struct {
	Kind    string `json:"kind"`
	Segment string `json:"segment,omitempty"`

	Slide   *SlidePayload   `json:"slide,omitempty"`
	Section *SectionPayload `json:"section,omitempty"`
	Sheet   *SheetPayload   `json:"sheet,omitempty"`

	// Table holds a structured table object when the extractor found one.
	// Its shape varies by extractor version; presence is all the
	// classifier cares about.
	Table json.RawMessage `json:"table,omitempty"`
}

// SlidePayload is one PPTX slide.
type SlidePayload struct {
	Title       string   `json:"title,omitempty"`
	Bullets     []string `json:"bullets,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	SlideNumber int      `json:"slide_number,omitempty"`
}

// SectionPayload is one DOCX text block.
type SectionPayload struct {
	Heading      string   `json:"heading,omitempty"`
	Paragraphs   []string `json:"paragraphs,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
	TablePreview string   `json:"table_preview,omitempty"`
}

// SheetPayload is one XLSX worksheet.
type SheetPayload struct {
	Name       string     `json:"name,omitempty"`
	SampleRows [][]string `json:"sample_rows,omitempty"`
	Headers    []string   `json:"headers,omitempty"`
}

// UnmarshalJSON decodes a payload defensively: untyped or missing fields
// become zero values rather than decode errors, and the variant structs
// are only populated when their kind matches.
func (s *Structured) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object at all. Leave the payload empty.
		*s = Structured{}
		return nil
	}

	*s = Structured{
		Kind:    decodeString(raw["kind"]),
		Segment: decodeString(raw["segment"]),
	}
	if t, ok := raw["table"]; ok && !isJSONNull(t) {
		s.Table = t
	}

	switch s.Kind {
	case KindSlide:
		var p SlidePayload
		if b, ok := raw["slide"]; ok {
			json.Unmarshal(b, &p)
		} else {
			// Flat payloads predate the nested shape.
			json.Unmarshal(data, &p)
		}
		s.Slide = &p
	case KindSection:
		var p SectionPayload
		if b, ok := raw["section"]; ok {
			json.Unmarshal(b, &p)
		} else {
			json.Unmarshal(data, &p)
		}
		s.Section = &p
	case KindSheet:
		var p SheetPayload
		if b, ok := raw["sheet"]; ok {
			json.Unmarshal(b, &p)
		} else {
			json.Unmarshal(data, &p)
		}
		s.Sheet = &p
	}
	return nil
}

func decodeString(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ""
	}
	return s
}

func isJSONNull(b json.RawMessage) bool {
	return len(b) == 0 || string(b) == "null"
}
