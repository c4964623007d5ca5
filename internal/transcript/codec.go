package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"speakerid/internal/services"
)

var (
	segmentKeys    = []string{"id", "start", "end", "text", "speaker"}
	transcriptKeys = []string{"segments", "text", "language", "speaker"}
)

// Parse decodes a transcript document. A bare array of segments is accepted.
func Parse(data []byte) (*Transcript, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformed("empty document", nil)
	}

	var rawSegments []json.RawMessage
	tr := &Transcript{}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &rawSegments); err != nil {
			return nil, malformed("decode segment list", err)
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, malformed("decode document", err)
		}
		raw, ok := fields["segments"]
		if !ok {
			return nil, malformed("document has no segments array", nil)
		}
		if err := json.Unmarshal(raw, &rawSegments); err != nil || rawSegments == nil {
			return nil, malformed("segments is not an array", err)
		}
		if err := decodeOptionalString(fields, "text", &tr.Text); err != nil {
			return nil, err
		}
		if err := decodeOptionalString(fields, "language", &tr.Language); err != nil {
			return nil, err
		}
		if err := decodeOptionalString(fields, "speaker", &tr.Speaker); err != nil {
			return nil, err
		}
		tr.Extra = extraFields(fields, transcriptKeys)
	default:
		return nil, malformed("document is neither an object nor an array", nil)
	}

	tr.Segments = make([]Segment, 0, len(rawSegments))
	for i, raw := range rawSegments {
		seg, err := decodeSegment(raw, i)
		if err != nil {
			return nil, err
		}
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}

// labeledKeys are the fields every element of a labeled segment list carries.
var labeledKeys = []string{"speaker", "start", "end", "text"}

// ParseLabeled decodes an exported list of labeled segments. The document
// must be an array whose elements all carry speaker, start, end, and text;
// segment ids are reassigned by position.
func ParseLabeled(data []byte) (*Transcript, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed("expected an array of segments", nil)
	}
	var rawSegments []json.RawMessage
	if err := json.Unmarshal(trimmed, &rawSegments); err != nil {
		return nil, malformed("decode segment list", err)
	}
	for i, raw := range rawSegments {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, malformed(fmt.Sprintf("segment %d is not an object", i), err)
		}
		for _, key := range labeledKeys {
			if _, ok := fields[key]; !ok {
				return nil, malformed(fmt.Sprintf("segment %d missing %s", i, key), nil)
			}
		}
	}
	tr, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}
	tr.Renumber()
	return tr, nil
}

func decodeSegment(raw json.RawMessage, index int) (Segment, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Segment{}, malformed(fmt.Sprintf("segment %d is not an object", index), err)
	}

	seg := Segment{ID: index}
	if v, ok := fields["id"]; ok && !isNull(v) {
		var id float64
		if err := json.Unmarshal(v, &id); err != nil {
			return Segment{}, malformed(fmt.Sprintf("segment %d id", index), err)
		}
		seg.ID = int(id)
	}
	if err := decodeRequiredFloat(fields, "start", index, &seg.Start); err != nil {
		return Segment{}, err
	}
	if err := decodeRequiredFloat(fields, "end", index, &seg.End); err != nil {
		return Segment{}, err
	}
	if err := decodeOptionalString(fields, "text", &seg.Text); err != nil {
		return Segment{}, err
	}
	if err := decodeOptionalString(fields, "speaker", &seg.Speaker); err != nil {
		return Segment{}, err
	}
	seg.Speaker = strings.TrimSpace(seg.Speaker)
	seg.Extra = extraFields(fields, segmentKeys)
	return seg, nil
}

func decodeRequiredFloat(fields map[string]json.RawMessage, key string, index int, dst *float64) error {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return malformed(fmt.Sprintf("segment %d missing %s", index, key), nil)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return malformed(fmt.Sprintf("segment %d %s", index, key), err)
	}
	return nil
}

func decodeOptionalString(fields map[string]json.RawMessage, key string, dst *string) error {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return malformed(fmt.Sprintf("field %s", key), err)
	}
	return nil
}

func extraFields(fields map[string]json.RawMessage, known []string) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func malformed(message string, err error) error {
	return services.Wrap(services.ErrMalformed, "transcript", "parse", message, err)
}

// MarshalJSON encodes the segment with its preserved extra fields. The
// speaker key is always written, empty when the segment is unlabeled.
func (s Segment) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		fields[k] = v
	}
	fields["id"] = s.ID
	fields["start"] = s.Start
	fields["end"] = s.End
	fields["text"] = s.Text
	fields["speaker"] = s.Speaker
	return json.Marshal(fields)
}

// MarshalJSON encodes the normalized document.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(t.Extra)+4)
	for k, v := range t.Extra {
		fields[k] = v
	}
	segments := t.Segments
	if segments == nil {
		segments = []Segment{}
	}
	fields["segments"] = segments
	if t.Text != "" {
		fields["text"] = t.Text
	}
	if t.Language != "" {
		fields["language"] = t.Language
	}
	if t.Speaker != "" {
		fields["speaker"] = t.Speaker
	}
	return json.Marshal(fields)
}
