package submission

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Record is one group ranking inside a batch. A record decoded from JSON
// keeps the exact bytes it arrived with and is written back unchanged; the
// typed fields are a lenient view used for bucketing and exports.
type Record struct {
	GroupID          GroupRef
	Instruction      string
	InstructionCN    string
	SortedImages     []string
	StartedAt        string
	SubmittedAt      string
	TimeSpentSeconds *float64

	raw json.RawMessage
}

type recordJSON struct {
	GroupID          GroupRef `json:"group_id"`
	Instruction      string   `json:"instruction"`
	InstructionCN    string   `json:"instruction_cn"`
	SortedImages     []string `json:"sorted_images"`
	StartedAt        string   `json:"started_at,omitempty"`
	SubmittedAt      string   `json:"submitted_at,omitempty"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds,omitempty"`
}

// Raw returns the bytes the record was decoded from, or nil for records
// built in code.
func (r Record) Raw() json.RawMessage {
	return r.raw
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	images := r.SortedImages
	if images == nil {
		images = []string{}
	}
	return json.Marshal(recordJSON{
		GroupID:          r.GroupID,
		Instruction:      r.Instruction,
		InstructionCN:    r.InstructionCN,
		SortedImages:     images,
		StartedAt:        r.StartedAt,
		SubmittedAt:      r.SubmittedAt,
		TimeSpentSeconds: r.TimeSpentSeconds,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It accepts any JSON value:
// fields of an unexpected type are left empty in the view, and a value that
// is not an object yields a record without a group.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = Record{raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if v, ok := fields["group_id"]; ok {
		r.GroupID = GroupRef{raw: append(json.RawMessage(nil), v...)}
	}
	r.Instruction = lenientString(fields["instruction"])
	r.InstructionCN = lenientString(fields["instruction_cn"])
	r.StartedAt = lenientString(fields["started_at"])
	r.SubmittedAt = lenientString(fields["submitted_at"])
	r.SortedImages = lenientStrings(fields["sorted_images"])
	r.TimeSpentSeconds = lenientFloat(fields["time_spent_seconds"])
	return nil
}

// lenientString returns strings unquoted, null as "", and any other value
// as its compact JSON text (numeric timestamps stay readable).
func lenientString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return compact.String()
	}
	return string(trimmed)
}

func lenientStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = lenientString(item)
	}
	return out
}

func lenientFloat(raw json.RawMessage) *float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}
