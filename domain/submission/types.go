package submission

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownGroupKey buckets records that arrive without a group_id.
const UnknownGroupKey = "unknown_group"

// FlatLogHeader is the header row of results.csv.
var FlatLogHeader = []string{"timestamp", "group_id", "instruction", "user_id", "sorted_images_joined"}

// ImageJoinSeparator joins sorted image paths in results.csv.
const ImageJoinSeparator = "|"

// GroupRef is a group_id as the client sent it. Numbers and strings are both
// accepted and written back unchanged.
type GroupRef struct {
	raw json.RawMessage
}

// NewGroupRef builds a reference from a numeric group id.
func NewGroupRef(id int) GroupRef {
	return GroupRef{raw: json.RawMessage(strconv.Itoa(id))}
}

// IsZero reports whether the reference is missing or null.
func (g GroupRef) IsZero() bool {
	trimmed := bytes.TrimSpace(g.raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Key returns the stringified id used as a labeled_data key.
func (g GroupRef) Key() string {
	if g.IsZero() {
		return UnknownGroupKey
	}
	trimmed := bytes.TrimSpace(g.raw)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return compact.String()
	}
	return string(trimmed)
}

// String is the value written into results.csv.
func (g GroupRef) String() string {
	if g.IsZero() {
		return ""
	}
	return g.Key()
}

// MarshalJSON implements json.Marshaler
func (g GroupRef) MarshalJSON() ([]byte, error) {
	if g.IsZero() {
		return []byte("null"), nil
	}
	return bytes.TrimSpace(g.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (g *GroupRef) UnmarshalJSON(data []byte) error {
	g.raw = append(json.RawMessage(nil), data...)
	return nil
}

// UserEntry is one submit_all call.
type UserEntry struct {
	UserID      string              `json:"user_id"`
	LabeledData map[string][]Record `json:"labeled_data"`
}

// ResultsStore is the append-only aggregate persisted as results.json.
type ResultsStore struct {
	UserIDs []string    `json:"user_ids"`
	AllData []UserEntry `json:"all_data"`
}

// NewResultsStore returns an empty store with non-nil slices so it
// serializes as empty arrays.
func NewResultsStore() *ResultsStore {
	return &ResultsStore{UserIDs: []string{}, AllData: []UserEntry{}}
}

// GroupRecords buckets records by stringified group_id, keeping submission
// order inside each bucket.
func GroupRecords(records []Record) map[string][]Record {
	grouped := make(map[string][]Record)
	for _, rec := range records {
		if rec.SortedImages == nil {
			rec.SortedImages = []string{}
		}
		key := rec.GroupID.Key()
		grouped[key] = append(grouped[key], rec)
	}
	return grouped
}

// Append adds one batch for userID. The caller owns persistence.
func (s *ResultsStore) Append(userID string, records []Record) UserEntry {
	entry := UserEntry{UserID: userID, LabeledData: GroupRecords(records)}
	s.UserIDs = append(s.UserIDs, userID)
	s.AllData = append(s.AllData, entry)
	return entry
}

// Single is one /submit_group call.
type Single struct {
	GroupID      GroupRef
	SortedImages []string
	Instruction  string
	UserID       string
}

// FlatRow is one results.csv row.
type FlatRow struct {
	Timestamp    string   `json:"timestamp"`
	GroupID      string   `json:"group_id"`
	Instruction  string   `json:"instruction"`
	UserID       string   `json:"user_id"`
	SortedImages []string `json:"sorted_images"`
}

// Fields returns the CSV columns for the row.
func (r FlatRow) Fields() []string {
	return []string{r.Timestamp, r.GroupID, r.Instruction, r.UserID, strings.Join(r.SortedImages, ImageJoinSeparator)}
}

// ParseFlatRow is the inverse of Fields. Short rows are padded.
func ParseFlatRow(fields []string) FlatRow {
	padded := make([]string, len(FlatLogHeader))
	copy(padded, fields)
	row := FlatRow{
		Timestamp:    padded[0],
		GroupID:      padded[1],
		Instruction:  padded[2],
		UserID:       padded[3],
		SortedImages: []string{},
	}
	if padded[4] != "" {
		row.SortedImages = strings.Split(padded[4], ImageJoinSeparator)
	}
	return row
}
