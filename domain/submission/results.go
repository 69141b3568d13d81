package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// ErrResultsShape is returned when a results document lacks the user_ids or
// all_data arrays.
var ErrResultsShape = errors.New("results document must have user_ids and all_data arrays")

// UnmarshalJSON implements json.Unmarshaler. Entries from older writers may
// carry any value types; fields that do not fit the view are left empty.
func (e *UserEntry) UnmarshalJSON(data []byte) error {
	*e = UserEntry{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	e.UserID = lenientString(fields["user_id"])

	var buckets map[string]json.RawMessage
	if err := json.Unmarshal(fields["labeled_data"], &buckets); err != nil {
		return nil
	}
	e.LabeledData = make(map[string][]Record, len(buckets))
	for key, bucket := range buckets {
		var records []Record
		if err := json.Unmarshal(bucket, &records); err != nil {
			continue
		}
		e.LabeledData[key] = records
	}
	return nil
}

// ResultsDocument is results.json as stored on disk. Existing entries and
// unknown top-level keys are kept as raw JSON so a rewrite never alters them.
type ResultsDocument struct {
	userIDs []json.RawMessage
	allData []json.RawMessage
	extra   map[string]json.RawMessage
}

// NewResultsDocument returns an empty document.
func NewResultsDocument() *ResultsDocument {
	return &ResultsDocument{userIDs: []json.RawMessage{}, allData: []json.RawMessage{}}
}

// ParseResultsDocument accepts any object whose user_ids and all_data are
// arrays. Element contents are not inspected.
func ParseResultsDocument(data []byte) (*ResultsDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, ErrResultsShape
	}

	doc := &ResultsDocument{}
	var err error
	if doc.userIDs, err = rawArray(fields["user_ids"]); err != nil {
		return nil, err
	}
	if doc.allData, err = rawArray(fields["all_data"]); err != nil {
		return nil, err
	}
	delete(fields, "user_ids")
	delete(fields, "all_data")
	if len(fields) > 0 {
		doc.extra = fields
	}
	return doc, nil
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrResultsShape
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// Append adds one batch for userID and returns the entry as written.
func (d *ResultsDocument) Append(userID string, records []Record) (UserEntry, error) {
	entry := UserEntry{UserID: userID, LabeledData: GroupRecords(records)}
	rawID, err := json.Marshal(userID)
	if err != nil {
		return UserEntry{}, err
	}
	rawEntry, err := json.Marshal(entry)
	if err != nil {
		return UserEntry{}, err
	}
	d.userIDs = append(d.userIDs, rawID)
	d.allData = append(d.allData, rawEntry)
	return entry, nil
}

// Store returns the typed view of the document.
func (d *ResultsDocument) Store() *ResultsStore {
	store := NewResultsStore()
	for _, id := range d.userIDs {
		store.UserIDs = append(store.UserIDs, lenientString(id))
	}
	for _, raw := range d.allData {
		var entry UserEntry
		_ = json.Unmarshal(raw, &entry)
		store.AllData = append(store.AllData, entry)
	}
	return store
}

// MarshalJSON implements json.Marshaler. user_ids and all_data come first,
// followed by any other keys in sorted order.
func (d *ResultsDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"user_ids":`)
	if err := writeRawArray(&buf, d.userIDs); err != nil {
		return nil, err
	}
	buf.WriteString(`,"all_data":`)
	if err := writeRawArray(&buf, d.allData); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(d.extra))
	for k := range d.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeRawArray(buf *bytes.Buffer, items []json.RawMessage) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
