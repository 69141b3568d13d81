package submission

import (
	"bytes"
	"encoding/json"

	"grouprank/internal/errors"
)

type singleRequest struct {
	GroupID      GroupRef        `json:"group_id"`
	SortedImages json.RawMessage `json:"sorted_images"`
	Instruction  string          `json:"instruction"`
}

type batchRequest struct {
	Results json.RawMessage `json:"results"`
	UserID  json.RawMessage `json:"user_id"`
}

// DecodeSingle validates a /submit_group body. group_id must be present and
// non-null; sorted_images defaults to an empty list but must be a list of
// strings when given.
func DecodeSingle(body []byte) (Single, error) {
	var req singleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Single{}, errors.InvalidPayload("Invalid payload")
	}
	if req.GroupID.IsZero() {
		return Single{}, errors.InvalidPayload("Invalid payload")
	}

	images := []string{}
	raw := bytes.TrimSpace(req.SortedImages)
	if len(raw) > 0 {
		if raw[0] != '[' {
			return Single{}, errors.InvalidPayload("Invalid payload")
		}
		if err := json.Unmarshal(raw, &images); err != nil {
			return Single{}, errors.InvalidPayload("Invalid payload")
		}
	}

	return Single{
		GroupID:      req.GroupID,
		SortedImages: images,
		Instruction:  req.Instruction,
	}, nil
}

// DecodeBatch validates a /submit_all body and returns the optional user_id
// override along with the records. Only the shape of results is checked;
// record contents are kept as sent.
func DecodeBatch(body []byte) (string, []Record, error) {
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", nil, errors.InvalidPayload("results must be a list")
	}

	raw := bytes.TrimSpace(req.Results)
	if len(raw) == 0 || raw[0] != '[' {
		return "", nil, errors.InvalidPayload("results must be a list")
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return "", nil, errors.InvalidPayload("results must be a list")
	}
	if records == nil {
		records = []Record{}
	}
	return lenientString(req.UserID), records, nil
}
