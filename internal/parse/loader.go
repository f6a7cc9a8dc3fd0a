package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadExport reads a chat export: a JSON array whose elements are objects.
// Any other shape, or an unreadable file, yields *MalformedInputError.
func LoadExport(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := DecodeExport(f)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}
	return records, nil
}

// DecodeExport parses the export container from r.
func DecodeExport(r io.Reader) ([]RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errors.New("expected a JSON array of records")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(elems))
	for i, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
		var rec RawRecord
		if err := json.Unmarshal(e, &rec); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
