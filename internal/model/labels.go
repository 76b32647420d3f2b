package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

var (
	ErrUnknownClassIndex  = errors.New("class index missing from label table")
	ErrClassCountMismatch = errors.New("model output does not match label table")
)

// LabelTable maps string-encoded class indices to species names. It is never
// modified after LoadLabels returns.
type LabelTable struct {
	names map[string]string
}

func LoadLabels(path string) (*LabelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label table: %w", err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes a JSON object such as {"0": "cat", "1": "dog"}. Keys must
// be exactly "0" through "N-1".
func ParseLabels(data []byte) (*LabelTable, error) {
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse label table: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("label table is empty")
	}
	for i := 0; i < len(names); i++ {
		if _, ok := names[strconv.Itoa(i)]; !ok {
			return nil, fmt.Errorf("label table has %d entries but no index %d", len(names), i)
		}
	}
	return &LabelTable{names: names}, nil
}

func (t *LabelTable) Len() int {
	return len(t.names)
}

func (t *LabelTable) Lookup(index int) (string, error) {
	name, ok := t.names[strconv.Itoa(index)]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownClassIndex, index)
	}
	return name, nil
}
