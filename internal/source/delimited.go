package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

type delimitedFormat struct {
	name  string
	ext   string
	comma rune
}

func (f delimitedFormat) Name() string { return f.name }

func (f delimitedFormat) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), f.ext)
}

func (f delimitedFormat) Read(name string, data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = f.comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.name, err)
	}
	t := &Table{Name: name}
	if len(recs) == 0 {
		return t, nil
	}
	t.Header = recs[0]
	for _, rec := range recs[1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
