package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// jsonFormat reads an array of flat objects.
type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func (jsonFormat) Read(name string, data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	return tableFromMaps(name, rows), nil
}

// yamlFormat reads a sequence of flat mappings.
type yamlFormat struct{}

func (yamlFormat) Name() string { return "yaml" }

func (yamlFormat) CanRead(filename string) bool {
	n := strings.ToLower(filename)
	return strings.HasSuffix(n, ".yaml") || strings.HasSuffix(n, ".yml")
}

func (yamlFormat) Read(name string, data []byte) (*Table, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode yaml rows: %w", err)
	}
	return tableFromMaps(name, rows), nil
}

func tableFromMaps(name string, rows []map[string]any) *Table {
	seen := map[string]bool{}
	var header []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)
	t := &Table{Name: name, Header: header}
	for _, r := range rows {
		rec := make([]string, len(header))
		for i, h := range header {
			rec[i] = cellString(r[h])
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
