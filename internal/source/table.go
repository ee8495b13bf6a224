package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table is a header plus string rows, independent of the file format.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Column returns the index of a header, matched case-insensitively.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Format reads one kind of tabular file.
type Format interface {
	Name() string
	CanRead(filename string) bool
	Read(name string, data []byte) (*Table, error)
}

var formats []Format

// RegisterFormat adds a format to the registry.
func RegisterFormat(f Format) {
	formats = append(formats, f)
}

// ErrUnsupportedFormat is returned for files no registered format accepts.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// ReadTable selects a format by file name and reads the file.
func ReadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	name := filepath.Base(path)
	for _, f := range formats {
		if f.CanRead(name) {
			t, err := f.Read(name, data)
			if err != nil {
				return nil, fmt.Errorf("read %s as %s: %w", name, f.Name(), err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// SupportedExtensions lists the file extensions the registry understands.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".xlsx", ".json", ".yaml", ".yml"}
}

func init() {
	RegisterFormat(delimitedFormat{name: "csv", ext: ".csv", comma: ','})
	RegisterFormat(delimitedFormat{name: "tsv", ext: ".tsv", comma: '\t'})
	RegisterFormat(xlsxFormat{})
	RegisterFormat(jsonFormat{})
	RegisterFormat(yamlFormat{})
}
