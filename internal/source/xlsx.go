package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// xlsxFormat reads the first worksheet of an Office Open XML workbook.
type xlsxFormat struct{}

func (xlsxFormat) Name() string { return "xlsx" }

func (xlsxFormat) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxFormat) Read(name string, data []byte) (*Table, error) {
	return ReadWorkbookSheet(name, data, "")
}

// ReadWorkbookSheet reads the named sheet, or the first one when sheet is
// empty.
func ReadWorkbookSheet(name string, data []byte, sheet string) (*Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	entries := workbookSheets(zipEntry(zr, "xl/workbook.xml"))
	targets := workbookRels(zipEntry(zr, "xl/_rels/workbook.xml.rels"))
	if len(entries) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	pick := entries[0]
	if sheet != "" {
		found := false
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.name
			if strings.EqualFold(e.name, sheet) {
				pick, found = e, true
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found (have: %s)", sheet, strings.Join(names, ", "))
		}
	}
	target := "xl/worksheets/sheet1.xml"
	if rel, ok := targets[pick.relID]; ok {
		target = sheetPath(rel)
	}
	sheetXML := zipEntry(zr, target)
	if sheetXML == nil {
		return nil, fmt.Errorf("worksheet %s missing", target)
	}

	rr := &sheetRows{dec: xml.NewDecoder(bytes.NewReader(sheetXML)), shared: sharedStrings(zipEntry(zr, "xl/sharedStrings.xml"))}
	t := &Table{Name: name}
	header, ok := rr.next()
	if !ok {
		return t, nil
	}
	t.Header = header
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type sheetEntry struct {
	name  string
	relID string
}

func workbookSheets(data []byte) []sheetEntry {
	var out []sheetEntry
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var e sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				e.name = a.Value
			case "id":
				e.relID = a.Value
			}
		}
		out = append(out, e)
	}
}

func workbookRels(data []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// sheetPath maps a relationship target to its zip entry name.
func sheetPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

func sharedStrings(data []byte) []string {
	var out []string
	var sb strings.Builder
	inText := false
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "si":
				sb.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, sb.String())
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
}

// sheetRows streams rows out of a worksheet, placing each cell by its
// column reference.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
}

func (r *sheetRows) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "row":
				inRow, row = true, nil
			case inRow && el.Name.Local == "c":
				var ref, typ string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					col = len(row)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = r.cellValue(typ)
			}
		case xml.EndElement:
			if el.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "v" || el.Name.Local == "t" {
				var text string
				if err := r.dec.DecodeElement(&text, &el); err == nil {
					val = text
				}
			}
		case xml.EndElement:
			if el.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || idx < 0 || idx >= len(r.shared) {
					return ""
				}
				return r.shared[idx]
			}
			return val
		}
	}
}

// columnIndex converts "C12" to 2. It returns -1 when ref has no letters.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}
