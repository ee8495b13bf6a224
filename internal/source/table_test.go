package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// buildXLSX writes a minimal workbook with shared and inline strings.
func buildXLSX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0"?><workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Measurements" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0"?><Relationships>` +
			`<Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0"?><sst><si><t>group_name</t></si><si><t>animal_name</t></si>` +
			`<si><t>measurement_day</t></si><si><t>measurement_value</t></si><si><t>G1</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0"?><worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c><c r="D1" t="s"><v>3</v></c></row>` +
			`<row r="2"><c r="A2" t="s"><v>4</v></c><c r="B2" t="inlineStr"><is><t>a1</t></is></c><c r="C2"><v>0</v></c><c r="D2"><v>101.5</v></c></row>` +
			`<row r="3"><c r="A3" t="s"><v>4</v></c><c r="B3" t="inlineStr"><is><t>a1</t></is></c><c r="D3"><v>150</v></c><c r="C3"><v>7</v></c></row>` +
			`</sheetData></worksheet>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadTableFormats(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "a.csv", []byte("\xef\xbb\xbfgroup_name,animal_name\nG1,a1\n\n G2, a2\n"))
	tsvPath := writeFile(t, dir, "a.tsv", []byte("group_name\tanimal_name\nG1\ta1\n"))
	jsonPath := writeFile(t, dir, "a.json", []byte(`[{"group_name":"G1","animal_name":"a1","is_control":1}]`))
	yamlPath := writeFile(t, dir, "a.yaml", []byte("- group_name: G1\n  animal_name: a1\n  is_control: true\n"))
	xlsxPath := writeFile(t, dir, "m.xlsx", buildXLSX(t))

	tb, err := ReadTable(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"group_name", "animal_name"}, tb.Header)
	assert.Equal(t, [][]string{{"G1", "a1"}, {"G2", "a2"}}, tb.Rows)

	tb, err = ReadTable(tsvPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"G1", "a1"}}, tb.Rows)

	tb, err = ReadTable(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"animal_name", "group_name", "is_control"}, tb.Header)
	assert.Equal(t, [][]string{{"a1", "G1", "1"}}, tb.Rows)

	tb, err = ReadTable(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a1", "G1", "true"}}, tb.Rows)

	tb, err = ReadTable(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"group_name", "animal_name", "measurement_day", "measurement_value"}, tb.Header)
	assert.Equal(t, [][]string{{"G1", "a1", "0", "101.5"}, {"G1", "a1", "7", "150"}}, tb.Rows)

	_, err = ReadTable(writeFile(t, dir, "a.docx", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadWorkbookSheetMissing(t *testing.T) {
	_, err := ReadWorkbookSheet("m.xlsx", buildXLSX(t), "Treatments")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Measurements")
}

func TestColumnIndex(t *testing.T) {
	assert.Equal(t, 0, columnIndex("A1"))
	assert.Equal(t, 27, columnIndex("AB3"))
	assert.Equal(t, -1, columnIndex("12"))
}

func TestDecodeMeasurementsErrors(t *testing.T) {
	tb := &Table{Name: "m.csv", Header: []string{"group_name", "animal_name", "measurement_day", "measurement_value"}}
	tb.Rows = [][]string{{"G", "a", "7.0", "10"}}
	recs, err := DecodeMeasurements(tb, DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, 7, recs[0].Day)

	tb.Rows = [][]string{{"G", "a", "0", "10"}, {"G", "a", "3.5", "10"}}
	_, err = DecodeMeasurements(tb, DefaultFilter())
	var re *RowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Row)
	assert.Equal(t, "measurement_day", re.Column)
	assert.ErrorIs(t, err, study.ErrInvalidRecord)

	tb.Rows = [][]string{{"G", "a", "1", "NaN"}}
	_, err = DecodeMeasurements(tb, DefaultFilter())
	assert.ErrorIs(t, err, study.ErrInvalidRecord)

	_, err = DecodeMeasurements(&Table{Name: "x", Header: []string{"group_name"}}, Filter{})
	assert.ErrorIs(t, err, study.ErrInvalidRecord)
}

func TestDecodeMeasurementsFilter(t *testing.T) {
	tb := &Table{
		Name:   "m.csv",
		Header: []string{"group_name", "animal_name", "measurement_day", "measurement_value", "activity", "measurement_units"},
		Rows: [][]string{
			{"G", "a", "0", "10", "Caliper - Tumor measurements", "mm3"},
			{"G", "a", "0", "22", "Body weight", "g"},
			{"G", "a", "3", "12", "Caliper - Tumor measurements (trilogy)", "mm3"},
		},
	}
	recs, err := DecodeMeasurements(tb, DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestDecodeTreatmentsBlankAmount(t *testing.T) {
	tb := &Table{
		Name:   "t.csv",
		Header: []string{"group_name", "animal_name", "treatment_day", "dose_activity", "test_material_amount", "administration_route_units"},
		Rows: [][]string{
			{"1", "v1", "0", "Vehicle", "", "mL/kg"},
			{"1", "v2", "0", "Vehicle", "NULL", "mL/kg"},
			{"2", "d1", "0", "Drug", "12.5", "mg/kg"},
		},
	}
	recs, err := DecodeTreatments(tb)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, math.IsNaN(recs[0].Amount))
	assert.True(t, math.IsNaN(recs[1].Amount))
	assert.Equal(t, 12.5, recs[2].Amount)

	tb.Rows = [][]string{{"1", "v1", "0", "Vehicle", "lots", "mL/kg"}}
	_, err = DecodeTreatments(tb)
	var re *RowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "test_material_amount", re.Column)
	assert.ErrorIs(t, err, study.ErrInvalidRecord)
}

func TestDecodeGroupLabels(t *testing.T) {
	tb := &Table{
		Name:   "g.csv",
		Header: []string{"Group_Name", "curated_group_name", "drug", "recist", "is_control", "color"},
		Rows: [][]string{
			{"1", "Vehicle", "", "PD", "1", "null"},
			{"2", "", "A + B", "", "no", "#ff0000"},
		},
	}
	recs, err := DecodeGroupLabels(tb)
	require.NoError(t, err)
	assert.Equal(t, study.GroupLabel{GroupName: "1", CuratedName: "Vehicle", Recist: "PD", IsControl: true}, recs[0])
	assert.Equal(t, "#ff0000", recs[1].Color)
	assert.False(t, recs[1].IsControl)

	tb.Rows = [][]string{{"1", "", "", "", "maybe", ""}}
	_, err = DecodeGroupLabels(tb)
	assert.ErrorIs(t, err, study.ErrInvalidRecord)
}

func TestLoadFilesAndWorkspaceSource(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	animals := writeFile(t, dataDir, "animals.csv", []byte("group_name,animal_name\nG1,a1\nG2,b1\n"))
	meas := writeFile(t, dataDir, "meas.csv", []byte("group_name,animal_name,measurement_day,measurement_value\nG1,a1,0,100\nG1,a1,7,150\nG2,b1,0,100\nG2,b1,7,50\n"))
	treat := writeFile(t, dataDir, "treat.tsv", []byte("group_name\tanimal_name\ttreatment_day\tdose_activity\ttest_material_amount\tadministration_route_units\nG2\tb1\t0\tX dosing\t5\tmg/kg\n"))
	groups := writeFile(t, dataDir, "groups.yaml", []byte("- group_name: G1\n  is_control: 1\n  curated_group_name: Vehicle\n- group_name: G2\n  drug: X\n"))

	root := t.TempDir()
	ws := workspace.New("study-a", "", filepath.Join(root, "study-a"))
	ws.Study.CuratedName = "Study A"
	for path, role := range map[string]workspace.Role{
		animals: workspace.RoleAnimals, meas: workspace.RoleMeasurements,
		treat: workspace.RoleTreatments, groups: workspace.RoleGroups,
	} {
		n, err := CountRows(path, role, DefaultFilter())
		require.NoError(t, err)
		f, err := ws.AddFile(path, role, "")
		require.NoError(t, err)
		f.Rows = n
	}
	require.NoError(t, ws.Save())

	src := NewWorkspaceSource(root, DefaultFilter())
	in, err := src.Load(ctx, "study-a")
	require.NoError(t, err)
	assert.Equal(t, "Study A", in.Study.CuratedName)
	assert.Len(t, in.Measurements, 4)

	st, err := study.Normalize(*in, study.Options{})
	require.NoError(t, err)
	g2, _ := st.Group("G2")
	assert.Equal(t, "X (5 mg/kg)", g2.Label)
	assert.Equal(t, "Vehicle", st.Control().Label)

	infos, err := src.ListStudies(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "study-a", infos[0].StudyNumber)

	_, err = src.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrStudyNotFound)
	_, err = src.Load(ctx, "../study-a")
	assert.ErrorIs(t, err, ErrStudyNotFound)
}

func TestLoadFilesRequiresAnimals(t *testing.T) {
	_, err := LoadFiles(context.Background(), FileSet{}, DefaultFilter())
	assert.ErrorIs(t, err, study.ErrInvalidRecord)
}
