package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/KaramelBytes/socstudy-cli/internal/publish"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

func testStudy(t *testing.T) *study.Study {
	t.Helper()
	m := func(g, a string, day int, v float64) study.Measurement {
		return study.Measurement{GroupName: g, AnimalName: a, Day: day, Value: v}
	}
	in := study.Input{
		Study: study.Info{StudyNumber: "TM01", CuratedNumber: "J000100", CuratedName: "PDX 1"},
		Animals: []study.AnimalSeed{
			{GroupName: "Ctrl", AnimalName: "c1"},
			{GroupName: "Tx", AnimalName: "t1"}, {GroupName: "Tx", AnimalName: "t2"},
		},
		Measurements: []study.Measurement{
			m("Ctrl", "c1", 0, 100), m("Ctrl", "c1", 10, 300),
			m("Tx", "t1", 0, 100), m("Tx", "t1", 10, 50),
			m("Tx", "t2", 10, 80),
		},
		Treatments: []study.Treatment{
			{GroupName: "Tx", AnimalName: "t1", Day: 0, DoseActivity: "Tx dosing", Amount: 5, RouteUnits: "mg/kg"},
			{GroupName: "Tx", AnimalName: "t1", Day: 3, DoseActivity: "Tx dosing", Amount: 5, RouteUnits: "mg/kg"},
		},
		GroupLabels: []study.GroupLabel{
			{GroupName: "Ctrl", CuratedName: "Vehicle", IsControl: true, Recist: "PD"},
			{GroupName: "Tx", Drug: "Tx", Recist: "PR"},
		},
	}
	st, err := study.Normalize(in, study.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return st
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestRunCSV(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), testStudy(t), Options{OutDir: dir, RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, res.Paths, 3)
	assert.Empty(t, res.Published)

	animals := readCSV(t, filepath.Join(dir, "animals.csv"))
	require.Len(t, animals, 4)
	assert.Equal(t, "animal_name", animals[0][3])
	assert.Equal(t, []string{"PDX 1", "Ctrl", "Vehicle", "c1", "0", "100", "10", "300", "200", "200", "2", "false", "2"}, animals[1])
	// t2 has no baseline: empty cells, not NaN
	assert.Equal(t, []string{"PDX 1", "Tx", "Tx (5 mg/kg)", "t2", "", "", "10", "80", "", "", "", "false", "1"}, animals[3])

	groups := readCSV(t, filepath.Join(dir, "groups.csv"))
	require.Len(t, groups, 3)
	assert.Equal(t, "Vehicle", groups[1][2])
	assert.Equal(t, "true", groups[1][4])
	assert.Equal(t, "PR", groups[2][5])
	assert.Equal(t, "0;3", groups[2][9])

	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, "J000100", m.Study.CuratedNumber)
	assert.Equal(t, FormatCSV, m.Format)
	assert.Equal(t, 2, m.Groups)
	assert.Equal(t, 3, m.Animals)
	assert.Equal(t, 1, m.Diagnostics)
	require.Len(t, m.Files, 2)
	assert.Equal(t, ManifestFile{Name: "animals.csv", Rows: 3, Bytes: len(mustRead(t, filepath.Join(dir, "animals.csv")))}, m.Files[0])
}

func mustRead(t *testing.T, p string) []byte {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return b
}

func TestRunParquet(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), testStudy(t), Options{OutDir: dir, Format: "PARQUET"})
	require.NoError(t, err)

	data := mustRead(t, filepath.Join(dir, "animals.parquet"))
	require.True(t, len(data) > 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	pr, err := reader.NewParquetReader(parquetbuffer.NewBufferFileFromBytes(data), new(animalRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	n := int(pr.GetNumRows())
	require.Equal(t, 3, n)
	rows := make([]animalRow, n)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "c1", rows[0].Animal)
	assert.Equal(t, 200.0, rows[0].PercentChange)
	require.NotNil(t, rows[0].StartDay)
	assert.Equal(t, int64(0), *rows[0].StartDay)
	assert.Nil(t, rows[2].StartDay)
	assert.True(t, math.IsNaN(rows[2].PercentChange))

	_, err = os.Stat(filepath.Join(dir, "groups.parquet"))
	assert.NoError(t, err)
}

func TestRunPublishes(t *testing.T) {
	store := publish.NewMemory()
	res, err := Run(context.Background(), testStudy(t), Options{OutDir: t.TempDir(), RunID: "r1", Publisher: store})
	require.NoError(t, err)
	require.Len(t, res.Published, 3)

	list, err := store.List(context.Background(), "J000100/r1/")
	require.NoError(t, err)
	var keys []string
	for _, o := range list {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"J000100/r1/animals.csv", "J000100/r1/groups.csv", "J000100/r1/manifest.json"}, keys)
}

func TestRunValidation(t *testing.T) {
	st := testStudy(t)
	_, err := Run(context.Background(), st, Options{})
	assert.Error(t, err)
	_, err = Run(context.Background(), st, Options{OutDir: t.TempDir(), Format: "xml"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, st, Options{OutDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStudyKey(t *testing.T) {
	assert.Equal(t, "J1", StudyKey(study.Info{StudyNumber: "S", CuratedNumber: "J1"}))
	assert.Equal(t, "S_1_a", StudyKey(study.Info{StudyNumber: "S/1 a"}))
	assert.Equal(t, "study", StudyKey(study.Info{}))
	assert.True(t, strings.HasPrefix(StudyKey(study.Info{StudyNumber: "x:y"}), "x_"))
}
