package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

type fakeSource map[string]study.Input

func (f fakeSource) Load(_ context.Context, id string) (*study.Input, error) {
	in, ok := f[id]
	if !ok {
		return nil, source.ErrStudyNotFound
	}
	return &in, nil
}

func (f fakeSource) ListStudies(context.Context) ([]study.Info, error) {
	return []study.Info{f["S-1"].Study}, nil
}

func goodInput() study.Input {
	m := func(g, a string, day int, v float64) study.Measurement {
		return study.Measurement{GroupName: g, AnimalName: a, Day: day, Value: v}
	}
	return study.Input{
		Study: study.Info{StudyNumber: "S-1", CuratedName: "Model X"},
		Animals: []study.AnimalSeed{
			{GroupName: "Tx", AnimalName: "t1"}, {GroupName: "Ctrl", AnimalName: "c1"},
		},
		Measurements: []study.Measurement{
			m("Ctrl", "c1", 0, 100), m("Ctrl", "c1", 7, 300),
			m("Tx", "t1", 0, 100), m("Tx", "t1", 7, 90),
		},
		GroupLabels: []study.GroupLabel{
			{GroupName: "Ctrl", CuratedName: "Vehicle", IsControl: true},
			{GroupName: "Tx", CuratedName: "Drug"},
			{GroupName: "Tx", CuratedName: "Duplicate"},
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Metrics) {
	t.Helper()
	bad := goodInput()
	bad.Measurements = append(bad.Measurements, study.Measurement{GroupName: "Tx", AnimalName: "ghost", Day: 1, Value: 5})
	m := NewMetrics()
	srv := New(Options{
		Source:  fakeSource{"S-1": goodInput(), "BAD": bad},
		Logger:  zerolog.Nop(),
		Metrics: m,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, m
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestStudyEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get(t, ts.URL+"/studies")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"study_number":"S-1","curated_study_name":"Model X"}]`, body)

	code, body = get(t, ts.URL+"/studies/S-1")
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Groups []struct {
			Name      string `json:"group_name"`
			Label     string `json:"group_label"`
			IsControl bool   `json:"is_control"`
		} `json:"groups"`
		Diagnostics []study.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Ctrl", view.Groups[0].Name)
	assert.True(t, view.Groups[0].IsControl)
	assert.Equal(t, "Drug", view.Groups[1].Label)
	require.Len(t, view.Diagnostics, 1)
	assert.Equal(t, study.DuplicateGroupLabel, view.Diagnostics[0].Kind)

	code, body = get(t, ts.URL+"/studies/S-1/report")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(body, "[STUDY SUMMARY]\n"))
}

func TestChartEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/studies/S-1/charts/waterfall?metric=fold")
	require.Equal(t, http.StatusOK, code)
	var wf struct {
		Metric string `json:"metric"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &wf))
	assert.Equal(t, "fold", wf.Metric)

	for _, kind := range []string{"treatment-groups?mode=rel-change", "spider", "tgi", "recist"} {
		code, _ := get(t, ts.URL+"/studies/S-1/charts/"+kind)
		assert.Equal(t, http.StatusOK, code, kind)
	}

	code, _ = get(t, ts.URL+"/studies/S-1/charts/pie")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, ts.URL+"/studies/S-1/charts/waterfall?metric=median")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestErrorStatuses(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/studies/NOPE")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "study not found")

	code, _ = get(t, ts.URL+"/studies/BAD/report")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = get(t, ts.URL+"/studies/S-1")
	assert.Equal(t, http.StatusOK, code)
	resp, err := http.Post(ts.URL+"/studies/S-1", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	ts, _ := newTestServer(t)
	get(t, ts.URL+"/studies/S-1")
	get(t, ts.URL+"/studies/S-1/charts/tgi")
	get(t, ts.URL+"/studies/NOPE")
	get(t, ts.URL+"/studies/BAD")

	code, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `socstudy_study_loads_total{result="ok"} 2`)
	assert.Contains(t, body, `socstudy_study_loads_total{result="not_found"} 1`)
	assert.Contains(t, body, `socstudy_study_loads_total{result="invalid"} 1`)
	assert.Contains(t, body, `socstudy_diagnostics_total{kind="duplicate_group_label"} 2`)
	assert.Contains(t, body, "socstudy_normalize_duration_seconds_count 3")
}

func TestStrictPolicyIsUnprocessable(t *testing.T) {
	in := goodInput()
	in.GroupLabels[1].IsControl = true
	srv := New(Options{Source: fakeSource{"S-1": in}, Policy: study.ControlStrict, Logger: zerolog.Nop()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/studies/S-1", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(Options{Source: fakeSource{}, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	code, _ := get(t, "http://"+ln.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, code)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
