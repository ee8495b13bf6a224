// Package server exposes studies, reports and chart data over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/socstudy-cli/internal/charts"
	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/report"
	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// Options configure a Server.
type Options struct {
	Source  source.Source
	Policy  study.ControlPolicy
	Palette []string
	Logger  zerolog.Logger
	Metrics *Metrics
}

// Server is stateless between requests: each request loads and normalizes
// its study from the source.
type Server struct {
	src     source.Source
	policy  study.ControlPolicy
	palette []string
	log     zerolog.Logger
	metrics *Metrics
	mux     *http.ServeMux
}

func New(opts Options) *Server {
	s := &Server{
		src:     opts.Source,
		policy:  opts.Policy,
		palette: opts.Palette,
		log:     opts.Logger,
		metrics: opts.Metrics,
		mux:     http.NewServeMux(),
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /studies", s.handleStudies)
	s.mux.HandleFunc("GET /studies/{id}", s.handleStudy)
	s.mux.HandleFunc("GET /studies/{id}/report", s.handleReport)
	s.mux.HandleFunc("GET /studies/{id}/charts/{kind}", s.handleChart)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// load fetches and normalizes one study, recording metrics.
func (s *Server) load(ctx context.Context, id string) (*study.Study, error) {
	in, err := s.src.Load(ctx, id)
	if err != nil {
		s.metrics.Loads.WithLabelValues(loadResult(err)).Inc()
		return nil, err
	}
	start := time.Now()
	st, err := study.Normalize(*in, study.Options{
		Logger:        s.log.With().Str("study", id).Logger(),
		ControlPolicy: s.policy,
	})
	s.metrics.Normalize.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Loads.WithLabelValues(loadResult(err)).Inc()
		return nil, err
	}
	s.metrics.Loads.WithLabelValues("ok").Inc()
	for _, d := range st.Diagnostics {
		s.metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
	return st, nil
}

func loadResult(err error) string {
	switch {
	case errors.Is(err, source.ErrStudyNotFound):
		return "not_found"
	case errors.Is(err, study.ErrInvalidRecord), errors.Is(err, study.ErrAmbiguousControl):
		return "invalid"
	default:
		return "error"
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrStudyNotFound):
		return http.StatusNotFound
	case errors.Is(err, study.ErrInvalidRecord), errors.Is(err, study.ErrAmbiguousControl):
		return http.StatusUnprocessableEntity
	case errors.Is(err, charts.ErrUnknownKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStudies(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.src.(source.Lister)
	if !ok {
		s.writeJSON(w, http.StatusNotImplemented, errorBody{Error: "source cannot list studies"})
		return
	}
	infos, err := lister.ListStudies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dto.StudyInfoView, 0, len(infos))
	for _, info := range infos {
		out = append(out, dto.NewStudyInfoView(info))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	st, err := s.load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewStudyView(st, s.palette))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	st, err := s.load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.Markdown(st, s.palette)))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := charts.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	var visible []string
	if v := q.Get("visible"); v != "" {
		visible = strings.Split(v, ",")
	}
	out, err := charts.Build(st, charts.Request{
		Kind:    kind,
		Metric:  charts.WaterfallMetric(q.Get("metric")),
		Mode:    charts.TreatmentMode(q.Get("mode")),
		Palette: s.palette,
		Visible: visible,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}
