// Package api exposes the analytics engine over HTTP. Every endpoint is a
// read: the server computes series, trends, correlations and plans from the
// in-memory sample store and returns JSON.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crux-data/vitals.report/internal/config"
	"github.com/crux-data/vitals.report/internal/httputil"
	"github.com/crux-data/vitals.report/internal/monitoring"
	"github.com/crux-data/vitals.report/internal/timeutil"
	"github.com/crux-data/vitals.report/internal/vitals"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	memo    *vitals.Memo
	cfg     *config.Config
	sc      *vitals.Scorer
	clock   timeutil.Clock
	started time.Time
}

func NewServer(store *vitals.Store, cfg *config.Config) *Server {
	return NewServerWithClock(store, cfg, timeutil.RealClock{})
}

func NewServerWithClock(store *vitals.Store, cfg *config.Config, clock timeutil.Clock) *Server {
	return &Server{
		memo:    vitals.NewMemo(store),
		cfg:     cfg,
		sc:      cfg.Scorer(),
		clock:   clock,
		started: clock.Now(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entities", s.listEntities)
	mux.HandleFunc("/api/timeseries", s.showTimeSeries)
	mux.HandleFunc("/api/trend", s.showTrend)
	mux.HandleFunc("/api/scores", s.showScores)
	mux.HandleFunc("/api/correlations", s.showCorrelations)
	mux.HandleFunc("/api/plan", s.showPlan)
	mux.HandleFunc("/api/group", s.showGroupSeries)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/health", s.showHealth)
	return mux
}

type groupSeriesResponse struct {
	Group    string            `json:"group"`
	Entities []string          `json:"entities"`
	Variant  vitals.Variant    `json:"variant"`
	Series   vitals.TimeSeries `json:"series"`
	Average  float64           `json:"average"`
	Trend    vitals.Trend      `json:"trend"`
}

// showGroupSeries averages the imputed composite score across every entity
// in a configured group, per day and over the whole window.
func (s *Server) showGroupSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	group := r.URL.Query().Get("group")
	if group == "" {
		httputil.BadRequest(w, "missing 'group' parameter")
		return
	}
	entities := s.cfg.EntitiesInGroup(group)
	if len(entities) == 0 {
		httputil.NotFound(w, fmt.Sprintf("unknown group %q", group))
		return
	}
	sel, ok := s.rangeParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	st := s.memo.Store()
	dates := s.memo.Resolve(sel)
	series := st.GroupSeries(entities, variant, vitals.MetricScore, dates)
	httputil.WriteJSON(w, http.StatusOK, groupSeriesResponse{
		Group:    group,
		Entities: entities,
		Variant:  variant,
		Series:   series,
		Average:  st.GroupAverage(entities, variant, vitals.MetricScore, dates),
		Trend:    vitals.AnalyzeTrend(series.Values()),
	})
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	st := s.memo.Store()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": s.clock.Since(s.started).Seconds(),
		"entities":       len(st.Entities()),
		"days":           len(st.Calendar()),
		"last_date":      st.LastDate(),
	})
}

// variantParam returns the requested variant, falling back to the configured
// default.
func (s *Server) variantParam(r *http.Request) vitals.Variant {
	if v := r.URL.Query().Get("variant"); v != "" {
		return vitals.Variant(v)
	}
	return s.cfg.GetDefaultVariant()
}

// entityParam validates the required entity query parameter against the
// store. Writes a response and returns false when the entity is missing or
// unknown.
func (s *Server) entityParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		httputil.BadRequest(w, "missing 'entity' parameter")
		return "", false
	}
	for _, e := range s.memo.Store().Entities() {
		if e == entity {
			return entity, true
		}
	}
	httputil.NotFound(w, fmt.Sprintf("unknown entity %q", entity))
	return "", false
}

// metricParam validates the metric query parameter. defaultMetric is used
// when the parameter is absent.
func metricParam(w http.ResponseWriter, r *http.Request, defaultMetric vitals.Metric) (vitals.Metric, bool) {
	raw := r.URL.Query().Get("metric")
	if raw == "" {
		return defaultMetric, true
	}
	m := vitals.Metric(raw)
	if m != vitals.MetricScore && !vitals.IsSubMetric(m) {
		httputil.BadRequest(w, fmt.Sprintf("unknown metric %q", raw))
		return "", false
	}
	return m, true
}

// rangeParam builds a date selector from the query string. Priority order:
// explicit start/end pair, single date, named trailing range. With nothing
// given the selector covers all history up to the newest sample.
func (s *Server) rangeParam(w http.ResponseWriter, r *http.Request) (vitals.RangeSelector, bool) {
	q := r.URL.Query()
	anchor := s.memo.Store().LastDate()

	if start, end := q.Get("start"), q.Get("end"); start != "" || end != "" {
		sd, err := vitals.ParseDate(start)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'start' date: %v", err))
			return vitals.RangeSelector{}, false
		}
		ed, err := vitals.ParseDate(end)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'end' date: %v", err))
			return vitals.RangeSelector{}, false
		}
		if string(ed) < string(sd) {
			httputil.BadRequest(w, "'end' date precedes 'start' date")
			return vitals.RangeSelector{}, false
		}
		return vitals.Between(sd, ed), true
	}

	if date := q.Get("date"); date != "" {
		d, err := vitals.ParseDate(date)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'date': %v", err))
			return vitals.RangeSelector{}, false
		}
		return vitals.SingleDay(d), true
	}

	switch rng := q.Get("range"); rng {
	case "", "all":
		return vitals.All(anchor), true
	case "week", "month", "year":
		unit, err := vitals.ParseRangeUnit(rng)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return vitals.RangeSelector{}, false
		}
		return vitals.Trailing(unit, anchor), true
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown range %q", rng))
		return vitals.RangeSelector{}, false
	}
}

// listEntities returns every entity in the store with its configured group.
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	type entityInfo struct {
		Name  string `json:"name"`
		Group string `json:"group,omitempty"`
	}
	names := s.memo.Store().Entities()
	entities := make([]entityInfo, len(names))
	for i, name := range names {
		entities[i] = entityInfo{Name: name, Group: s.cfg.GroupOf(name)}
	}
	httputil.WriteJSON(w, http.StatusOK, entities)
}

type timeSeriesResponse struct {
	Entity  string            `json:"entity"`
	Variant vitals.Variant    `json:"variant"`
	Metric  vitals.Metric     `json:"metric"`
	Series  vitals.TimeSeries `json:"series"`
}

// seriesFor returns the imputed series for metric: score-space directly for
// the composite score, through the scoring curve for sub-metrics.
func (s *Server) seriesFor(entity string, variant vitals.Variant, metric vitals.Metric, sel vitals.RangeSelector) vitals.TimeSeries {
	if vitals.IsSubMetric(metric) {
		return s.memo.SubScoreSeries(s.sc, entity, variant, metric, sel)
	}
	return s.memo.Series(entity, variant, metric, sel)
}

func (s *Server) showTimeSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	entity, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	metric, ok := metricParam(w, r, vitals.MetricScore)
	if !ok {
		return
	}
	sel, ok := s.rangeParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	httputil.WriteJSON(w, http.StatusOK, timeSeriesResponse{
		Entity:  entity,
		Variant: variant,
		Metric:  metric,
		Series:  s.seriesFor(entity, variant, metric, sel),
	})
}

type trendResponse struct {
	timeSeriesResponse
	Trend vitals.Trend `json:"trend"`
}

func (s *Server) showTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	entity, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	metric, ok := metricParam(w, r, vitals.MetricScore)
	if !ok {
		return
	}
	sel, ok := s.rangeParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	series := s.seriesFor(entity, variant, metric, sel)
	httputil.WriteJSON(w, http.StatusOK, trendResponse{
		timeSeriesResponse: timeSeriesResponse{
			Entity:  entity,
			Variant: variant,
			Metric:  metric,
			Series:  series,
		},
		Trend: vitals.AnalyzeTrend(series.Values()),
	})
}

type scoresResponse struct {
	Entity    string                    `json:"entity"`
	Variant   vitals.Variant            `json:"variant"`
	Date      vitals.Date               `json:"date"`
	Reported  float64                   `json:"reported_score"`
	Composite float64                   `json:"composite_score"`
	SubScores map[vitals.Metric]float64 `json:"sub_scores"`
}

// showScores reports the full score breakdown for one entity on one day:
// the reported composite score, the composite recomputed from sub-scores,
// and every sub-metric's sub-score, all imputed where the day has no sample.
func (s *Server) showScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	entity, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	date := s.memo.Store().LastDate()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := vitals.ParseDate(raw)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'date': %v", err))
			return
		}
		date = d
	}

	st := s.memo.Store()
	subScores := make(map[vitals.Metric]float64, len(vitals.SubMetrics))
	for _, m := range vitals.SubMetrics {
		subScores[m] = st.ImputeSubScore(s.sc, entity, variant, m, date)
	}
	httputil.WriteJSON(w, http.StatusOK, scoresResponse{
		Entity:    entity,
		Variant:   variant,
		Date:      date,
		Reported:  st.Impute(entity, variant, vitals.MetricScore, date),
		Composite: s.sc.Composite(subScores),
		SubScores: subScores,
	})
}

type correlationsResponse struct {
	Entity       string                `json:"entity"`
	Variant      vitals.Variant        `json:"variant"`
	Correlations []*vitals.Correlation `json:"correlations"`
}

func (s *Server) showCorrelations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	entity, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	sel, ok := s.rangeParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	dates := s.memo.Resolve(sel)
	httputil.WriteJSON(w, http.StatusOK, correlationsResponse{
		Entity:       entity,
		Variant:      variant,
		Correlations: s.memo.Store().CorrelateAll(s.sc, entity, variant, dates),
	})
}

func (s *Server) showPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	entity, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	sel, ok := s.rangeParam(w, r)
	if !ok {
		return
	}
	variant := s.variantParam(r)

	target, err := strconv.ParseFloat(r.URL.Query().Get("target"), 64)
	if err != nil || target < 0 || target > 100 {
		httputil.BadRequest(w, "'target' must be a score between 0 and 100")
		return
	}

	st := s.memo.Store()
	dates := s.memo.Resolve(sel)
	if len(dates) == 0 {
		httputil.BadRequest(w, "date range resolves to no dates")
		return
	}
	current := st.Impute(entity, variant, vitals.MetricScore, dates[len(dates)-1])
	correlations := st.CorrelateAll(s.sc, entity, variant, dates)

	httputil.WriteJSON(w, http.StatusOK, vitals.BuildPlan(s.sc, current, target, correlations))
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	weights := make(map[vitals.Metric]float64, len(vitals.SubMetrics))
	good := make(map[vitals.Metric]float64, len(vitals.SubMetrics))
	for _, m := range vitals.SubMetrics {
		weights[m] = s.cfg.GetWeight(m)
		good[m] = s.cfg.GetGood(m)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"default_variant": s.cfg.GetDefaultVariant(),
		"weights":         weights,
		"good_thresholds": good,
	})
}
