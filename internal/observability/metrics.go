package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter
	apiReqGood  *Counter

	pipelineOps       *CounterVec
	pipelineOpLatency *HistogramVec
	pipelineConflicts *CounterVec
	pipelineRetries   *CounterVec
	pipelineOpTotal   *Counter
	pipelineOpError   *Counter

	searchRequests *CounterVec
	searchLatency  *HistogramVec
	searchTotal    *Counter
	searchError    *Counter

	chunkstoreOps     *CounterVec
	chunkstoreLatency *HistogramVec
	chunkstoreTotal   *Counter
	chunkstoreError   *Counter

	storeProviderActive *GaugeVec
	storeBootstraps     *CounterVec

	documentsIngested *Counter
	chunksIngested    *Counter

	eventsPublished *CounterVec

	sloCompliance *GaugeVec
	sloBudget     *GaugeVec
	sloBurn       *GaugeVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	apiGoodLatency float64
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("rh_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec(
				"rh_api_request_duration_seconds",
				"API request latency in seconds by method/route/status.",
				[]string{"method", "route", "status"},
				[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			),
			apiInflight: NewGauge("rh_api_inflight_requests", "In-flight API requests."),
			apiReqTotal: NewCounter("rh_api_requests_total_all", "Total API requests (all)."),
			apiReqError: NewCounter("rh_api_requests_error_total", "Total API requests with 5xx status."),
			apiReqGood:  NewCounter("rh_api_requests_good_total", "Total API requests under the latency objective."),
			pipelineOps: NewCounterVec(
				"rh_pipeline_operations_total",
				"Pipeline aggregate operations by op/status.",
				[]string{"op", "status"},
			),
			pipelineOpLatency: NewHistogramVec(
				"rh_pipeline_operation_duration_seconds",
				"Pipeline aggregate operation latency in seconds by op/status.",
				[]string{"op", "status"},
				[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			),
			pipelineConflicts: NewCounterVec(
				"rh_pipeline_conflicts_total",
				"Pipeline aggregate conflicts by op.",
				[]string{"op"},
			),
			pipelineRetries: NewCounterVec(
				"rh_pipeline_retryable_total",
				"Pipeline aggregate retryable failures by op.",
				[]string{"op"},
			),
			pipelineOpTotal: NewCounter("rh_pipeline_operations_total_all", "Total pipeline aggregate operations (all)."),
			pipelineOpError: NewCounter("rh_pipeline_operations_unexpected_total", "Pipeline aggregate operations failing for non-client reasons."),
			searchRequests: NewCounterVec(
				"rh_search_requests_total",
				"Knowledge search requests by status.",
				[]string{"status"},
			),
			searchLatency: NewHistogramVec(
				"rh_search_request_duration_seconds",
				"Knowledge search latency in seconds by status.",
				[]string{"status"},
				[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			),
			searchTotal: NewCounter("rh_search_requests_total_all", "Total knowledge search requests (all)."),
			searchError: NewCounter("rh_search_requests_error_total", "Total knowledge search requests that failed."),
			chunkstoreOps: NewCounterVec(
				"rh_chunkstore_operations_total",
				"Chunk store operations by op/status.",
				[]string{"op", "status"},
			),
			chunkstoreLatency: NewHistogramVec(
				"rh_chunkstore_operation_duration_seconds",
				"Chunk store operation latency in seconds by op/status.",
				[]string{"op", "status"},
				[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			),
			chunkstoreTotal: NewCounter("rh_chunkstore_operations_total_all", "Total chunk store operations (all)."),
			chunkstoreError: NewCounter("rh_chunkstore_operations_error_total", "Total chunk store operations that failed."),
			storeProviderActive: NewGaugeVec(
				"rh_chunkstore_provider_active",
				"Active chunk store provider (1=active).",
				[]string{"provider"},
			),
			storeBootstraps: NewCounterVec(
				"rh_chunkstore_provider_bootstrap_total",
				"Chunk store provider bootstrap attempts by provider/status/code.",
				[]string{"provider", "status", "code"},
			),
			documentsIngested: NewCounter("rh_documents_ingested_total", "Documents ingested into agent collections."),
			chunksIngested:    NewCounter("rh_chunks_ingested_total", "Chunks upserted into agent collections."),
			eventsPublished: NewCounterVec(
				"rh_pipeline_events_published_total",
				"Pipeline events published by type/status.",
				[]string{"type", "status"},
			),
			sloCompliance: NewGaugeVec("rh_slo_compliance_ratio", "SLO compliance (SLI) by objective/window.", []string{"slo", "window"}),
			sloBudget:     NewGaugeVec("rh_slo_error_budget_remaining_ratio", "SLO error budget remaining by objective/window.", []string{"slo", "window"}),
			sloBurn:       NewGaugeVec("rh_slo_burn_rate", "SLO burn rate by objective/window.", []string{"slo", "window"}),
			pgStats:       NewGaugeVec("rh_postgres_stats", "Postgres connection stats.", []string{"metric"}),
			redisUp:       NewGauge("rh_redis_up", "Redis connectivity (1=up, 0=down)."),
			redisPing:     NewGauge("rh_redis_ping_seconds", "Redis ping latency in seconds."),

			apiGoodLatency: parseFloat("SLO_API_LATENCY_GOOD_SECONDS", 1.0),
		}
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	if err := m.apiRequests.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.apiLatency.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.apiInflight.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.apiReqTotal.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.apiReqError.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.apiReqGood.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineOps.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineOpLatency.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineConflicts.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineRetries.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineOpTotal.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pipelineOpError.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.searchRequests.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.searchLatency.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.searchTotal.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.searchError.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.chunkstoreOps.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.chunkstoreLatency.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.chunkstoreTotal.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.chunkstoreError.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.storeProviderActive.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.storeBootstraps.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.documentsIngested.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.chunksIngested.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.eventsPublished.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.sloCompliance.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.sloBudget.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.sloBurn.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.pgStats.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.redisUp.WritePrometheus(w); err != nil {
		return err
	}
	return m.redisPing.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	} else if dur.Seconds() <= m.apiGoodLatency {
		m.apiReqGood.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.pipelineOps.Inc(name, status)
	if dur > 0 {
		m.pipelineOpLatency.Observe(dur.Seconds(), name, status)
	}
	m.pipelineOpTotal.Inc()
	if isUnexpectedOpStatus(status) {
		m.pipelineOpError.Inc()
	}
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	m.pipelineConflicts.Inc(name)
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	m.pipelineRetries.Inc(name)
}

func (m *Metrics) ObserveSearch(status string, dur time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.searchRequests.Inc(status)
	if dur > 0 {
		m.searchLatency.Observe(dur.Seconds(), status)
	}
	m.searchTotal.Inc()
	if status == "error" {
		m.searchError.Inc()
	}
}

func (m *Metrics) ObserveChunkStoreOp(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.chunkstoreOps.Inc(op, status)
	if dur > 0 {
		m.chunkstoreLatency.Observe(dur.Seconds(), op, status)
	}
	m.chunkstoreTotal.Inc()
	if status == "error" {
		m.chunkstoreError.Inc()
	}
}

// SetChunkStoreProvider marks which retrieval provider is live. Earlier
// selections are not cleared; only the latest provider reads 1.
func (m *Metrics) SetChunkStoreProvider(provider string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	m.storeProviderActive.Set(1, provider)
}

func (m *Metrics) ObserveChunkStoreBootstrap(provider, status, code string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if code == "" {
		code = "none"
	}
	m.storeBootstraps.Inc(provider, status, code)
}

func (m *Metrics) IncDocumentsIngested() {
	if m == nil {
		return
	}
	m.documentsIngested.Inc()
}

func (m *Metrics) AddChunksIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksIngested.Add(float64(n))
}

func (m *Metrics) IncEventPublished(eventType, status string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.eventsPublished.Inc(eventType, status)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// ---- lightweight metric primitives (Prometheus exposition) ----

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type GaugeVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	lbl := labelString(g.labelNames, values)
	g.mu.Lock()
	g.values[lbl] = v
	g.mu.Unlock()
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for k, v := range g.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", g.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}

func isUnexpectedOpStatus(status string) bool {
	switch status {
	case "internal", "retryable", "dependency", "error":
		return true
	}
	return false
}

