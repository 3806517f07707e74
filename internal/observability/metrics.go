package observability

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const namespace = "coursepack"

type Metrics struct {
	reg *prometheus.Registry

	uploads        *prometheus.CounterVec
	uploadLatency  *prometheus.HistogramVec
	uploadStage    *prometheus.HistogramVec
	advisories     *prometheus.CounterVec
	quizzes        *prometheus.CounterVec
	dbOperations   *prometheus.CounterVec
	dbLatency      *prometheus.HistogramVec
	dbConflicts    *prometheus.CounterVec
	dbRetries      *prometheus.CounterVec
	lastSuccessful prometheus.Gauge

	dbStatsOnce sync.Once
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

// Init builds the process-wide metrics set once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized", "namespace", namespace)
		}
	})
	return instance
}

// New returns metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Course uploads by outcome",
		}, []string{"outcome"}),
		uploadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end upload latency by outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		uploadStage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_stage_duration_seconds",
			Help:      "Upload pipeline stage latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		advisories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_advisories_total",
			Help:      "Advisory messages returned to uploaders by level",
		}, []string{"level"}),
		quizzes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_resolutions_total",
			Help:      "Quiz payloads resolved by result",
		}, []string{"result"}),
		dbOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_operations_total",
			Help:      "Transactional writes by operation and status",
		}, []string{"operation", "status"}),
		dbLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Transactional write latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		dbConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_conflicts_total",
			Help:      "Transactional writes that lost a version race",
		}, []string{"operation"}),
		dbRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_retryable_total",
			Help:      "Transactional writes that failed with a retryable error",
		}, []string{"operation"}),
		lastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_upload_timestamp_seconds",
			Help:      "Unix time of the last upload that committed",
		}),
	}
	m.reg.MustRegister(
		m.uploads, m.uploadLatency, m.uploadStage, m.advisories, m.quizzes,
		m.dbOperations, m.dbLatency, m.dbConflicts, m.dbRetries, m.lastSuccessful,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RegisterDBStats exports connection pool stats for db. Later calls are ignored.
func (m *Metrics) RegisterDBStats(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	m.dbStatsOnce.Do(func() {
		m.reg.MustRegister(collectors.NewDBStatsCollector(db, namespace))
	})
}

// WriteTextfile writes the current values in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ObserveUpload records one finished upload. outcome is "ok" or an error code.
func (m *Metrics) ObserveUpload(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.uploads.WithLabelValues(outcome).Inc()
	m.uploadLatency.WithLabelValues(outcome).Observe(dur.Seconds())
	if outcome == "ok" {
		m.lastSuccessful.SetToCurrentTime()
	}
}

func (m *Metrics) ObserveUploadStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.uploadStage.WithLabelValues(stage, status).Observe(dur.Seconds())
}

func (m *Metrics) AddAdvisories(level string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.advisories.WithLabelValues(level).Add(float64(n))
}

// IncQuizResolution counts a quiz payload that was "created" or "reused".
func (m *Metrics) IncQuizResolution(result string) {
	if m == nil {
		return
	}
	m.quizzes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.dbOperations.WithLabelValues(name, status).Inc()
	m.dbLatency.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncConflict(name string) {
	if m == nil {
		return
	}
	m.dbConflicts.WithLabelValues(name).Inc()
}

func (m *Metrics) IncRetry(name string) {
	if m == nil {
		return
	}
	m.dbRetries.WithLabelValues(name).Inc()
}
