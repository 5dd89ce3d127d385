package scan

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"sentinelscan/internal/detect"
	"sentinelscan/internal/metrics"
	"sentinelscan/internal/model"
	"sentinelscan/internal/store"
	"sentinelscan/internal/telemetry"

	"github.com/google/uuid"
)

// Source labels used for reports whose origin is not a repository URL.
const (
	SourceUpload = "file_upload"
)

// Notifier is told about every completed scan.
type Notifier interface {
	NotifyReport(ctx context.Context, report *model.ScanReport) error
}

// Aggregator runs the detection engine over a file list and stores the report.
type Aggregator struct {
	engine   *detect.Engine
	store    store.Store
	metrics  *metrics.Metrics
	notifier Notifier
	workers  int

	now   func() time.Time
	newID func() string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(a *Aggregator) { a.newID = gen }
}

// NewAggregator creates an Aggregator that saves reports into st.
func NewAggregator(st store.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		engine:  detect.NewEngine(),
		store:   st,
		workers: runtime.NumCPU(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   NewScanID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewScanID returns a 12 character hex token.
func NewScanID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

type fileResult struct {
	findings []model.Finding
	decoded  bool
}

// Scan runs every detector over files and stores the completed report.
// Findings keep the order of files; within a file, the engine order.
func (a *Aggregator) Scan(ctx context.Context, source string, files []File) (*model.ScanReport, error) {
	start := time.Now()
	id := a.newID()
	telemetry.LogInfo("Scan started", "scan_id", id, "source", source, "files", len(files))

	results := make([]fileResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(a.workers, len(files))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.scanFile(id, files[i])
			}
		}()
	}

	var cancelled error
feed:
	for i := range files {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, fmt.Errorf("scan %s cancelled: %w", id, cancelled)
	}

	findings := []model.Finding{}
	scanned := 0
	for _, r := range results {
		if !r.decoded {
			continue
		}
		scanned++
		findings = append(findings, r.findings...)
	}

	report := model.NewCompletedReport(id, source, scanned, findings, a.now())
	if err := a.store.Put(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report %s: %w", id, err)
	}

	if a.metrics != nil {
		a.metrics.FilesSkipped.Add(float64(len(files) - scanned))
		a.metrics.ObserveReport(report, time.Since(start))
	}

	telemetry.LogInfo("Scan completed",
		"scan_id", id,
		"source", source,
		"files_scanned", scanned,
		"total", report.Summary.Total,
		"high", report.Summary.High,
		"medium", report.Summary.Medium,
		"low", report.Summary.Low,
	)

	if a.notifier != nil {
		if err := a.notifier.NotifyReport(ctx, report); err != nil {
			telemetry.LogError("Failed to send scan notification", err, "scan_id", id)
		}
	}
	return report, nil
}

func (a *Aggregator) scanFile(id string, f File) fileResult {
	text, ok := decode(f.Content)
	if !ok {
		telemetry.LogDebug("Skipping undecodable file", "scan_id", id, "file", f.Path)
		return fileResult{}
	}
	src := detect.NewSource(f.Path, text)
	findings := a.engine.DetectSource(src)
	if reason, fellBack := src.StructuralFallback(); fellBack {
		telemetry.LogDebug("Parse failed, using line patterns only", "scan_id", id, "file", f.Path, "reason", reason)
		if a.metrics != nil {
			a.metrics.ParseFallback.Inc()
		}
	}
	return fileResult{findings: findings, decoded: true}
}

// Fail stores an error report for a scan that could not be performed.
func (a *Aggregator) Fail(ctx context.Context, source string, cause error) (*model.ScanReport, error) {
	report := model.NewErrorReport(a.newID(), source, a.now())
	if err := a.store.Put(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report %s: %w", report.ScanID, err)
	}
	if a.metrics != nil {
		a.metrics.ObserveReport(report, 0)
	}
	telemetry.LogError("Scan failed", cause, "scan_id", report.ScanID, "source", source)
	return report, nil
}
