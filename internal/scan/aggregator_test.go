package scan

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"sentinelscan/internal/metrics"
	"sentinelscan/internal/model"
	"sentinelscan/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("scan%08d", n.Add(1)) }
}

type recordingNotifier struct {
	reports []*model.ScanReport
	err     error
}

func (n *recordingNotifier) NotifyReport(_ context.Context, r *model.ScanReport) error {
	n.reports = append(n.reports, r)
	return n.err
}

func newTestAggregator(st store.Store, opts ...Option) *Aggregator {
	base := []Option{WithClock(func() time.Time { return fixedTime }), WithIDGenerator(sequentialIDs())}
	return NewAggregator(st, append(base, opts...)...)
}

func TestAggregatorScan(t *testing.T) {
	st := store.NewMemoryStore()
	agg := newTestAggregator(st, WithWorkers(3))

	files := []File{
		{Path: "db.py", Content: []byte("cursor.execute(\"SELECT * FROM users WHERE id = %s\" % user_id)\n")},
		{Path: "clean.py", Content: []byte("total = 1 + 2\n")},
		{Path: "run.py", Content: []byte("import os\nos.system(cmd)\neval(data)\n")},
		{Path: "config.yml", Content: []byte("api_key: \"abcd1234abcd1234abcd\"\n")},
	}

	report, err := agg.Scan(context.Background(), SourceUpload, files)
	require.NoError(t, err)

	assert.Equal(t, "scan00000001", report.ScanID)
	assert.Equal(t, model.StatusCompleted, report.Status)
	assert.Equal(t, SourceUpload, report.Source)
	assert.Equal(t, 4, report.FilesScanned)
	assert.Equal(t, fixedTime, report.CreatedAt)

	s := report.Summary
	assert.Equal(t, len(report.Vulnerabilities), s.Total)
	assert.Equal(t, s.Total, s.High+s.Medium+s.Low)
	require.NotEmpty(t, report.Vulnerabilities)

	// findings follow input file order
	order := map[string]int{"db.py": 0, "clean.py": 1, "run.py": 2, "config.yml": 3}
	last := -1
	for _, f := range report.Vulnerabilities {
		idx, ok := order[f.File]
		require.True(t, ok, "unexpected file %s", f.File)
		assert.GreaterOrEqual(t, idx, last)
		last = idx
		assert.NotEqual(t, "clean.py", f.File)
	}

	stored, err := st.Get(context.Background(), report.ScanID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, stored.Summary)
}

func TestAggregatorDeterministic(t *testing.T) {
	files := []File{
		{Path: "a.py", Content: []byte("password = \"hunter22\"\nexec(code)\n")},
		{Path: "b.js", Content: []byte("element.innerHTML = userInput;\n")},
		{Path: "c.py", Content: []byte("pickle.loads(blob)\n")},
	}

	one, err := newTestAggregator(store.NewMemoryStore(), WithWorkers(1)).Scan(context.Background(), "x", files)
	require.NoError(t, err)
	many, err := newTestAggregator(store.NewMemoryStore(), WithWorkers(8)).Scan(context.Background(), "x", files)
	require.NoError(t, err)

	assert.Equal(t, one.Vulnerabilities, many.Vulnerabilities)
}

func TestAggregatorSkipsBinary(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	agg := newTestAggregator(store.NewMemoryStore(), WithMetrics(m))

	files := []File{
		{Path: "blob.py", Content: []byte("eval(x)\x00\x01")},
		{Path: "ok.py", Content: []byte("eval(x)\n")},
	}
	report, err := agg.Scan(context.Background(), SourceUpload, files)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesScanned)
	for _, f := range report.Vulnerabilities {
		assert.Equal(t, "ok.py", f.File)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(model.StatusCompleted)))
}

func TestAggregatorParseFallbackMetric(t *testing.T) {
	m := metrics.NewMetrics(nil)
	agg := newTestAggregator(store.NewMemoryStore(), WithMetrics(m))

	_, err := agg.Scan(context.Background(), SourceUpload, []File{
		{Path: "broken.py", Content: []byte("eval(x\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFallback))
}

func TestAggregatorEmpty(t *testing.T) {
	report, err := newTestAggregator(store.NewMemoryStore()).Scan(context.Background(), SourceUpload, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesScanned)
	assert.NotNil(t, report.Vulnerabilities)
	assert.Empty(t, report.Vulnerabilities)
	assert.Equal(t, model.ScanSummary{}, report.Summary)
}

func TestAggregatorNotifier(t *testing.T) {
	n := &recordingNotifier{err: errors.New("webhook down")}
	agg := newTestAggregator(store.NewMemoryStore(), WithNotifier(n))

	report, err := agg.Scan(context.Background(), SourceUpload, []File{{Path: "a.py", Content: []byte("eval(x)\n")}})
	require.NoError(t, err, "notification failures must not fail the scan")
	require.Len(t, n.reports, 1)
	assert.Same(t, report, n.reports[0])
}

func TestAggregatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := store.NewMemoryStore()
	_, err := newTestAggregator(st).Scan(ctx, SourceUpload, []File{{Path: "a.py", Content: []byte("x = 1\n")}})
	require.ErrorIs(t, err, context.Canceled)

	all, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAggregatorDuplicateID(t *testing.T) {
	agg := newTestAggregator(store.NewMemoryStore(), WithIDGenerator(func() string { return "same" }))

	_, err := agg.Scan(context.Background(), SourceUpload, nil)
	require.NoError(t, err)
	_, err = agg.Scan(context.Background(), SourceUpload, nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestAggregatorFail(t *testing.T) {
	st := store.NewMemoryStore()
	m := metrics.NewMetrics(nil)
	agg := newTestAggregator(st, WithMetrics(m))

	report, err := agg.Fail(context.Background(), "https://example.com/r", ErrRepoUnavailable)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, 0, report.FilesScanned)
	assert.Empty(t, report.Vulnerabilities)
	assert.Equal(t, 0, report.Summary.Total)

	stored, err := st.Get(context.Background(), report.ScanID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, stored.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(model.StatusError)))
}

type fakeFetcher struct {
	files []File
	err   error
}

func (f fakeFetcher) Fetch(context.Context, string) ([]File, error) { return f.files, f.err }

func TestScanRepository(t *testing.T) {
	agg := newTestAggregator(store.NewMemoryStore())

	report, err := agg.ScanRepository(context.Background(), fakeFetcher{
		files: []File{{Path: "app.py", Content: []byte("eval(x)\n")}},
	}, "https://example.com/o/r")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, report.Status)
	assert.Equal(t, "https://example.com/o/r", report.Source)
	assert.Equal(t, 1, report.FilesScanned)

	report, err = agg.ScanRepository(context.Background(), fakeFetcher{err: ErrRepoUnavailable}, "https://example.com/o/gone")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, report.Status)
	assert.Equal(t, "https://example.com/o/gone", report.Source)
}

func TestNewScanID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewScanID()
		assert.Len(t, id, 12)
		assert.Regexp(t, `^[0-9a-f]{12}$`, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
