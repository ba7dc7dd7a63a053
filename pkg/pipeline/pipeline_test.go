package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/critlens/critlens/pkg/cache"
	"github.com/critlens/critlens/pkg/observability"
	"github.com/critlens/critlens/pkg/trace"
)

const sampleTrace = `[
  {"id": "0", "url": "https://example.com/", "resource_type": "document",
   "priority": "very-high", "frame_id": "F1",
   "start_time": 0, "response_received_time": 40, "finished": true},
  {"id": "1", "url": "https://example.com/main.css", "resource_type": "stylesheet",
   "priority": "high", "frame_id": "F1",
   "initiator": {"kind": "parser", "url": "https://example.com/"},
   "start_time": 50, "response_received_time": 90, "finished": true},
  {"id": "2", "url": "https://example.com/track.js", "resource_type": "script",
   "priority": "low", "frame_id": "F1",
   "initiator": {"kind": "parser", "url": "https://example.com/"},
   "start_time": 55, "response_received_time": 60, "finished": true}
]`

func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(sampleTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	opts := Options{Trace: "trace.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.MaxRequests != DefaultMaxRequests {
		t.Errorf("MaxRequests = %d, want %d", opts.MaxRequests, DefaultMaxRequests)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
}

func TestOptions_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"missing source", Options{}, "trace or trace_url is required"},
		{"both sources", Options{Trace: "a.json", TraceURL: "https://x/t.json"}, "mutually exclusive"},
		{"bad format", Options{Trace: "a.json", Formats: []string{"pdf"}}, "invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "dot", "svg", "png", "text"}); err != nil {
		t.Errorf("ValidateFormats(all valid) error = %v", err)
	}
	if err := ValidateFormats([]string{"json", "pdf"}); err == nil {
		t.Error("ValidateFormats() with invalid format should fail")
	}
}

func TestRunner_Execute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Trace:   writeTrace(t),
		Formats: []string{"json", "text"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", result.Stats.RecordCount)
	}
	// The low-priority script is filtered, leaving root + stylesheet.
	if result.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", result.Stats.NodeCount)
	}
	if result.ForestHash == "" {
		t.Error("ForestHash is empty")
	}
	for _, format := range []string{"json", "text"} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("missing %s artifact", format)
		}
	}

	var report struct {
		Chains map[string]json.RawMessage `json:"chains"`
	}
	if err := json.Unmarshal(result.Artifacts["json"], &report); err != nil {
		t.Fatalf("json artifact is not valid JSON: %v", err)
	}
	if _, ok := report.Chains["0"]; !ok {
		t.Error("json artifact missing root chain")
	}
}

func TestRunner_ExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Trace: writeTrace(t), Formats: []string{"json"}}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.AssembleHit || first.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.AssembleHit {
		t.Error("second run should hit the forest cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
	if second.ForestHash != first.ForestHash {
		t.Errorf("ForestHash changed between runs: %s != %s", second.ForestHash, first.ForestHash)
	}
}

func TestRunner_ExecuteRefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	path := writeTrace(t)
	if _, err := runner.Execute(context.Background(), Options{Trace: path}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	result, err := runner.Execute(context.Background(), Options{Trace: path, Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.AssembleHit || result.CacheInfo.RenderHit {
		t.Error("refresh run should bypass the cache")
	}
}

func TestRunner_LoadFromURL(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleTrace))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{TraceURL: srv.URL}

	records, hit, err := runner.LoadWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithCacheInfo() error = %v", err)
	}
	if hit {
		t.Error("first fetch should not hit the cache")
	}
	if len(records) != 3 {
		t.Errorf("loaded %d records, want 3", len(records))
	}

	_, hit, err = runner.LoadWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithCacheInfo() error = %v", err)
	}
	if !hit {
		t.Error("second fetch should hit the cache")
	}
	if hits != 1 {
		t.Errorf("server got %d requests, want 1", hits)
	}
}

func TestRunner_LoadFromURLServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	_, err := runner.Load(context.Background(), Options{TraceURL: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Load() error = %v, want 404 failure", err)
	}
}

func TestRunner_AssembleConcurrent(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	records, err := trace.ReadRecords(strings.NewReader(sampleTrace))
	if err != nil {
		t.Fatal(err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forest, err := runner.Assemble(context.Background(), records, Options{Trace: "x"})
			if err == nil && forest.NodeCount() != 2 {
				err = fmt.Errorf("node count = %d, want 2", forest.NodeCount())
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}
}

// recordingCacheHooks counts cache events per stage label.
type recordingCacheHooks struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	sets   map[string]int
}

func newRecordingCacheHooks() *recordingCacheHooks {
	return &recordingCacheHooks{
		hits:   make(map[string]int),
		misses: make(map[string]int),
		sets:   make(map[string]int),
	}
}

func (h *recordingCacheHooks) OnCacheHit(_ context.Context, stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[stage]++
}

func (h *recordingCacheHooks) OnCacheMiss(_ context.Context, stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[stage]++
}

func (h *recordingCacheHooks) OnCacheSet(_ context.Context, stage string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets[stage]++
}

func (h *recordingCacheHooks) count(m map[string]int, stage string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return m[stage]
}

// recordingHTTPHooks counts outgoing fetch events.
type recordingHTTPHooks struct {
	mu         sync.Mutex
	requests   int
	responses  int
	failures   int
	lastStatus int
	lastHost   string
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, _, host, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	h.lastHost = host
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses++
	h.lastStatus = status
}

func (h *recordingHTTPHooks) OnError(_ context.Context, _, _, _ string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
}

func TestRunner_CacheHooksObserveStages(t *testing.T) {
	hooks := newRecordingCacheHooks()
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Trace: writeTrace(t), Formats: []string{"json"}}

	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := hooks.count(hooks.misses, "forest"); got != 1 {
		t.Errorf("forest misses after first run = %d, want 1", got)
	}
	if got := hooks.count(hooks.sets, "forest"); got != 1 {
		t.Errorf("forest sets after first run = %d, want 1", got)
	}
	if got := hooks.count(hooks.sets, "artifact"); got != 1 {
		t.Errorf("artifact sets after first run = %d, want 1", got)
	}

	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := hooks.count(hooks.hits, "forest"); got != 1 {
		t.Errorf("forest hits after second run = %d, want 1", got)
	}
	if got := hooks.count(hooks.hits, "artifact"); got != 1 {
		t.Errorf("artifact hits after second run = %d, want 1", got)
	}
}

func TestRunner_HTTPHooksObserveFetch(t *testing.T) {
	cacheHooks := newRecordingCacheHooks()
	httpHooks := &recordingHTTPHooks{}
	observability.SetCacheHooks(cacheHooks)
	observability.SetHTTPHooks(httpHooks)
	defer observability.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleTrace))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{TraceURL: srv.URL}

	if _, err := runner.Load(context.Background(), opts); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := runner.Load(context.Background(), opts); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	httpHooks.mu.Lock()
	defer httpHooks.mu.Unlock()
	if httpHooks.requests != 1 || httpHooks.responses != 1 {
		t.Errorf("got %d requests / %d responses, want 1 / 1", httpHooks.requests, httpHooks.responses)
	}
	if httpHooks.lastStatus != http.StatusOK {
		t.Errorf("last status = %d, want %d", httpHooks.lastStatus, http.StatusOK)
	}
	if httpHooks.failures != 0 {
		t.Errorf("got %d transport errors, want 0", httpHooks.failures)
	}
	if got := cacheHooks.count(cacheHooks.misses, "trace"); got != 1 {
		t.Errorf("trace misses = %d, want 1", got)
	}
	if got := cacheHooks.count(cacheHooks.hits, "trace"); got != 1 {
		t.Errorf("trace hits = %d, want 1", got)
	}
}

func TestCapRecords(t *testing.T) {
	records := make([]trace.RequestRecord, 10)
	if got := capRecords(records, 4); len(got) != 4 {
		t.Errorf("capRecords(10, 4) kept %d records, want 4", len(got))
	}
	if got := capRecords(records, 20); len(got) != 10 {
		t.Errorf("capRecords(10, 20) kept %d records, want 10", len(got))
	}
	if got := capRecords(records, 0); len(got) != 10 {
		t.Errorf("capRecords(10, 0) kept %d records, want 10", len(got))
	}
}
