package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/critlens/critlens/pkg/httputil"
	"github.com/critlens/critlens/pkg/observability"
	"github.com/critlens/critlens/pkg/trace"
)

// maxTraceBytes caps how much of a remote trace we will buffer. Recordings
// of pathological pages have been seen north of 100MB; anything larger than
// this is almost certainly not a request trace.
const maxTraceBytes = 256 << 20

// loadLocal reads records from a file path, or from stdin when the path
// is "-".
func loadLocal(path string) ([]trace.RequestRecord, error) {
	if path == "-" {
		records, err := trace.ReadRecords(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read trace from stdin: %w", err)
		}
		return records, nil
	}
	return trace.ReadRecordsFile(path)
}

// fetchTrace downloads a recorded trace over HTTP with retries. Transient
// failures (5xx, 429, connection errors) are retried with backoff; 4xx
// responses fail immediately.
func fetchTrace(ctx context.Context, traceURL string) ([]byte, error) {
	host, path := splitURL(traceURL)
	hooks := observability.HTTP()

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, traceURL, nil)
		if err != nil {
			return err
		}

		hooks.OnRequest(ctx, http.MethodGet, host, path)
		start := time.Now()
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			hooks.OnError(ctx, http.MethodGet, host, path, err)
			return httputil.Retryable(err)
		}
		defer resp.Body.Close()
		hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return httputil.Retryable(fmt.Errorf("fetch trace: %s returned %s", traceURL, resp.Status))
		default:
			return fmt.Errorf("fetch trace: %s returned %s", traceURL, resp.Status)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxTraceBytes))
		if err != nil {
			hooks.OnError(ctx, http.MethodGet, host, path, err)
			return httputil.Retryable(fmt.Errorf("read trace body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// splitURL extracts host and path for instrumentation labels. A URL that
// does not parse fails later in http.NewRequestWithContext; here the
// labels just degrade.
func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, ""
	}
	return u.Host, u.Path
}

// decodeTrace parses raw trace bytes into records.
func decodeTrace(data []byte) ([]trace.RequestRecord, error) {
	return trace.ReadRecords(bytes.NewReader(data))
}

// capRecords truncates the record list to at most maxRequests entries.
// Records are kept in input order; the recorder emits them in request
// start order, so truncation drops the latest requests first.
func capRecords(records []trace.RequestRecord, maxRequests int) []trace.RequestRecord {
	if maxRequests > 0 && len(records) > maxRequests {
		return records[:maxRequests]
	}
	return records
}
