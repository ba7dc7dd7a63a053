// Package httputil provides retry support for fetching recorded traces
// over HTTP.
//
// Remote recordings come from recorder endpoints and artifact stores
// that are occasionally flaky: a fetch may hit a cold instance, a rate
// limit, or a brief network blip. [Retry] wraps such calls and retries
// only the failures the caller marks transient with [Retryable]:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := http.Get(traceURL)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    // ... 5xx and 429 are transient, other statuses are permanent
//	    return nil
//	})
//
// Permanent failures (a 404 for a trace that was never uploaded, a
// malformed payload) are returned unwrapped and stop the loop on the
// first attempt. Fetched traces are cached by the pipeline under a
// URL-derived key, so a retried download happens at most once per
// cache TTL.
package httputil
