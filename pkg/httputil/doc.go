// Package httputil provides HTTP plumbing shared by the liveness probes.
//
// # Overview
//
//   - [NewClient]: an *http.Client with a timeout and default headers
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Retry] re-runs an operation only when it fails with a [RetryableError].
// Wrap transient failures (connection resets, timeouts, 5xx responses) with
// [Retryable] and return everything else unwrapped:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return nil
//	})
//
// With attempts set to 1 the operation runs exactly once, which is the
// default for liveness probes: a URL that does not answer within the
// timeout is reported as inaccessible.
package httputil
