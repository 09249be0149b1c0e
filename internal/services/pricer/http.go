package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/pkg/retrier"
)

const maxResponseBytes = 4 << 20

// newRetrier retries transport failures and 5xx responses but never a malformed payload.
func newRetrier() *retrier.Retrier {
	return retrier.New(
		retrier.WithInitialInterval(250*time.Millisecond),
		retrier.WithMaxInterval(2*time.Second),
		retrier.WithMaxRetries(2),
		retrier.WithRetryIf(newRetrierPredicate),
	)
}

func newRetrierPredicate(err error) bool {
	switch {
	case errors.Is(err, domain.ErrUpstreamMalformedResponse),
		errors.Is(err, errClientStatus),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

var errClientStatus = errors.New("client error status")

// upstreamError tags a transport failure with its kind while keeping the
// cause visible to errors.Is, so timeouts stay distinguishable.
type upstreamError struct {
	kind  error
	cause error
	msg   string
}

func (e *upstreamError) Error() string {
	return e.kind.Error() + ": " + e.msg + ": " + e.cause.Error()
}

func (e *upstreamError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// fetchFailed wraps cause as ErrUpstreamFetchFailed.
func fetchFailed(cause error, format string, args ...any) error {
	return &upstreamError{kind: domain.ErrUpstreamFetchFailed, cause: cause, msg: fmt.Sprintf(format, args...)}
}

// getJSON performs a GET and decodes the body into out. Non-2xx statuses
// and transport errors are fetch failures, decode errors are malformed responses.
func getJSON(ctx context.Context, client *http.Client, r *retrier.Retrier, url string, header http.Header, out any) error {
	return r.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fetchFailed(err, "GET %s", req.URL.Host)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
			err := errors.Wrapf(domain.ErrUpstreamFetchFailed, "GET %s returned status %d", req.URL.Host, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return errors.Wrap(errClientStatus, err.Error())
			}
			return err
		}

		dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return errors.Wrapf(domain.ErrUpstreamMalformedResponse, "decode %s: %v", req.URL.Host, err)
		}
		return nil
	})
}
