// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package alchemy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// Default transport settings.
const (
	DefaultMaxAttempts   = 6
	DefaultBackoffFactor = 100 * time.Millisecond
	DefaultMaxBackoff    = 120 * time.Second
	DefaultTimeout       = 30 * time.Second
)

// retryStatus is the set of HTTP status codes for which a GET is retried.
var retryStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// TransportOptions configure a Transport. Zero values select the defaults.
type TransportOptions struct {
	BaseURL       string        // required; relative paths are resolved against it
	HTTPClient    *http.Client  // default: a new client with Timeout
	MaxAttempts   int           // total attempts per GET, including the first one
	BackoffFactor time.Duration // the n'th retry waits BackoffFactor * 2^n
	MaxBackoff    time.Duration // upper bound for a single wait
	Timeout       time.Duration // per request
}

// StatusError is returned when the final response has a non-2xx status.
type StatusError struct {
	Method   string
	Path     string // the last element of the URL path, safe to log
	Status   int
	Attempts int
	Body     string // beginning of the response body, for diagnostics
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d after %d attempt(s): %s",
		e.Method, e.Path, e.Status, e.Attempts, e.Body)
}

// Transport issues requests relative to a base URL and retries idempotent
// requests on server errors with exponential backoff. It is safe to reuse.
type Transport struct {
	base   *url.URL
	client *retryablehttp.Client
}

// NewTransport creates a Transport.
func NewTransport(opts TransportOptions) (*Transport, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Annotate(err, "invalid base URL")
	}
	if !base.IsAbs() {
		return nil, errors.Reason("base URL must be absolute")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = DefaultBackoffFactor
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}
	httpClient.Timeout = opts.Timeout

	factor := opts.BackoffFactor
	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		Logger:       nil,
		RetryWaitMin: factor,
		RetryWaitMax: opts.MaxBackoff,
		RetryMax:     opts.MaxAttempts - 1,
		CheckRetry:   checkRetry,
		Backoff: func(_, limit time.Duration, attempt int, _ *http.Response) time.Duration {
			wait := float64(factor) * math.Pow(2, float64(attempt))
			if wait > float64(limit) {
				return limit
			}
			return time.Duration(wait)
		},
		RequestLogHook: func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if n, ok := req.Context().Value(attemptsKey{}).(*int); ok {
				*n = attempt + 1
			}
			if attempt > 0 {
				logging.Warningf(req.Context(), "retrying %s %s: attempt %d of %d",
					req.Method, path.Base(req.URL.Path), attempt+1, opts.MaxAttempts)
			}
		},
		// Keep the last response, so its status can be reported.
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return &Transport{base: base, client: client}, nil
}

// attemptsKey holds *int in a request context, the number of attempts made so
// far for that request.
type attemptsKey struct{}

// checkRetry retries connection errors and the statuses in retryStatus.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return retryStatus[resp.StatusCode], nil
}

// URL resolves the relative path and the query against the base URL.
func (t *Transport) URL(p string, query url.Values) *url.URL {
	ref := &url.URL{Path: p}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return t.base.ResolveReference(ref)
}

// Do sends the request. Only GET requests are retried. A non-2xx response is
// returned as *StatusError, with the body already closed.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	attempts := 1
	if req.Method == http.MethodGet {
		req = req.WithContext(context.WithValue(req.Context(), attemptsKey{}, &attempts))
		var rreq *retryablehttp.Request
		if rreq, err = retryablehttp.FromRequest(req); err != nil {
			return nil, errors.Annotate(err, "failed to wrap request")
		}
		resp, err = t.client.Do(rreq)
	} else {
		resp, err = t.client.HTTPClient.Do(req)
	}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		redactURL(err)
		return nil, errors.Annotate(err, "%s %s failed", req.Method, path.Base(req.URL.Path))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Method:   req.Method,
			Path:     path.Base(req.URL.Path),
			Status:   resp.StatusCode,
			Attempts: attempts,
			Body:     string(body),
		}
	}
	return resp, nil
}

// redactURL replaces the request URL in a *url.Error with its last path
// element. The base URL may carry credentials, e.g. an API key.
func redactURL(err error) {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			uerr.URL = path.Base(u.Path)
		} else {
			uerr.URL = "<redacted>"
		}
	}
}

// Get the relative path with the query.
func (t *Transport) Get(ctx context.Context, p string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(p, query).String(), nil)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create request")
	}
	return t.Do(req)
}

// GetJSON fetches the relative path and decodes its JSON body into v. Numbers
// are decoded as json.Number when v has interface{} fields.
func (t *Transport) GetJSON(ctx context.Context, p string, query url.Values, v interface{}) error {
	resp, err := t.Get(ctx, p, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errors.Annotate(err, "failed to decode %s response", p)
	}
	return nil
}
