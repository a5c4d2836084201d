// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

// Package httpreader streams a remote update archive over HTTP using ranged
// GET requests. Reader presents a plain sequential io.Reader to the caller;
// retries, per-request timeouts, and buffering happen internally, so the
// archive pipeline never sees transport details.
package httpreader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// Default transfer tuning values.
const (
	// DefaultPartSize is the range size fetched per GET.
	DefaultPartSize = 1 << 20
	// DefaultMaxRetries is the number of retries after a failed fetch.
	DefaultMaxRetries = 3
	// DefaultTimeout bounds each individual HTTP request.
	DefaultTimeout = 30 * time.Second
	// retryBaseDelay is the first retry backoff step; it doubles per attempt.
	retryBaseDelay = 250 * time.Millisecond
)

// Sentinel errors for remote fetches. Use errors.Is in callers.
var (
	// ErrUnexpectedStatus means the server answered with an unusable HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// ErrUnexpectedFormat means the response is missing data the reader relies on.
	ErrUnexpectedFormat = errors.New("unexpected response format")
)

// Options customises New.
type Options struct {
	// Client is the HTTP client used for every request.
	Client *http.Client
	// PartSize is the range size in bytes fetched per GET.
	PartSize int64
	// MaxRetries is the number of retries after a failed fetch.
	MaxRetries int
	// Timeout bounds each individual request, not the whole transfer.
	Timeout time.Duration

	logger   *log.Logger
	interval time.Duration
}

// WithClient sets the HTTP client.
func WithClient(c *http.Client) func(*Options) {
	return func(opts *Options) {
		opts.Client = c
	}
}

// WithPartSize sets the range size fetched per GET.
func WithPartSize(n int64) func(*Options) {
	return func(opts *Options) {
		opts.PartSize = n
	}
}

// WithMaxRetries sets the number of retries after a failed fetch.
func WithMaxRetries(n int) func(*Options) {
	return func(opts *Options) {
		opts.MaxRetries = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) func(*Options) {
	return func(opts *Options) {
		opts.Timeout = d
	}
}

// WithProgressLogger logs download progress at most once per interval, as
// "downloaded X / Y so far" with human-friendly sizes.
func WithProgressLogger(logger *log.Logger, interval time.Duration) func(*Options) {
	return func(opts *Options) {
		opts.logger = logger
		opts.interval = interval
	}
}

// Reader is a forward-only reader over a remote resource. It fills an
// internal buffer with ranged GETs and never seeks.
type Reader struct {
	client     *http.Client
	url        string
	size       int64
	off        int64
	buf        bytes.Buffer
	partSize   int64
	maxRetries int
	timeout    time.Duration

	logger    *log.Logger
	rate      *rate.Sometimes
	delivered int64
}

// New probes the resource size with a HEAD request and returns a Reader for
// the full content.
func New(url string, optFns ...func(*Options)) (*Reader, error) {
	opts := &Options{
		PartSize:   DefaultPartSize,
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.PartSize <= 0 {
		opts.PartSize = DefaultPartSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	r := &Reader{
		client:     opts.Client,
		url:        url,
		partSize:   opts.PartSize,
		maxRetries: opts.MaxRetries,
		timeout:    opts.Timeout,
	}

	if opts.logger != nil && opts.interval > 0 {
		r.logger = opts.logger
		r.rate = &rate.Sometimes{Interval: opts.interval}
	}

	size, err := r.probeSize()
	if err != nil {
		return nil, err
	}
	r.size = size

	return r, nil
}

// Size returns the remote content length in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Read returns buffered bytes, fetching the next range when the buffer is
// empty. It returns io.EOF once the full content has been delivered.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if r.buf.Len() == 0 {
		if r.off >= r.size {
			return 0, io.EOF
		}

		if err := r.fill(int64(len(p))); err != nil {
			return 0, err
		}
	}

	n, _ := r.buf.Read(p)
	r.logProgress(n)
	return n, nil
}

// fill fetches at least want bytes (bounded by part size and content end)
// into the buffer and advances the fetch offset.
func (r *Reader) fill(want int64) error {
	fetch := want
	if fetch < r.partSize {
		fetch = r.partSize
	}

	end := r.off + fetch
	if end > r.size {
		end = r.size
	}
	end--

	data, err := r.get(r.off, end)
	if err != nil {
		return err
	}

	r.buf.Write(data)
	r.off = end + 1
	return nil
}

// get fetches one byte range, retrying with exponential backoff.
func (r *Reader) get(start, end int64) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBaseDelay << (attempt - 1))
		}

		data, err := r.getOnce(start, end)
		if err == nil {
			return data, nil
		}

		lastErr = err
	}

	return nil, fmt.Errorf("get bytes %d-%d after %d attempts: %w", start, end, r.maxRetries+1, lastErr)
}

// getOnce performs a single ranged GET. A 200 response means the server
// ignored the range header; the requested window is sliced out of the full
// body so such servers still work, just without the transfer savings.
func (r *Reader) getOnce(start, end int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		if int64(len(data)) < end+1 {
			return nil, fmt.Errorf("%w: full-body response has %d bytes, range ends at %d",
				ErrUnexpectedFormat, len(data), end)
		}

		data = data[start : end+1]
	}

	if int64(len(data)) != end-start+1 {
		return nil, fmt.Errorf("%w: got %d bytes for range %d-%d", ErrUnexpectedFormat, len(data), start, end)
	}

	return data, nil
}

// probeSize resolves the content length with a HEAD request.
func (r *Reader) probeSize() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("%w: content length not returned in headers", ErrUnexpectedFormat)
	}

	return resp.ContentLength, nil
}

// logProgress emits a throttled progress line for delivered bytes.
func (r *Reader) logProgress(n int) {
	r.delivered += int64(n)
	if r.logger == nil || r.rate == nil {
		return
	}

	r.rate.Do(func() {
		r.logger.Printf("downloaded %s / %s so far",
			humanize.IBytes(uint64(r.delivered)), humanize.IBytes(uint64(r.size)))
	})
}
