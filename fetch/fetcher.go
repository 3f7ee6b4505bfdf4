// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNilMeasures  = errors.New("measures cannot be nil")
	ErrNilResolver  = errors.New("resolver cannot be nil")
	ErrBodyTooLarge = errors.New("image body exceeds the configured limit")
)

const (
	defaultTimeout           = 30 * time.Second
	defaultMaxAttempts       = 3
	maxMaxAttempts           = 5
	defaultBackoff           = 500 * time.Millisecond
	defaultRequestsPerSecond = 10
	defaultMaxBytes          = 10 << 20
)

// Config drives the Fetcher.
type Config struct {
	// Timeout bounds a single HTTP request, body included.
	// (Optional) Defaults to 30 seconds.
	Timeout time.Duration

	// MaxAttempts is the number of requests made for one camera per cycle.
	// (Optional) Defaults to 3. Values above 5 are clamped.
	MaxAttempts int

	// Backoff is the initial wait between attempts. It grows exponentially.
	// (Optional) Defaults to 500ms.
	Backoff time.Duration

	// RequestsPerSecond caps outbound image requests across all cameras.
	// (Optional) Defaults to 10. A negative value disables the limit.
	RequestsPerSecond float64

	// Burst is the limiter burst size.
	// (Optional) Defaults to 1.
	Burst int

	// MaxBytes caps the size of a downloaded image.
	// (Optional) Defaults to 10MiB.
	MaxBytes int64

	// URLTemplate is used by the static resolver. "{id}" is replaced with the
	// camera id.
	URLTemplate string

	// UserAgent is sent with every request when set.
	UserAgent string

	// DataMall enables link resolution through the LTA DataMall API when an
	// account key is present.
	DataMall DataMallConfig
}

// Fetcher retrieves one image for one camera. Concurrent calls share only the
// rate limiter and the resolver.
type Fetcher struct {
	client      *http.Client
	resolver    Resolver
	limiter     *rate.Limiter
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBytes    int64
	userAgent   string
	measures    *Measures
	getLogger   func(context.Context) *zap.Logger
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
}

// New creates a Fetcher. A nil client means http.DefaultClient.
func New(config Config, client *http.Client, resolver Resolver, measures *Measures, getLogger func(context.Context) *zap.Logger) (*Fetcher, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	validateConfig(&config)
	if client == nil {
		client = http.DefaultClient
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}

	limit := rate.Limit(config.RequestsPerSecond)
	if config.RequestsPerSecond < 0 {
		limit = rate.Inf
	}

	return &Fetcher{
		client:      client,
		resolver:    resolver,
		limiter:     rate.NewLimiter(limit, config.Burst),
		timeout:     config.Timeout,
		maxAttempts: config.MaxAttempts,
		backoff:     config.Backoff,
		maxBytes:    config.MaxBytes,
		userAgent:   config.UserAgent,
		measures:    measures,
		getLogger:   getLogger,
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

// Fetch retrieves the current image of camera. Every failure is reported in
// the returned attempt and never aborts the caller's cycle.
func (f *Fetcher) Fetch(ctx context.Context, camera model.CameraSpec) model.CaptureAttempt {
	start := f.now()
	logger := f.getLogger(ctx).With(zap.Int("camera", camera.ID))
	attempt := model.CaptureAttempt{
		CameraID:  camera.ID,
		Timestamp: start,
	}

	defer func() {
		outcome := SuccessOutcome
		if attempt.Failure != nil {
			outcome = string(attempt.Failure.Reason)
		}
		f.measures.Results.With(prometheus.Labels{
			CameraLabel: strconv.Itoa(camera.ID), OutcomeLabel: outcome}).Inc()
		f.measures.Duration.With(prometheus.Labels{
			OutcomeLabel: outcome}).Observe(f.now().Sub(start).Seconds())
	}()

	link, err := f.resolver.Resolve(ctx, camera)
	if err != nil {
		attempt.Failure = asFailure(err)
		logger.Warn("failed to resolve camera image link", zap.Error(err))
		return attempt
	}
	attempt.Source = link.URL
	attempt.Location = link.Location
	attempt.Latitude = link.Latitude
	attempt.Longitude = link.Longitude

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoff
	b.MaxInterval = f.backoff * 8
	b.MaxElapsedTime = 0
	b.Reset()

	var errs error
	for n := 1; n <= f.maxAttempts; n++ {
		attempt.Attempts = n
		image, contentType, failure := f.fetchOnce(ctx, link.URL)
		if failure == nil {
			attempt.Image = image
			attempt.ContentType = contentType
			attempt.Failure = nil
			logger.Debug("fetched camera image",
				zap.Int("attempts", n), zap.Int("bytes", len(image)), zap.String("contentType", contentType))
			return attempt
		}

		attempt.Failure = failure
		errs = multierr.Append(errs, fmt.Errorf("attempt %d: %w", n, failure))
		if n == f.maxAttempts || !retryable(failure) {
			break
		}
		if err := f.sleep(ctx, b.NextBackOff()); err != nil {
			break
		}
	}

	logger.Warn("failed to fetch camera image",
		zap.Int("attempts", attempt.Attempts), zap.String("reason", string(attempt.Failure.Reason)), zap.Error(errs))
	return attempt
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, string, *model.Failure) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", &model.Failure{Reason: model.ReasonTimeout, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &model.Failure{Reason: model.ReasonNetworkError, Message: err.Error()}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.countRequest(0)
		return nil, "", classify(ctx, err)
	}
	defer resp.Body.Close()
	f.countRequest(resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &model.Failure{
			Reason:     model.ReasonHTTPError,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", classify(ctx, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", &model.Failure{Reason: model.ReasonNotImage, Message: ErrBodyTooLarge.Error()}
	}
	if len(body) == 0 {
		return nil, "", &model.Failure{Reason: model.ReasonEmptyResponse, Message: "response body was empty"}
	}

	contentType, ok := imageContentType(resp.Header.Get("Content-Type"), body)
	if !ok {
		return nil, "", &model.Failure{Reason: model.ReasonNotImage, Message: "unexpected content type " + contentType}
	}
	return body, contentType, nil
}

func (f *Fetcher) countRequest(code int) {
	label := "network"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	f.measures.Requests.With(prometheus.Labels{CodeLabel: label}).Inc()
}

// imageContentType trusts a declared image/* type and sniffs the body when the
// header is missing or generic.
func imageContentType(header string, body []byte) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(header)
	if err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType, true
	}
	if err == nil && !genericContentType(mediaType) {
		return mediaType, false
	}

	detected := mimetype.Detect(body)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return detected.String(), true
		}
	}
	return detected.String(), false
}

func genericContentType(mediaType string) bool {
	switch mediaType {
	case "", "application/octet-stream", "binary/octet-stream", "application/binary":
		return true
	}
	return false
}

func classify(ctx context.Context, err error) *model.Failure {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &model.Failure{Reason: model.ReasonTimeout, Message: err.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &model.Failure{Reason: model.ReasonTimeout, Message: err.Error()}
	}
	return &model.Failure{Reason: model.ReasonNetworkError, Message: err.Error()}
}

// asFailure turns a resolver error into the per-camera failure it represents.
func asFailure(err error) *model.Failure {
	var f *model.Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.Failure{Reason: model.ReasonTimeout, Message: err.Error()}
	}
	return &model.Failure{Reason: model.ReasonNetworkError, Message: err.Error()}
}

func retryable(f *model.Failure) bool {
	switch f.Reason {
	case model.ReasonTimeout, model.ReasonNetworkError, model.ReasonEmptyResponse:
		return true
	case model.ReasonHTTPError:
		return f.StatusCode >= 500 || f.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func validateConfig(config *Config) {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.MaxAttempts > maxMaxAttempts {
		config.MaxAttempts = maxMaxAttempts
	}
	if config.Backoff <= 0 {
		config.Backoff = defaultBackoff
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = defaultRequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxBytes
	}
}
