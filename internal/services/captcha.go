package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/models"
)

// User-facing CAPTCHA failure messages
const (
	MsgCaptchaTimeout = "Timed out waiting for the CAPTCHA image. Try again."
	msgCaptchaStatus  = "Failed to download captcha image. HTTP status: %d"
	msgCaptchaLoad    = "Error loading CAPTCHA: %v"
)

// CaptchaError is a failed CAPTCHA acquisition. Message is safe to show users.
type CaptchaError struct {
	Kind       models.FailureKind
	Message    string
	StatusCode int
	Err        error
}

func (e *CaptchaError) Error() string {
	return e.Message
}

func (e *CaptchaError) Unwrap() error {
	return e.Err
}

func captchaLoadError(err error) *CaptchaError {
	kind := models.FailureUnexpected
	if browser.IsTimeout(err) {
		kind = models.FailureTimeout
	}
	return &CaptchaError{Kind: kind, Message: fmt.Sprintf(msgCaptchaLoad, err), Err: err}
}

// CaptchaAcquirer fetches the portal's current CAPTCHA image for a human to solve
type CaptchaAcquirer struct {
	sessions SessionAcquirer
	portal   Portal
	client   *resty.Client
	logger   *logrus.Logger

	total  atomic.Int64
	failed atomic.Int64
}

// NewCaptchaAcquirer creates a new CAPTCHA acquirer. userAgent is sent on the
// secondary image fetch so it matches the browser's fingerprint.
func NewCaptchaAcquirer(sessions SessionAcquirer, portal Portal, userAgent string, logger *logrus.Logger) *CaptchaAcquirer {
	client := resty.New().
		SetTimeout(portal.FetchTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "image/avif,image/webp,image/png,image/*;q=0.8,*/*;q=0.5")

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.WithFields(logrus.Fields{
			"url":      res.Request.URL,
			"status":   res.StatusCode(),
			"bytes":    len(res.Body()),
			"duration": res.Time(),
		}).Debug("Captcha image fetched")
		return nil
	})

	return &CaptchaAcquirer{
		sessions: sessions,
		portal:   portal,
		client:   client,
		logger:   logger,
	}
}

// Acquire opens a fresh browser session, waits for the CAPTCHA image to
// settle and returns its bytes. The session is released before returning.
func (a *CaptchaAcquirer) Acquire(ctx context.Context) (challenge *models.CaptchaChallenge, err error) {
	start := time.Now()
	a.total.Add(1)

	defer func() {
		if r := recover(); r != nil {
			challenge, err = nil, captchaLoadError(fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			a.failed.Add(1)
			a.logger.WithError(err).WithField("duration", time.Since(start)).Warn("CAPTCHA acquisition failed")
			return
		}
		a.logger.WithFields(logrus.Fields{
			"mime_type": challenge.MIMEType,
			"duration":  time.Since(start),
		}).Info("CAPTCHA acquired")
	}()

	session, err := a.sessions.Acquire(ctx)
	if err != nil {
		return nil, captchaLoadError(err)
	}
	defer session.Release()

	if err := session.Navigate(ctx, a.portal.BaseURL); err != nil {
		return nil, captchaLoadError(err)
	}

	sel := a.portal.CaptchaImage
	if _, err := session.WaitFor(ctx, browser.ElementPresent(sel), a.portal.PresenceTimeout); err != nil {
		if browser.IsTimeout(err) {
			return nil, &CaptchaError{Kind: models.FailureTimeout, Message: MsgCaptchaTimeout, Err: err}
		}
		return nil, captchaLoadError(err)
	}

	ready := browser.AllOf(
		browser.AttributeNonEmpty(sel, "src", minCaptchaSrcLen),
		browser.ElementStable(sel, "src", 2),
	)
	src, err := session.WaitFor(ctx, ready, a.portal.AttributeTimeout)
	if err != nil {
		return nil, captchaLoadError(err)
	}

	if isDataURI(src) {
		challenge, err := decodeDataURI(src)
		if err != nil {
			return nil, captchaLoadError(err)
		}
		return challenge, nil
	}

	pageURL, err := session.Location(ctx)
	if err != nil || pageURL == "" {
		pageURL = a.portal.BaseURL
	}
	imageURL, err := resolveURL(pageURL, src)
	if err != nil {
		return nil, captchaLoadError(err)
	}

	return a.fetch(ctx, imageURL, pageURL)
}

// fetch downloads the image with a plain HTTP client
func (a *CaptchaAcquirer) fetch(ctx context.Context, imageURL, referer string) (*models.CaptchaChallenge, error) {
	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("Referer", referer).
		Get(imageURL)
	if err != nil {
		return nil, captchaLoadError(fmt.Errorf("fetch %s: %w", imageURL, err))
	}
	if !res.IsSuccess() {
		return nil, &CaptchaError{
			Kind:       models.FailureRemoteFetch,
			Message:    fmt.Sprintf(msgCaptchaStatus, res.StatusCode()),
			StatusCode: res.StatusCode(),
		}
	}

	body := res.Body()
	if len(body) == 0 {
		return nil, captchaLoadError(errors.New("empty image body"))
	}

	return &models.CaptchaChallenge{
		Data:     base64.StdEncoding.EncodeToString(body),
		Encoding: models.EncodingBase64,
		MIMEType: imageMIMEType(res.Header().Get("Content-Type")),
	}, nil
}

// GetStats returns acquisition counters
func (a *CaptchaAcquirer) GetStats() models.CaptchaMetrics {
	return models.CaptchaMetrics{
		Total:  a.total.Load(),
		Failed: a.failed.Load(),
	}
}

func isDataURI(src string) bool {
	return len(src) >= 5 && strings.EqualFold(src[:5], "data:")
}

// decodeDataURI extracts the payload of an inline image. Base64 payloads are
// kept as-is after validation; percent-encoded ones are re-encoded.
func decodeDataURI(src string) (*models.CaptchaChallenge, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URI: missing payload")
	}
	meta, payload := src[len("data:"):comma], strings.TrimSpace(src[comma+1:])

	params := strings.Split(meta, ";")
	mimeType := "image/png"
	if params[0] != "" {
		mimeType = strings.ToLower(params[0])
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		raw, err := decodeBase64Payload(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URI: %w", err)
		}
		payload = base64.StdEncoding.EncodeToString(raw)
	} else {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URI: %w", err)
		}
		payload = base64.StdEncoding.EncodeToString([]byte(raw))
	}

	return &models.CaptchaChallenge{
		Data:     payload,
		Encoding: models.EncodingBase64,
		MIMEType: mimeType,
	}, nil
}

// base64Encodings are tried in order; portals emit padded, unpadded and
// URL-safe payloads.
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.Join(strings.Fields(payload), "")

	var firstErr error
	for _, enc := range base64Encodings {
		raw, err := enc.DecodeString(payload)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func imageMIMEType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "image/png"
	}
	return mediaType
}

// resolveURL resolves ref against base
func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
