package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/segment"
)

const (
	pollInterval = 1500 * time.Millisecond
	pollAttempts = 40
)

// HTTPClient drives the async transcription service: publish the
// recording link, poll the job until it succeeds, then download the
// timestamped segment JSON.
type HTTPClient struct {
	host string
	http *http.Client
	log  *logger.Logger
}

func NewHTTPClient(host string, log *logger.Logger) (*HTTPClient, error) {
	if host == "" {
		return nil, fmt.Errorf("transcribe: host not configured")
	}
	if log == nil {
		log = logger.New()
	}
	return &HTTPClient{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: 12 * time.Second},
		log:  log.WithComponent("transcribe"),
	}, nil
}

type publishResponse struct {
	Code int    `json:"Code"`
	Data struct {
		MediaId     string `json:"MediaId"`
		Status      string `json:"Status"`
		SegmentsURL string `json:"SegmentsURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type statusResponse struct {
	Code int `json:"Code"`
	Data struct {
		Status      string `json:"Status"` // Success, Queued, Processing, Failed
		SegmentsURL string `json:"SegmentsURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// Transcribe runs the publish → poll → download flow.
func (c *HTTPClient) Transcribe(ctx context.Context, audioURL string) ([]segment.Transcript, error) {
	mediaID, readyURL, err := c.publish(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if readyURL == "" {
		readyURL, err = c.poll(ctx, mediaID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
	}
	c.log.WithField("segments_url", readyURL).Debug("downloading transcript segments")
	segs, err := c.download(ctx, readyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return segs, nil
}

func (c *HTTPClient) publish(ctx context.Context, audioURL string) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	w.WriteField("callRecordingLink", audioURL)
	w.WriteField("withTimestamps", "true")
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/transcribe", &b)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp publishResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("publish rejected: code=%d reason=%s", resp.Code, resp.Reason)
	}
	// a recording seen before comes back already transcribed
	if resp.Data.SegmentsURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.SegmentsURL, nil
	}
	return resp.Data.MediaId, "", nil
}

func (c *HTTPClient) poll(ctx context.Context, mediaID string) (string, error) {
	base := c.host + "/getstatus"
	for i := 0; i < pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}

		u, _ := url.Parse(base)
		q := u.Query()
		q.Set("mediaId", mediaID)
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", err
		}
		var s statusResponse
		if err := c.doJSON(ctx, req, &s); err != nil {
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.SegmentsURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("job failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("job timed out after %d polls", pollAttempts)
}

func (c *HTTPClient) download(ctx context.Context, segmentsURL string) ([]segment.Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segmentsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed: status %d: %s", resp.StatusCode, string(body))
	}
	var segs []segment.Transcript
	if err := json.Unmarshal(body, &segs); err != nil {
		return nil, fmt.Errorf("decode segments: %v", err)
	}
	return segs, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, req *http.Request, target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			attempt.Body = body
		}
		resp, err := c.http.Do(attempt)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v", err)
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
