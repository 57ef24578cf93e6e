package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/segment"
)

// HTTPClient calls the emotion-diarization service. The service is
// synchronous: one POST with the recording link, labeled spans back.
type HTTPClient struct {
	host string
	http *http.Client
	log  *logger.Logger
}

func NewHTTPClient(host string, log *logger.Logger) (*HTTPClient, error) {
	if host == "" {
		return nil, fmt.Errorf("emotion: host not configured")
	}
	if log == nil {
		log = logger.New()
	}
	return &HTTPClient{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.WithComponent("emotion"),
	}, nil
}

type diarizeResponse struct {
	Segments []segment.Emotion `json:"segments"`
	Reason   string            `json:"reason,omitempty"`
}

// ExtractEmotions posts the recording link and decodes the diary.
func (c *HTTPClient) ExtractEmotions(ctx context.Context, audioURL string) ([]segment.Emotion, error) {
	payload, _ := json.Marshal(map[string]string{"audio_url": audioURL})

	var out diarizeResponse
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/diarize", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("diarize request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("client error: status %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("decode diary: %v", err)
			return lastErr
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
	}
	return out.Segments, nil
}
