package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	defaultTimeout = 30 * time.Second
	// Cap on response bodies read into memory.
	maxResponseBytes = 4 << 20
)

// Options configures an HTTPClient.
type Options struct {
	Token        string
	SummarizeURL string
	AnswerURL    string
	Timeout      time.Duration
	// HTTPClient overrides the default client; its Timeout is left untouched.
	HTTPClient *http.Client
}

// HTTPClient posts JSON payloads to the inference endpoints with bearer auth.
type HTTPClient struct {
	http         *http.Client
	token        string
	summarizeURL string
	answerURL    string
	log          *slog.Logger
}

type summarizeRequest struct {
	Inputs string `json:"inputs"`
}

type answerInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type answerRequest struct {
	Inputs answerInputs `json:"inputs"`
}

// NewHTTPClient builds a client. The token and both URLs are required.
func NewHTTPClient(opts Options, log *slog.Logger) (*HTTPClient, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("api token required")
	}
	if opts.SummarizeURL == "" || opts.AnswerURL == "" {
		return nil, fmt.Errorf("summarize and answer endpoint URLs required")
	}
	if log == nil {
		log = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		http:         client,
		token:        opts.Token,
		summarizeURL: opts.SummarizeURL,
		answerURL:    opts.AnswerURL,
		log:          log,
	}, nil
}

func (c *HTTPClient) Summarize(ctx context.Context, text string) ([]byte, error) {
	return c.post(ctx, EndpointSummarize, c.summarizeURL, summarizeRequest{Inputs: text})
}

func (c *HTTPClient) AnswerQuestion(ctx context.Context, contextText, question string) ([]byte, error) {
	return c.post(ctx, EndpointAnswer, c.answerURL, answerRequest{
		Inputs: answerInputs{Question: question, Context: contextText},
	})
}

func (c *HTTPClient) post(ctx context.Context, endpoint, url string, body any) ([]byte, error) {
	reqID := uuid.New().String()
	log := c.log.With("endpoint", endpoint, "req_id", reqID)
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, &Failure{Endpoint: endpoint, Err: fmt.Errorf("encode json: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, &Failure{Endpoint: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	log.Debug("inference request", "content_length", len(bs))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("inference send failed", "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, &Failure{Endpoint: endpoint, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("inference response body close failed", "err", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Failure{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Info("inference response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		f := &Failure{Endpoint: endpoint, Status: resp.StatusCode, Remote: remoteError(raw)}
		log.Warn("inference non-2xx status", "status", resp.StatusCode, "remote_error", f.Remote)
		return nil, f
	}
	if !gjson.ValidBytes(raw) {
		return nil, &Failure{Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New("response body is not valid JSON")}
	}
	return raw, nil
}

// remoteError pulls the backend's "error" message, e.g. a model that is still
// loading, out of an error body.
func remoteError(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	res := gjson.GetBytes(raw, "error")
	switch {
	case res.Type == gjson.String:
		return res.String()
	case res.IsArray():
		return res.Get("0").String()
	default:
		return ""
	}
}
