// Package pipeline runs the document-to-answer flow for one user session and
// owns its retry state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"claim-summarizer/internal/cache"
	"claim-summarizer/internal/extract"
	"claim-summarizer/internal/inference"
	"claim-summarizer/internal/normalize"
)

// State of the retry state machine.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is what an upload produces.
type Result struct {
	// TextFound is false when the document had no extractable text; nothing
	// else is set in that case.
	TextFound bool
	Summary   normalize.Summary
	Answer    *normalize.Answer
}

// Snapshot is the session view handed to the presentation layer.
type Snapshot struct {
	SessionID string
	State     State
	HasText   bool
	Filename  string
	Summary   normalize.Summary
}

// Options tunes a Controller.
type Options struct {
	// CacheTTL bounds cached results; zero keeps them for the session.
	CacheTTL time.Duration
}

// Controller processes one session's actions one at a time. The state is
// readable while an action runs.
type Controller struct {
	mu    sync.Mutex
	state atomic.Int32

	sessionID string
	extractor extract.Extractor
	client    inference.Client
	cache     cache.Cache
	opts      Options
	log       *slog.Logger

	text     string
	filename string
	summary  normalize.Summary
}

// NewController wires a controller for sessionID. A nil cache disables caching.
func NewController(sessionID string, ex extract.Extractor, client inference.Client, c cache.Cache, log *slog.Logger, opts Options) *Controller {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if log == nil {
		log = slog.Default()
	}
	ctrl := &Controller{
		sessionID: sessionID,
		extractor: ex,
		client:    client,
		cache:     c,
		opts:      opts,
		log:       log.With("session_id", sessionID),
	}
	ctrl.setState(StateIdle)
	return ctrl
}

// OnUpload extracts, summarizes and, when question is not blank, answers it.
// On an answer failure the summary is still returned alongside the error.
func (c *Controller) OnUpload(ctx context.Context, doc extract.Document, question string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateCooldown {
		c.log.Info("upload refused during cooldown", "filename", doc.Filename)
		return Result{}, &Error{Kind: KindCooldown, Message: msgCooldown}
	}
	if !c.extractor.Supports(doc.MediaType) {
		c.log.Info("unsupported upload", "media_type", doc.MediaType, "filename", doc.Filename)
		return Result{}, &Error{
			Kind:    KindUnsupportedFormat,
			Message: fmt.Sprintf(msgUnsupported, doc.MediaType),
			Err:     fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, doc.MediaType),
		}
	}

	c.setState(StateProcessing)
	c.text, c.filename, c.summary = "", "", nil

	text, err := c.extractor.Extract(ctx, doc)
	if err != nil {
		c.setState(StateIdle)
		c.log.Warn("extraction failed", "filename", doc.Filename, "media_type", doc.MediaType, "err", err)
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return Result{}, &Error{Kind: KindUnsupportedFormat, Message: fmt.Sprintf(msgUnsupported, doc.MediaType), Err: err}
		}
		return Result{}, &Error{Kind: KindExtraction, Message: msgExtraction, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		c.setState(StateIdle)
		c.log.Info("no text extracted", "filename", doc.Filename)
		return Result{}, nil
	}
	c.text, c.filename = text, doc.Filename
	c.log.Info("document extracted", "filename", doc.Filename, "chars", len(text))

	summary, err := c.summarize(ctx, text)
	if err != nil {
		return Result{}, c.enterCooldown("summarize", err)
	}
	c.summary = summary
	result := Result{TextFound: true, Summary: summary}

	if strings.TrimSpace(question) != "" {
		answer, err := c.answer(ctx, question)
		if err != nil {
			return result, c.enterCooldown("answer", err)
		}
		result.Answer = &answer
	}

	c.setState(StateIdle)
	return result, nil
}

// OnAskQuestion answers question against the current document.
func (c *Controller) OnAskQuestion(ctx context.Context, question string) (normalize.Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateCooldown {
		return normalize.Answer{}, &Error{Kind: KindCooldown, Message: msgCooldown}
	}
	if c.text == "" {
		return normalize.Answer{}, &Error{Kind: KindNoDocument, Message: msgNoDocument}
	}
	if strings.TrimSpace(question) == "" {
		return normalize.Answer{}, &Error{Kind: KindInvalidQuestion, Message: msgNoQuestion}
	}

	c.setState(StateProcessing)
	answer, err := c.answer(ctx, question)
	if err != nil {
		return normalize.Answer{}, c.enterCooldown("answer", err)
	}
	c.setState(StateIdle)
	return answer, nil
}

// OnRetryClicked leaves cooldown. It is a no-op in any other state.
func (c *Controller) OnRetryClicked() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateCooldown {
		c.setState(StateIdle)
		c.log.Info("retry requested; leaving cooldown")
	}
	return c.State()
}

// State returns the current state without waiting for a running action, so
// callers can observe StateProcessing.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Snapshot returns a copy of the session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID: c.sessionID,
		State:     c.State(),
		HasText:   c.text != "",
		Filename:  c.filename,
		Summary:   append(normalize.Summary(nil), c.summary...),
	}
}

// Close ends the session and drops its cached results.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text, c.filename, c.summary = "", "", nil
	return c.cache.InvalidateSession(ctx, c.sessionID)
}

func (c *Controller) summarize(ctx context.Context, text string) (normalize.Summary, error) {
	key := cache.GenerateCacheKey(c.sessionID, cache.KindSummary, text)
	if hit := c.lookup(ctx, key); hit != nil {
		c.log.Debug("summary cache hit")
		return normalize.Summary(hit.Summary), nil
	}

	raw, err := c.client.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	summary, err := normalize.NormalizeSummary(raw)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, &cache.Result{Summary: summary})
	return summary, nil
}

func (c *Controller) answer(ctx context.Context, question string) (normalize.Answer, error) {
	key := cache.GenerateCacheKey(c.sessionID, cache.KindAnswer, c.text, question)
	if hit := c.lookup(ctx, key); hit != nil {
		c.log.Debug("answer cache hit")
		return normalize.Answer{Text: hit.Answer, Score: hit.Score}, nil
	}

	raw, err := c.client.AnswerQuestion(ctx, c.text, question)
	if err != nil {
		return normalize.Answer{}, err
	}
	answer, err := normalize.NormalizeAnswer(raw)
	if err != nil {
		return normalize.Answer{}, err
	}
	c.store(ctx, key, &cache.Result{Answer: answer.Text, Score: answer.Score})
	return answer, nil
}

// lookup treats cache errors as misses.
func (c *Controller) lookup(ctx context.Context, key string) *cache.Result {
	hit, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed", "err", err)
		return nil
	}
	return hit
}

func (c *Controller) store(ctx context.Context, key string, r *cache.Result) {
	if err := c.cache.Set(ctx, key, r, c.opts.CacheTTL); err != nil {
		c.log.Warn("cache write failed", "err", err)
	}
}

func (c *Controller) enterCooldown(stage string, err error) error {
	c.setState(StateCooldown)
	kind := KindInferenceFailure
	if errors.Is(err, normalize.ErrMalformedResponse) {
		kind = KindMalformedResponse
	}
	c.log.Error("inference stage failed; entering cooldown", "stage", stage, "kind", kind, "err", err)
	return &Error{Kind: kind, Message: msgInference, Err: err}
}
