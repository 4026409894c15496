// Package inference calls the remote summarization and question-answering
// endpoints. It returns raw response bodies; shaping them is left to the
// normalize package.
package inference

import (
	"context"
	"errors"
	"fmt"
)

// ErrInferenceFailure matches every error returned by a Client, whatever the
// cause: transport, non-2xx status or an unparseable body. A model that is
// still loading surfaces the same way.
var ErrInferenceFailure = errors.New("inference failure")

// Client wraps the two remote capabilities.
type Client interface {
	Summarize(ctx context.Context, text string) ([]byte, error)
	AnswerQuestion(ctx context.Context, contextText, question string) ([]byte, error)
}

// Endpoint names used in errors and logs.
const (
	EndpointSummarize = "summarize"
	EndpointAnswer    = "answer"
)

// Failure describes a failed inference call.
type Failure struct {
	Endpoint string
	Status   int    // HTTP status, 0 when no response was received
	Remote   string // "error" field of the response body, if any
	Err      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrInferenceFailure, f.Endpoint)
	if f.Status != 0 {
		msg += fmt.Sprintf(": status %d", f.Status)
	}
	if f.Remote != "" {
		msg += ": " + f.Remote
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool { return target == ErrInferenceFailure }
