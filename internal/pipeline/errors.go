package pipeline

import "fmt"

// Kind classifies a user-visible failure.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindExtraction        Kind = "extraction_error"
	KindInferenceFailure  Kind = "inference_failure"
	KindMalformedResponse Kind = "malformed_response"
	KindCooldown          Kind = "cooldown"
	KindNoDocument        Kind = "no_document"
	KindInvalidQuestion   Kind = "invalid_question"
)

// User-facing messages.
const (
	msgInference   = "An error occurred while processing the document. This usually means that model is still loading. Please hit the retry button and try again."
	msgCooldown    = "Please wait for the model to load and then try uploading your document again."
	msgExtraction  = "Failed to load the document. Please try again."
	msgUnsupported = "Unsupported document type %q. Please upload a PDF or Word (.docx) file."
	msgNoDocument  = "Upload a document before asking a question."
	msgNoQuestion  = "Please enter a question about the claim."
)

// Error is returned by every Controller action that fails.
type Error struct {
	Kind    Kind
	Message string // safe to show to the user
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the session is cooling down and the user should be
// offered the retry action.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindInferenceFailure, KindMalformedResponse, KindCooldown:
		return true
	default:
		return false
	}
}
