package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"claim-summarizer/internal/app"
	"claim-summarizer/internal/extract"
	"claim-summarizer/internal/httputil"
	"claim-summarizer/internal/normalize"
	"claim-summarizer/internal/pipeline"
)

// multipartSlack covers form boundaries and the optional question field.
const multipartSlack = 64 << 10

const msgNoText = "No text could be found in the document."

type sessionResponse struct {
	SessionID       string   `json:"session_id"`
	State           string   `json:"state"`
	HasDocument     bool     `json:"has_document"`
	Filename        string   `json:"filename,omitempty"`
	Summary         []string `json:"summary,omitempty"`
	SummaryMarkdown string   `json:"summary_markdown,omitempty"`
}

type uploadResponse struct {
	TextFound       bool              `json:"text_found"`
	Message         string            `json:"message,omitempty"`
	Summary         []string          `json:"summary,omitempty"`
	SummaryMarkdown string            `json:"summary_markdown,omitempty"`
	Answer          *normalize.Answer `json:"answer,omitempty"`
	State           string            `json:"state"`
}

type askRequest struct {
	Question string `json:"question" validate:"required"`
}

type askResponse struct {
	Answer normalize.Answer `json:"answer"`
	State  string           `json:"state"`
}

type errorResponse struct {
	Error           string   `json:"error"`
	Kind            string   `json:"kind"`
	Retryable       bool     `json:"retryable"`
	State           string   `json:"state"`
	Summary         []string `json:"summary,omitempty"`
	SummaryMarkdown string   `json:"summary_markdown,omitempty"`
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", createSessionHandler(deps))
		r.Get("/{id}", getSessionHandler(deps))
		r.Delete("/{id}", endSessionHandler(deps))
		r.Post("/{id}/documents", uploadHandler(deps))
		r.Post("/{id}/questions", askHandler(deps))
		r.Post("/{id}/retry", retryHandler(deps))
	})
	return r
}

func createSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ctrl := deps.Sessions.Create()
		httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(ctrl.Snapshot()))
	}
}

func getSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookupSession(deps, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toSessionResponse(ctrl.Snapshot()))
	}
}

func endSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !deps.Sessions.End(id) {
			httputil.Fail(deps.Log, w, "session not found", nil, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookupSession(deps, w, r)
		if !ok {
			return
		}

		// Validate file size before parsing
		if r.ContentLength > maxFileSize+multipartSlack {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+multipartSlack)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), err, http.StatusRequestEntityTooLarge)
				return
			}
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusRequestEntityTooLarge)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}

		doc := extract.Document{
			Filename:  header.Filename,
			MediaType: mediaTypeOf(header.Header.Get("Content-Type"), header.Filename),
			Content:   content,
		}
		res, err := ctrl.OnUpload(r.Context(), doc, r.FormValue("question"))
		if err != nil {
			failPipeline(deps, w, ctrl, err, res.Summary)
			return
		}

		resp := uploadResponse{
			TextFound: res.TextFound,
			State:     ctrl.State().String(),
			Answer:    res.Answer,
		}
		if !res.TextFound {
			resp.Message = msgNoText
		} else {
			resp.Summary = res.Summary
			resp.SummaryMarkdown = res.Summary.Markdown()
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookupSession(deps, w, r)
		if !ok {
			return
		}

		var req askRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			failPipeline(deps, w, ctrl, &pipeline.Error{Kind: pipeline.KindInvalidQuestion, Message: err.Error(), Err: err}, nil)
			return
		}

		answer, err := ctrl.OnAskQuestion(r.Context(), req.Question)
		if err != nil {
			failPipeline(deps, w, ctrl, err, nil)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, askResponse{Answer: answer, State: ctrl.State().String()})
	}
}

func retryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookupSession(deps, w, r)
		if !ok {
			return
		}
		state := ctrl.OnRetryClicked()
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"state": state.String()})
	}
}

func lookupSession(deps app.Deps, w http.ResponseWriter, r *http.Request) (*pipeline.Controller, bool) {
	id := chi.URLParam(r, "id")
	ctrl, ok := deps.Sessions.Get(id)
	if !ok {
		httputil.Fail(deps.Log, w, "session not found", nil, http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}

// failPipeline maps controller errors to HTTP responses. A summary produced
// before a failed answer is still returned.
func failPipeline(deps app.Deps, w http.ResponseWriter, ctrl *pipeline.Controller, err error, summary normalize.Summary) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		httputil.Fail(deps.Log, w, "internal error", err, http.StatusInternalServerError)
		return
	}

	status := statusFor(perr.Kind)
	log := deps.Log.With("kind", string(perr.Kind), "status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Info("request rejected", "err", err)
	}

	resp := errorResponse{
		Error:     perr.Message,
		Kind:      string(perr.Kind),
		Retryable: perr.Retryable(),
		State:     ctrl.State().String(),
	}
	if len(summary) > 0 {
		resp.Summary = summary
		resp.SummaryMarkdown = summary.Markdown()
	}
	httputil.WriteJSON(w, status, resp)
}

func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case pipeline.KindExtraction:
		return http.StatusUnprocessableEntity
	case pipeline.KindNoDocument, pipeline.KindInvalidQuestion:
		return http.StatusBadRequest
	case pipeline.KindCooldown:
		return http.StatusConflict
	case pipeline.KindInferenceFailure, pipeline.KindMalformedResponse:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// mediaTypeOf trusts the declared part type and falls back to the file
// extension when the client sent none.
func mediaTypeOf(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extract.MediaTypePDF
	case ".docx":
		return extract.MediaTypeDOCX
	default:
		return declared
	}
}

func toSessionResponse(s pipeline.Snapshot) sessionResponse {
	return sessionResponse{
		SessionID:       s.SessionID,
		State:           s.State.String(),
		HasDocument:     s.HasText,
		Filename:        s.Filename,
		Summary:         s.Summary,
		SummaryMarkdown: s.Summary.Markdown(),
	}
}
