package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/kdduha/code-explainer/backend/internal/failure"
	"github.com/kdduha/code-explainer/backend/internal/metrics"
	"github.com/kdduha/code-explainer/backend/internal/models"
)

const healthMessage = "✅ AI Code Explainer backend running."

type explainService interface {
	Send(ctx context.Context, req *models.ExplainRequest) (*models.ExplainResponse, error)
	SendStream(ctx context.Context, req *models.ExplainRequest) (<-chan models.StreamChunk, error)
}

type Options struct {
	MaxInputChars int
	// MaxBodyBytes caps the request body; 0 disables the cap.
	MaxBodyBytes int64
}

type ExplainHandler struct {
	logger     *log.Logger
	service    explainService
	classifier *failure.Classifier
	opts       Options
}

func NewExplainHandler(logger *log.Logger, service explainService, classifier *failure.Classifier, opts Options) *ExplainHandler {
	return &ExplainHandler{
		logger:     logger,
		service:    service,
		classifier: classifier,
		opts:       opts,
	}
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *ExplainHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, healthMessage)
}

// Explain godoc
// @Summary Explain code snippet
// @Description Streams an explanation from the inference provider and returns it once complete.
// @Tags explain
// @Accept json
// @Produce json
// @Param request body models.ExplainRequest true "Explain request"
// @Success 200 {object} models.ExplainResponse
// @Failure 400 {object} models.ExplainResponse
// @Failure 413 {object} models.ExplainResponse
// @Failure 500 {object} models.ExplainResponse
// @Failure 502 {object} models.ExplainResponse
// @Router /explain [post]
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	req, err := h.readRequest(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp, err := h.service.Send(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	metrics.ExplainRequestsTotal("completed")
	writeJSON(w, http.StatusOK, resp)
}

// ExplainStream godoc
// @Summary Stream explanation
// @Description Streams explanation deltas as server-sent events: "message" per delta, then "done" or "error".
// @Tags explain
// @Accept json
// @Produce text/event-stream
// @Param request body models.ExplainRequest true "Explain request"
// @Success 200 {object} models.StreamChunk "Stream of deltas (SSE)"
// @Failure 400 {object} models.ExplainResponse
// @Failure 413 {object} models.ExplainResponse
// @Failure 500 {object} models.ExplainResponse
// @Router /explain/stream [post]
func (h *ExplainHandler) ExplainStream(w http.ResponseWriter, r *http.Request) {
	req, err := h.readRequest(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	stream, err := h.service.SendStream(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher := http.NewResponseController(w)

	for chunk := range stream {
		if chunk.Err != nil {
			report := h.classifier.Classify(chunk.Err)
			h.logFailure(report, chunk.Err)
			h.writeEvent(w, flusher, "error", models.ErrorResponse{
				Explanation: report.Explanation,
				Status:      report.Status,
			})
			return
		}

		if chunk.Done {
			metrics.ExplainRequestsTotal("completed")
			h.writeEvent(w, flusher, "done", models.ExplainResponse{Explanation: chunk.Explanation})
			return
		}

		if !h.writeEvent(w, flusher, "message", models.StreamChunk{Delta: chunk.Delta}) {
			return
		}
	}
}

func (h *ExplainHandler) readRequest(w http.ResponseWriter, r *http.Request) (*models.ExplainRequest, error) {
	var body io.Reader = r.Body
	if h.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, models.RequestTooLarge(mbe.Limit, err)
		}
		return nil, &failure.Error{Category: failure.InvalidInput, Message: models.MsgMissingSnippet, Err: err}
	}

	return models.ParseExplainRequest(raw, h.opts.MaxInputChars)
}

func (h *ExplainHandler) fail(w http.ResponseWriter, err error) {
	report := h.classifier.ReportFor(err)
	h.logFailure(report, err)
	writeJSON(w, report.Status, models.ExplainResponse{Explanation: report.Explanation})
}

func (h *ExplainHandler) logFailure(report failure.Report, err error) {
	metrics.ExplainRequestsTotal(string(report.Category))
	h.logger.Printf("explain failed (%s, %d): %v\n", report.Category, report.Status, err)
}

func (h *ExplainHandler) writeEvent(w http.ResponseWriter, flusher *http.ResponseController, event string, v any) bool {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Printf("failed to encode %s event: %v\n", event, err)
		return false
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	if err := flusher.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}
