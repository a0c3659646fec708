package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kdduha/code-explainer/backend/internal/failure"
	"github.com/kdduha/code-explainer/backend/internal/metrics"
	"github.com/kdduha/code-explainer/backend/internal/models"
	"github.com/kdduha/code-explainer/backend/internal/provider"
)

var errStreamInterrupted = errors.New("stream ended without a final chunk")

type ExplainService struct {
	logger     *log.Logger
	provider   provider.Provider
	generation models.GenerationParams
}

func NewExplainService(logger *log.Logger, p provider.Provider, generation models.GenerationParams) *ExplainService {
	return &ExplainService{
		logger:     logger,
		provider:   p,
		generation: generation,
	}
}

// Send drives the stream to completion and returns the final explanation.
// Provider failures come back wrapped by failure.Stream.
func (e *ExplainService) Send(ctx context.Context, req *models.ExplainRequest) (*models.ExplainResponse, error) {
	stream, err := e.SendStream(ctx, req)
	if err != nil {
		return nil, err
	}

	// Drain until close so the producer has released the stream on return.
	var (
		resp      *models.ExplainResponse
		streamErr error
	)
	for chunk := range stream {
		switch {
		case chunk.Err != nil:
			streamErr = chunk.Err
		case chunk.Done:
			resp = &models.ExplainResponse{Explanation: chunk.Explanation}
		}
	}

	switch {
	case streamErr != nil:
		return nil, failure.Stream(streamErr)
	case resp != nil:
		return resp, nil
	case ctx.Err() != nil:
		return nil, failure.Stream(ctx.Err())
	}
	return nil, failure.Stream(errStreamInterrupted)
}

// SendStream forwards every non-empty delta in arrival order and finishes
// with either a Done chunk holding the trimmed explanation or an Err chunk.
// The channel is closed afterwards, or early if ctx is cancelled.
func (e *ExplainService) SendStream(
	ctx context.Context,
	req *models.ExplainRequest,
) (<-chan models.StreamChunk, error) {
	if req == nil {
		return nil, fmt.Errorf("nil explain request")
	}

	params := e.buildProviderReq(req)
	ch := make(chan models.StreamChunk, 1)

	go func() {
		defer close(ch)

		start := time.Now()
		outcome := "completed"
		defer func() {
			metrics.ExplainStreamDuration(outcome, time.Since(start))
		}()

		sendOrStop := func(msg models.StreamChunk) bool {
			select {
			case ch <- msg:
				return true
			case <-ctx.Done():
				outcome = "canceled"
				return false
			}
		}

		fail := func(err error) {
			outcome = "failed"
			e.logger.Printf("provider stream error: %v\n", err)
			sendOrStop(models.StreamChunk{Err: err})
		}

		stream, err := e.provider.Stream(ctx, params)
		if err != nil {
			fail(err)
			return
		}
		defer stream.Close()

		var builder strings.Builder

		for stream.Next() {
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}

			delta := extractDelta(stream.Current())
			if delta == "" {
				continue
			}

			metrics.ExplainStreamChunks()
			builder.WriteString(delta)
			if !sendOrStop(models.StreamChunk{Delta: delta}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			fail(err)
			return
		}

		explanation := strings.TrimSpace(builder.String())
		if explanation == "" {
			outcome = "empty"
			explanation = EmptyExplanation
		}

		sendOrStop(models.StreamChunk{Explanation: explanation, Done: true})
	}()

	return ch, nil
}
