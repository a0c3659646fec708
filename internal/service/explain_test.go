package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/kdduha/code-explainer/backend/internal/failure"
	"github.com/kdduha/code-explainer/backend/internal/models"
	"github.com/kdduha/code-explainer/backend/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider replays chunks and then fails with err, if set.
type fakeProvider struct {
	chunks  []string
	err     error
	openErr error

	requests []provider.Request
	closed   int
}

func (f *fakeProvider) Stream(_ context.Context, req provider.Request) (provider.Stream, error) {
	f.requests = append(f.requests, req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeStream{owner: f, chunks: f.chunks, err: f.err, pos: -1}, nil
}

type fakeStream struct {
	owner  *fakeProvider
	chunks []string
	err    error
	pos    int
}

func (s *fakeStream) Next() bool {
	s.pos++
	return s.pos < len(s.chunks)
}

func (s *fakeStream) Current() provider.Chunk { return provider.Chunk(s.chunks[s.pos]) }

func (s *fakeStream) Err() error {
	if s.pos >= len(s.chunks) {
		return s.err
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.owner.closed++
	return nil
}

func deltaChunk(text string) string {
	return fmt.Sprintf(`{"choices":[{"index":0,"delta":{"content":%q}}]}`, text)
}

var testGeneration = models.GenerationParams{Model: "test-model", MaxTokens: 600, Temperature: 0.1}

func newTestService(p provider.Provider) *ExplainService {
	return NewExplainService(log.New(io.Discard, "", 0), p, testGeneration)
}

func send(t *testing.T, s *ExplainService, snippet string) (*models.ExplainResponse, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Send(ctx, &models.ExplainRequest{CodeSnippet: snippet})
}

func TestSendConcatenatesInArrivalOrder(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk("Hello"), deltaChunk(", "), deltaChunk("world.")}}

	resp, err := send(t, newTestService(p), "x := 1")

	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", resp.Explanation)
	assert.Equal(t, 1, p.closed)
}

func TestSendIsOrderSensitive(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk("world."), deltaChunk(", "), deltaChunk("Hello"), deltaChunk("Hello")}}

	resp, err := send(t, newTestService(p), "x := 1")

	require.NoError(t, err)
	assert.Equal(t, "world., HelloHello", resp.Explanation)
}

func TestSendTrimsExplanation(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk("\n\n  Step 1"), deltaChunk(": add.\n  ")}}

	resp, err := send(t, newTestService(p), "x := 1")

	require.NoError(t, err)
	assert.Equal(t, "Step 1: add.", resp.Explanation)
}

func TestSendMixedChunkShapes(t *testing.T) {
	p := &fakeProvider{chunks: []string{
		deltaChunk("a"),
		`{"choices":[{"message":{"content":"b"}}]}`,
		`{"generated_text":"c"}`,
		`{"choices":[{"delta":{"role":"assistant"}}]}`,
		`{"choices":[]}`,
		`{"usage":{"total_tokens":3}}`,
		`not json at all`,
	}}

	resp, err := send(t, newTestService(p), "x := 1")

	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Explanation)
}

func TestSendEmptyStreamUsesPlaceholder(t *testing.T) {
	for name, chunks := range map[string][]string{
		"no chunks":         nil,
		"only empty deltas": {deltaChunk(""), `{"choices":[{"delta":{}}]}`},
		"only whitespace":   {deltaChunk("  "), deltaChunk("\n")},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := send(t, newTestService(&fakeProvider{chunks: chunks}), "x := 1")

			require.NoError(t, err)
			assert.Equal(t, EmptyExplanation, resp.Explanation)
		})
	}
}

func TestSendIsIdempotentWithDeterministicProvider(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk("same"), deltaChunk(" answer")}}
	s := newTestService(p)

	first, err := send(t, s, "x := 1")
	require.NoError(t, err)
	second, err := send(t, s, "x := 1")
	require.NoError(t, err)

	assert.Equal(t, first.Explanation, second.Explanation)
	require.Len(t, p.requests, 2)
	assert.Equal(t, p.requests[0], p.requests[1])
}

func TestSendBuildsProviderRequest(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk("ok")}}

	_, err := send(t, newTestService(p), "  print(1)\n")
	require.NoError(t, err)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 600, req.MaxTokens)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	assert.Equal(t, BuildMessages("  print(1)\n"), req.Messages)
}

func TestSendPropagatesStreamErrorUnchanged(t *testing.T) {
	boom := errors.New("rate limit exceeded")
	p := &fakeProvider{chunks: []string{deltaChunk("partial")}, err: boom}

	resp, err := send(t, newTestService(p), "x := 1")

	require.Error(t, err)
	assert.Nil(t, resp)

	var se *failure.StreamError
	require.True(t, errors.As(err, &se))
	assert.Same(t, boom, se.Err)
	assert.Equal(t, 1, p.closed)
}

func TestSendPropagatesOpenError(t *testing.T) {
	boom := errors.New("No Inference Provider available")
	p := &fakeProvider{openErr: boom}

	_, err := send(t, newTestService(p), "x := 1")

	var se *failure.StreamError
	require.True(t, errors.As(err, &se))
	assert.Same(t, boom, se.Err)
}

func TestSendNilRequest(t *testing.T) {
	_, err := newTestService(&fakeProvider{}).Send(context.Background(), nil)

	require.Error(t, err)
	var se *failure.StreamError
	assert.False(t, errors.As(err, &se))
}

func TestSendStreamForwardsDeltasThenDone(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaChunk(" a"), `{"choices":[{"delta":{}}]}`, deltaChunk("b ")}}

	stream, err := newTestService(p).SendStream(context.Background(), &models.ExplainRequest{CodeSnippet: "x"})
	require.NoError(t, err)

	var got []models.StreamChunk
	for chunk := range stream {
		got = append(got, chunk)
	}

	assert.Equal(t, []models.StreamChunk{
		{Delta: " a"},
		{Delta: "b "},
		{Explanation: "ab", Done: true},
	}, got)
}

func TestSendStreamStopsWhenContextCancelled(t *testing.T) {
	chunks := make([]string, 100)
	for i := range chunks {
		chunks[i] = deltaChunk("x")
	}
	p := &fakeProvider{chunks: chunks}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newTestService(p).SendStream(ctx, &models.ExplainRequest{CodeSnippet: "x"})
	require.NoError(t, err)

	<-stream
	cancel()

	done := make(chan struct{})
	go func() {
		for range stream {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream was not closed after cancellation")
	}
	assert.Equal(t, 1, p.closed)
}

func TestBuildMessages(t *testing.T) {
	snippet := "func add(a, b int) int {\n\treturn a + b\n}"

	messages := BuildMessages(snippet)

	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "step-by-step")
	assert.Contains(t, messages[0].Content, "complexity")
	assert.Equal(t, models.RoleUser, messages[1].Role)
	assert.Equal(t, "Please explain the following code:\n\n"+snippet, messages[1].Content)
	assert.True(t, strings.HasSuffix(messages[1].Content, snippet))
}
