package provider

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kdduha/code-explainer/backend/internal/models"
	genai "google.golang.org/genai"
)

// Gemini streams from the Gemini API. Each response is normalized to a
// chunk carrying a flat generated_text field.
type Gemini struct {
	cli     *genai.Client
	timeout time.Duration
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Gemini{cli: cli, timeout: cfg.Timeout}, nil
}

func (g *Gemini) Stream(ctx context.Context, req Request) (Stream, error) {
	contents, cfg := toGeminiRequest(req)

	var cancel context.CancelFunc
	if g.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
	}

	next, stop := iter.Pull2(g.cli.Models.GenerateContentStream(ctx, req.Model, contents, cfg))
	return &geminiStream{next: next, stop: stop, cancel: cancel}, nil
}

func toGeminiRequest(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, msg.Content)
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, cfg
}

type geminiChunk struct {
	GeneratedText string `json:"generated_text"`
}

func chunkFromGemini(resp *genai.GenerateContentResponse) (Chunk, error) {
	var text string
	if resp != nil {
		text = resp.Text()
	}
	return sonic.Marshal(geminiChunk{GeneratedText: text})
}

type geminiStream struct {
	next   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	cancel context.CancelFunc

	cur Chunk
	err error
}

func (s *geminiStream) Next() bool {
	if s.err != nil {
		return false
	}

	resp, err, ok := s.next()
	if !ok {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}

	s.cur, s.err = chunkFromGemini(resp)
	return s.err == nil
}

func (s *geminiStream) Current() Chunk {
	return s.cur
}

func (s *geminiStream) Err() error {
	return s.err
}

func (s *geminiStream) Close() error {
	s.stop()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
