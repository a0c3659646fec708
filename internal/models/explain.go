package models

import (
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/kdduha/code-explainer/backend/internal/failure"
)

const (
	MsgMissingSnippet  = "Please provide code in `codeSnippet`."
	msgSnippetTooLong  = "Code too long (%d chars). Please shorten to under %d characters."
	msgRequestTooLarge = "Request body too large. Please shorten to under %d bytes."
)

// ExplainRequest represents request for explain endpoint
type ExplainRequest struct {
	CodeSnippet string `json:"codeSnippet" validate:"required" example:"for i := range 3 { fmt.Println(i) }"`
}

type rawExplainRequest struct {
	CodeSnippet any `json:"codeSnippet"`
}

// ParseExplainRequest extracts and validates codeSnippet from a raw JSON
// body. The snippet is returned as sent, without trimming.
func ParseExplainRequest(body []byte, maxChars int) (*ExplainRequest, error) {
	var raw rawExplainRequest
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, &failure.Error{Category: failure.InvalidInput, Message: MsgMissingSnippet, Err: err}
	}

	snippet, ok := raw.CodeSnippet.(string)
	if !ok {
		return nil, failure.New(failure.InvalidInput, MsgMissingSnippet)
	}

	req := &ExplainRequest{CodeSnippet: snippet}
	if err := req.Validate(maxChars); err != nil {
		return nil, err
	}
	return req, nil
}

func (r ExplainRequest) Validate(maxChars int) error {
	if strings.TrimSpace(r.CodeSnippet) == "" {
		return failure.New(failure.InvalidInput, MsgMissingSnippet)
	}
	if n := utf8.RuneCountInString(r.CodeSnippet); n > maxChars {
		return failure.Newf(failure.PayloadTooLarge, msgSnippetTooLong, n, maxChars)
	}
	return nil
}

// RequestTooLarge is returned when the body exceeds the server byte cap,
// before the snippet length can be measured.
func RequestTooLarge(limit int64, err error) error {
	fe := failure.Newf(failure.PayloadTooLarge, msgRequestTooLarge, limit)
	fe.Err = err
	return fe
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type ChatMessage struct {
	Role    Role
	Content string
}

// GenerationParams holds the generation settings sent with every request.
type GenerationParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// ErrorResponse is the body of an SSE error event.
type ErrorResponse struct {
	Explanation string `json:"explanation"`
	Status      int    `json:"status"`
}

// StreamChunk is one step of an explanation stream. The last chunk has
// either Done set, with the final Explanation, or Err.
type StreamChunk struct {
	Delta       string `json:"delta,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Done        bool   `json:"-"`
	Err         error  `json:"-"`
}
