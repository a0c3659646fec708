package service

import (
	"github.com/kdduha/code-explainer/backend/internal/provider"
	"github.com/tidwall/gjson"
)

// deltaExtractor returns the text carried by a chunk in one particular shape.
type deltaExtractor func(chunk provider.Chunk) (string, bool)

// Order matters: the first extractor that finds text wins.
var deltaExtractors = []deltaExtractor{
	pathExtractor("choices.0.delta.content"),
	pathExtractor("choices.0.message.content"),
	pathExtractor("generated_text"),
}

func pathExtractor(path string) deltaExtractor {
	return func(chunk provider.Chunk) (string, bool) {
		res := gjson.GetBytes(chunk, path)
		if res.Type != gjson.String || res.Str == "" {
			return "", false
		}
		return res.Str, true
	}
}

func extractDelta(chunk provider.Chunk) string {
	for _, extract := range deltaExtractors {
		if delta, ok := extract(chunk); ok {
			return delta
		}
	}
	return ""
}
