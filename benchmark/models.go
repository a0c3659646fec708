package main

import "time"

type ExplainRequest struct {
	CodeSnippet string `json:"codeSnippet"`
}

type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

type BenchResult struct {
	File     string
	Language string
	Duration time.Duration
	Status   int
	Chars    int
	Err      error
	Size     int64
}

type Agg struct {
	Count      int
	Failed     int
	Total      time.Duration
	TotalBytes int64
	TotalChars int
}
