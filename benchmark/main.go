package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	backendEndpoint = flag.String("endpoint", "http://localhost:5000/explain", "explain endpoint")
	dataDir         = flag.String("data", filepath.Join(".", "data"), "directory with one sub-directory of snippets per language")
	requestTimeout  = flag.Duration("timeout", 2*time.Minute, "per-request timeout")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	languages, err := os.ReadDir(*dataDir)
	if err != nil {
		log.Fatalf("read data dir: %v", err)
	}

	var results []BenchResult
	for _, language := range languages {
		if !language.IsDir() {
			continue
		}
		dataPath := filepath.Join(*dataDir, language.Name())

		snippets, _ := os.ReadDir(dataPath)

		for _, snippet := range snippets {
			filePath := filepath.Join(dataPath, snippet.Name())
			res := benchmarkSnippet(ctx, language.Name(), filePath)

			if res.Err != nil {
				log.Println("ERR:", res.File, res.Err)
			} else {
				log.Printf("OK %s %v", res.File, res.Duration)
			}

			results = append(results, res)
		}
	}

	printMarkdown(results)
}

func benchmarkSnippet(ctx context.Context, language, filePath string) BenchResult {
	start := time.Now()

	fileRaw, err := os.ReadFile(filePath)
	if err != nil {
		return BenchResult{File: filePath, Language: language, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, *requestTimeout)
	defer cancel()

	status, resp, err := sendExplain(ctx, ExplainRequest{CodeSnippet: string(fileRaw)})

	return BenchResult{
		File:     filepath.Base(filePath),
		Language: language,
		Duration: time.Since(start),
		Status:   status,
		Chars:    len(resp.Explanation),
		Err:      err,
		Size:     int64(len(fileRaw)),
	}
}

func sendExplain(ctx context.Context, req ExplainRequest) (int, ExplainResponse, error) {
	var out ExplainResponse

	body, err := json.Marshal(req)
	if err != nil {
		return 0, out, fmt.Errorf("marshal req: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, *backendEndpoint, bytes.NewReader(body))
	if err != nil {
		return 0, out, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return 0, out, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return resp.StatusCode, out, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, out, fmt.Errorf("bad status %d: %s",
			resp.StatusCode,
			strings.TrimSpace(out.Explanation),
		)
	}
	return resp.StatusCode, out, nil
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		a := m[r.Language]
		if r.Err != nil {
			a.Failed++
			m[r.Language] = a
			continue
		}
		a.Count++
		a.TotalBytes += r.Size
		a.TotalChars += r.Chars
		a.Total += r.Duration
		m[r.Language] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Print("\n## Benchmark Results\n\n")
	fmt.Println("| Language | Requests | Failed | Avg Time | Total Time | Avg Snippet Size | Avg Explanation |")
	fmt.Println("|----------|----------|--------|----------|------------|------------------|-----------------|")

	agg := aggregate(results)

	languages := make([]string, 0, len(agg))
	for language := range agg {
		languages = append(languages, language)
	}
	sort.Strings(languages)

	var (
		totalCount    int
		totalFailed   int
		totalDuration time.Duration
		totalBytes    int64
		totalChars    int
	)

	for _, language := range languages {
		a := agg[language]
		totalFailed += a.Failed
		if a.Count == 0 {
			fmt.Printf("| %s | 0 | %d | - | - | - | - |\n", language, a.Failed)
			continue
		}
		avg := a.Total / time.Duration(a.Count)
		avgSize := a.TotalBytes / int64(a.Count)
		fmt.Printf("| %s | %d | %d | %v | %v | %s | %d chars |\n",
			language,
			a.Count,
			a.Failed,
			avg.Round(time.Millisecond),
			a.Total.Round(time.Millisecond),
			humanBytes(avgSize),
			a.TotalChars/a.Count,
		)
		totalCount += a.Count
		totalDuration += a.Total
		totalBytes += a.TotalBytes
		totalChars += a.TotalChars
	}

	if totalCount > 0 {
		mean := totalDuration / time.Duration(totalCount)
		avgSize := totalBytes / int64(totalCount)
		fmt.Printf("| **ALL** | %d | %d | %v | %v | %s | %d chars |\n",
			totalCount,
			totalFailed,
			mean.Round(time.Millisecond),
			totalDuration.Round(time.Millisecond),
			humanBytes(avgSize),
			totalChars/totalCount,
		)
	}
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
