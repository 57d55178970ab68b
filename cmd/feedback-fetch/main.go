package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/cognicore/autocat/pkg/autocat/ingest"
)

// exportItem is one record from a feedback export endpoint. The field
// set follows the common survey-export shape; unknown fields are
// ignored.
type exportItem struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Comment   string          `json:"comment"`
	Rating    json.RawMessage `json:"rating"`
	CreatedAt string          `json:"created_at"`
}

// feedbackRow is the JSONL format autocat-run ingests.
type feedbackRow struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Rating    float64 `json:"rating,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

func main() {
	var (
		baseURL  = flag.String("url", "", "Feedback export endpoint (required)")
		token    = flag.String("token", "", "Optional bearer token")
		pages    = flag.Int("pages", 10, "Maximum pages to fetch")
		pageSize = flag.Int("page-size", 100, "Records per page")
		out      = flag.String("out", "testdata/feedback/entries.jsonl", "Output JSONL path")
		rps      = flag.Float64("rps", 2, "Request rate limit per second")
	)
	flag.Parse()

	if *baseURL == "" {
		log.Fatal("--url required")
	}

	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	client := &http.Client{Timeout: 30 * time.Second}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatal("create output directory: ", err)
	}
	outFile, err := os.Create(*out)
	if err != nil {
		log.Fatal("create output file: ", err)
	}
	defer outFile.Close()

	encoder := json.NewEncoder(outFile)
	written := 0

	for page := 1; page <= *pages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatal("rate limiter: ", err)
		}

		items, err := fetchPage(ctx, client, *baseURL, *token, page, *pageSize)
		if err != nil {
			log.Fatalf("fetch page %d: %v", page, err)
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			row, ok := convert(item)
			if !ok {
				continue
			}
			if err := encoder.Encode(row); err != nil {
				log.Printf("encode row %s: %v", row.ID, err)
				continue
			}
			written++
		}
		log.Printf("Fetched page %d (%d records)...", page, len(items))

		if len(items) < *pageSize {
			break
		}
	}

	log.Printf("Wrote %d feedback entries to %s", written, *out)
}

func fetchPage(ctx context.Context, client *http.Client, baseURL, token string, page, pageSize int) ([]exportItem, error) {
	url := fmt.Sprintf("%s?page=%d&limit=%d", baseURL, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Accept either a bare array or an {"items": [...]} envelope.
	var items []exportItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var envelope struct {
		Items []exportItem `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func convert(item exportItem) (feedbackRow, bool) {
	text := item.Text
	if text == "" {
		text = item.Comment
	}
	if item.ID == "" || text == "" {
		return feedbackRow{}, false
	}

	row := feedbackRow{
		ID:   item.ID,
		Text: ingest.StripHTML(text),
	}

	// Ratings arrive as numbers or numeric strings depending on the
	// export backend.
	if len(item.Rating) > 0 {
		var num float64
		if err := json.Unmarshal(item.Rating, &num); err == nil {
			row.Rating = num
		} else {
			var str string
			if err := json.Unmarshal(item.Rating, &str); err == nil {
				fmt.Sscanf(str, "%f", &row.Rating)
			}
		}
	}

	if item.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
			row.Timestamp = ts.UTC().Format(time.RFC3339)
		}
	}

	return row, true
}
