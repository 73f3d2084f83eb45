// Benchmark tool for measuring Deviza's clause extraction against labeled data.
//
// Usage:
//
//	go run ./cmd/benchmark -csv /path/to/labeled.csv -url http://localhost:8080
//
// The CSV needs the columns text, language and expected. expected holds the
// categories the text should yield, separated by '|', or is empty for a
// negative sample. The tool:
//  1. Reads the labeled samples
//  2. Sends each text to POST /extract
//  3. Compares the extracted categories with the labels
//  4. Reports precision, recall and F1 per category
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/deviza/internal/domain"
)

// Sample is one labeled row.
type Sample struct {
	Line     int
	Text     string
	Language string
	Expected map[domain.Category]bool
}

// ExtractRequest is the Deviza API request format.
type ExtractRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Counters tracks run-level results.
type Counters struct {
	TotalProcessed   int64
	TotalErrors      int64
	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labeled CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Deviza base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 0, "Maximum samples to process (0 = all)")
	workers := flag.Int("workers", 4, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each misclassified sample")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/labeled.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("DEVIZA BENCHMARK - clause extraction")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Deviza URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Deviza not reachable at %s: %v\n", *baseURL, err)
		os.Exit(1)
	}
	fmt.Println("Deviza is healthy")

	file, err := os.Open(*csvPath)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	samples, err := readSamples(file, *limit)
	file.Close()
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d samples\n", len(samples))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	start := time.Now()
	scores, counters := runBenchmark(samples, *baseURL, *tenantID, *workers, *verbose)
	printResults(scores, counters, time.Since(start))
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readSamples parses the labeled CSV. Unknown label categories are an error
// so typos do not silently count as misses.
func readSamples(r io.Reader, limit int) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"text", "expected"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	langCol, hasLang := colIndex["language"]

	var samples []Sample
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := Sample{
			Line:     line,
			Text:     field(record, colIndex["text"]),
			Expected: make(map[domain.Category]bool),
		}
		if hasLang {
			s.Language = field(record, langCol)
		}
		for _, label := range strings.Split(field(record, colIndex["expected"]), "|") {
			label = strings.TrimSpace(label)
			if label == "" || label == "none" {
				continue
			}
			cat := domain.Category(label)
			if !cat.Valid() {
				return nil, fmt.Errorf("line %d: unknown category %q", line, label)
			}
			s.Expected[cat] = true
		}
		if strings.TrimSpace(s.Text) == "" {
			continue
		}

		samples = append(samples, s)
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	return samples, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func runBenchmark(samples []Sample, baseURL, tenantID string, numWorkers int, verbose bool) (*Scoreboard, *Counters) {
	scores := NewScoreboard()
	counters := &Counters{}

	work := make(chan Sample, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for s := range work {
				start := time.Now()
				result, err := extract(client, baseURL, tenantID, s)
				atomic.AddInt64(&counters.ProcessingTimeMs, time.Since(start).Milliseconds())
				atomic.AddInt64(&counters.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&counters.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: line %d -> %v\n", s.Line, err)
					}
					continue
				}

				predicted := make(map[domain.Category]bool)
				for _, c := range result.Clauses {
					predicted[c.ClauseType] = true
				}
				if !scores.Record(s.Expected, predicted) && verbose {
					fmt.Printf("MISS line %d: expected %v, got %v\n", s.Line, keys(s.Expected), keys(predicted))
				}
			}
		}()
	}

	for _, s := range samples {
		work <- s
	}
	close(work)
	wg.Wait()

	return scores, counters
}

func extract(client *http.Client, baseURL, tenantID string, s Sample) (*domain.ExtractionResult, error) {
	body, err := json.Marshal(ExtractRequest{Text: s.Text, Language: s.Language})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result domain.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func printResults(s *Scoreboard, c *Counters, duration time.Duration) {
	fmt.Println("\nBENCHMARK RESULTS")
	fmt.Printf("\n   Total Processed:  %d\n", c.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", c.TotalErrors)

	fmt.Printf("\n   %-14s %6s %6s %6s %10s %8s %8s\n", "category", "TP", "FP", "FN", "precision", "recall", "F1")
	for _, cat := range domain.AllCategories {
		m := s.Get(cat)
		fmt.Printf("   %-14s %6d %6d %6d %10.4f %8.4f %8.4f\n",
			cat, m.TP, m.FP, m.FN, m.Precision(), m.Recall(), m.F1())
	}
	total := s.Micro()
	fmt.Printf("   %-14s %6d %6d %6d %10.4f %8.4f %8.4f\n",
		"micro", total.TP, total.FP, total.FN, total.Precision(), total.Recall(), total.F1())

	fmt.Printf("\n   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if c.TotalProcessed > 0 {
		fmt.Printf("   Avg Latency:      %.2f ms\n", float64(c.ProcessingTimeMs)/float64(c.TotalProcessed))
		fmt.Printf("   Throughput:       %.2f docs/sec\n", float64(c.TotalProcessed)/duration.Seconds())
	}
	fmt.Println()
}
