package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

// goldRow is one labeled retrieval query: a question plus the source URLs
// considered relevant. A citation hits when its URI starts with one of them.
type goldRow struct {
	Query        string   `json:"query"`
	RelevantURLs []string `json:"relevant_urls"`
}

type evalResult struct {
	Query     string   `json:"query"`
	K         int      `json:"k"`
	Hit       bool     `json:"hit"`
	LatencyMS float64  `json:"latency_ms"`
	TopicHint string   `json:"topic_hint,omitempty"`
	URIs      []string `json:"uris"`
}

// newEvalCmd replays a gold query set against the running API and reports
// hit-rate and latency per k.
func newEvalCmd() *cobra.Command {
	var (
		goldPath    string
		catalogPath string
		apiBase     string
		outPath     string
		kList       string
		langs       string
		useReranker bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure retrieval hit-rate over a gold query set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gold, err := loadGoldSet(goldPath)
			if err != nil {
				return err
			}
			ks, err := parseKList(kList)
			if err != nil {
				return err
			}
			topicByURL := map[string]string{}
			if cat, err := loadCatalog(catalogPath); err == nil {
				for _, src := range cat.Sources {
					topicByURL[src.URL] = src.Topic
				}
			}
			langPref := splitCSV(langs)

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create results file: %w", err)
			}
			defer out.Close()
			enc := json.NewEncoder(out)

			client := &http.Client{Timeout: timeout}
			hits := map[int]int{}
			latencies := map[int][]float64{}
			for _, row := range gold {
				topicHint := inferTopicHint(row.RelevantURLs, topicByURL)
				for _, k := range ks {
					uris, ms, err := evalOnce(cmd, client, apiBase, domain.QueryRequest{
						Query:       row.Query,
						K:           k,
						LangPref:    langPref,
						UseReranker: useReranker,
						TopicHint:   topicHint,
					})
					if err != nil {
						return fmt.Errorf("query %q k=%d: %w", row.Query, k, err)
					}
					hit := anyRelevant(uris, row.RelevantURLs)
					if hit {
						hits[k]++
					}
					latencies[k] = append(latencies[k], ms)
					if err := enc.Encode(evalResult{
						Query: row.Query, K: k, Hit: hit, LatencyMS: ms,
						TopicHint: topicHint, URIs: uris,
					}); err != nil {
						return fmt.Errorf("write result: %w", err)
					}
				}
			}

			for _, k := range ks {
				total := len(gold)
				rate := 0.0
				if total > 0 {
					rate = float64(hits[k]) / float64(total)
				}
				p50, worst := latencySummary(latencies[k])
				fmt.Fprintf(cmd.OutOrStdout(), "k=%d hit_rate=%.2f (%d/%d) latency_p50=%.0fms latency_max=%.0fms\n",
					k, rate, hits[k], total, p50, worst)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "results written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&goldPath, "gold", "data/gold_set.json", "path to the gold query set")
	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "data/catalog.yaml", "path to the catalog file")
	cmd.Flags().StringVar(&apiBase, "api", "http://localhost:8080", "base URL of the query API")
	cmd.Flags().StringVar(&outPath, "out", "eval_results.jsonl", "per-query results file")
	cmd.Flags().StringVar(&kList, "k-list", "1,3,5", "comma-separated k values")
	cmd.Flags().StringVar(&langs, "langs", "es,en", "comma-separated language preference")
	cmd.Flags().BoolVar(&useReranker, "use-reranker", true, "request reranking")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	return cmd
}

func loadGoldSet(path string) ([]goldRow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gold set: %w", err)
	}
	var gold []goldRow
	if err := json.Unmarshal(raw, &gold); err != nil {
		return nil, fmt.Errorf("parse gold set: %w", err)
	}
	if len(gold) == 0 {
		return nil, fmt.Errorf("gold set %s is empty", path)
	}
	return gold, nil
}

func parseKList(kList string) ([]int, error) {
	var ks []int
	for _, part := range splitCSV(kList) {
		k, err := strconv.Atoi(part)
		if err != nil || k < 1 {
			return nil, fmt.Errorf("invalid k value %q", part)
		}
		ks = append(ks, k)
	}
	if len(ks) == 0 {
		return nil, fmt.Errorf("k list is empty")
	}
	return ks, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func inferTopicHint(relevantURLs []string, topicByURL map[string]string) string {
	for _, u := range relevantURLs {
		if topic := topicByURL[u]; topic != "" {
			return topic
		}
	}
	return ""
}

func anyRelevant(uris, relevantURLs []string) bool {
	for _, uri := range uris {
		for _, rel := range relevantURLs {
			if rel != "" && strings.HasPrefix(uri, rel) {
				return true
			}
		}
	}
	return false
}

func evalOnce(cmd *cobra.Command, client *http.Client, apiBase string, req domain.QueryRequest) ([]string, float64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, apiBase+"/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer resp.Body.Close()
	ms := float64(time.Since(start)) / float64(time.Millisecond)

	if resp.StatusCode != http.StatusOK {
		return nil, ms, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var payload domain.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ms, fmt.Errorf("decode response: %w", err)
	}

	uris := make([]string, 0, len(payload.Citations))
	for _, c := range payload.Citations {
		uris = append(uris, c.URI)
	}
	return uris, ms, nil
}

func latencySummary(values []float64) (p50, worst float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2], sorted[len(sorted)-1]
}
