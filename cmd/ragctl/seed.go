package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

// newSeedCmd submits every catalog source to the running API. Re-running the
// seed is safe: each submission registers a new version of its source and the
// latest approved one wins.
func newSeedCmd() *cobra.Command {
	var (
		catalogPath string
		apiBase     string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit all catalog sources for ingestion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			if errs := validateCatalog(cat); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(cmd.ErrOrStderr(), "invalid:", e)
				}
				return fmt.Errorf("catalog validation failed with %d errors", len(errs))
			}

			client := &http.Client{Timeout: timeout}
			failed := 0
			for _, src := range cat.Sources {
				indexName := src.IndexName
				if indexName == "" {
					indexName = cat.IndexName
				}
				req := domain.IngestRequest{
					SourceURI: src.URL,
					Lang:      src.Lang,
					Topic:     src.Topic,
					Country:   src.Country,
					Section:   src.Section,
					IndexName: indexName,
				}
				doc, err := submitSource(cmd, client, apiBase, req)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", src.URL, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s document_id=%s version=%d\n", src.URL, doc.ID, doc.Version)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(cat.Sources))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "data/catalog.yaml", "path to the catalog file")
	cmd.Flags().StringVar(&apiBase, "api", "http://localhost:8080", "base URL of the ingestion API")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	return cmd
}

func submitSource(cmd *cobra.Command, client *http.Client, apiBase string, req domain.IngestRequest) (*domain.Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, apiBase+"/v1/ingest/url", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var doc domain.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &doc, nil
}
