package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

// Catalog is the operator-maintained list of corpus sources, usually kept
// under version control next to the deployment.
type Catalog struct {
	IndexName string          `yaml:"index_name"`
	Sources   []CatalogSource `yaml:"sources"`
}

type CatalogSource struct {
	URL       string `yaml:"url"`
	Lang      string `yaml:"lang"`
	Topic     string `yaml:"topic"`
	Country   string `yaml:"country"`
	Section   string `yaml:"section"`
	IndexName string `yaml:"index_name"`
}

func loadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &cat, nil
}

func validateCatalog(cat *Catalog) []error {
	var errs []error
	if len(cat.Sources) == 0 {
		errs = append(errs, fmt.Errorf("catalog has no sources"))
	}
	for i, src := range cat.Sources {
		if strings.TrimSpace(src.URL) == "" {
			errs = append(errs, fmt.Errorf("source %d: url is required", i+1))
			continue
		}
		parsed, err := url.Parse(src.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("source %d: invalid url %q", i+1, src.URL))
		}
		if src.Topic != "" && !domain.ValidTopic(src.Topic) {
			errs = append(errs, fmt.Errorf("source %d: unknown topic %q", i+1, src.Topic))
		}
	}
	return errs
}

func newCatalogCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the source catalog",
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog file for malformed entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			errs := validateCatalog(cat)
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), "invalid:", e)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d invalid entries", len(errs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d sources\n", len(cat.Sources))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print catalog sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			for _, src := range cat.Sources {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tlang=%s topic=%s country=%s\n", src.URL, src.Lang, src.Topic, src.Country)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "data/catalog.yaml", "path to the catalog file")
	cmd.AddCommand(validate, list)
	return cmd
}
