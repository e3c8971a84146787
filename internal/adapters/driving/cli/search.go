package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

var (
	searchLimit         int
	searchJSON          bool
	searchKeywordsOnly  bool
	searchVectorWeight  float64
	searchKeywordWeight float64
	searchDocumentType  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines keyword (BM25) and semantic (vector) relevance with configurable
weights. When one channel is unavailable the other still answers and the
result is marked degraded.

Use --keywords to run keyword search only and show highlighted passages.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchKeywordsOnly, "keywords", false, "keyword search only, with highlights")
	searchCmd.Flags().Float64Var(&searchVectorWeight, "vector-weight", 0, "weight of semantic relevance (0-1)")
	searchCmd.Flags().Float64Var(&searchKeywordWeight, "keyword-weight", 0, "weight of keyword relevance (0-1)")
	searchCmd.Flags().StringVarP(&searchDocumentType, "type", "t", "", "restrict to resume, cover_letter or portfolio")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	if searchKeywordsOnly {
		resp, err := searchService.SearchByKeywords(cmd.Context(), query, searchLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if searchJSON {
			return outputJSON(cmd, resp)
		}
		return outputKeywordTable(cmd, resp)
	}

	docType := domain.DocumentType(searchDocumentType)
	if docType != "" && !docType.IsValid() {
		return fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, searchDocumentType)
	}

	opts := domain.SearchOptions{
		Limit:        searchLimit,
		Weights:      domain.Weights{Vector: searchVectorWeight, Keyword: searchKeywordWeight},
		DocumentType: docType,
	}

	resp, err := searchService.SearchHybrid(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, resp)
	}

	return outputSearchTable(cmd, resp)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp domain.SearchResponse) error {
	if !resp.Success {
		cmd.Printf("Search failed: %s\n", resp.Message)
		return nil
	}
	if resp.Degraded {
		cmd.Printf("Warning: %s\n", resp.Message)
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n", resp.Strategy)
	cmd.Println()
	for i := range resp.Results {
		// Format: [N] document (final) vector/keyword
		r := resp.Results[i]
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.DocumentID, r.FinalScore)
		cmd.Printf("      vector %.3f  keyword %.3f  via %s\n", r.VectorScore, r.KeywordScore, joinMethods(r.ContributingMethods))
		if len(r.Highlights) > 0 {
			cmd.Printf("      %s\n", r.Highlights[0])
		}
		cmd.Println()
	}

	return nil
}

func outputKeywordTable(cmd *cobra.Command, resp domain.KeywordSearchResponse) error {
	if !resp.Success {
		cmd.Printf("Search failed: %s\n", resp.Message)
		return nil
	}
	if len(resp.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Hits {
		hit := resp.Hits[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, hit.SourceID, hit.Score)
		for _, h := range hit.Highlights {
			cmd.Printf("      %s\n", h)
		}
		cmd.Println()
	}
	return nil
}

func joinMethods(methods []domain.RetrievalMethod) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, "+")
}
