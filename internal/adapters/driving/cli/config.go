package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage engine configuration",
	Long: `View and change the settings stored in config.toml.

Fusion weights, thresholds and limits are picked up by a running
'resumatch mcp serve' without a restart. Backend and chunking changes apply
the next time resumatch starts.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a single configuration value. Numeric keys are validated together
with the rest of the configuration, for example:

  resumatch config set fusion.vector_weight 0.7
  resumatch config set fusion.keyword_weight 0.3
  resumatch config set similarity.field_thresholds.skills 0.25
  resumatch config set embedding.provider openai`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	engine := settingsService.Engine()
	backends := settingsService.Backends()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Fusion]")
	cmd.Printf("  Weights: vector %.2f, keyword %.2f\n", engine.Fusion.Weights.Vector, engine.Fusion.Weights.Keyword)
	cmd.Printf("  Keyword scale: %.1f\n", engine.Fusion.KeywordScale)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Channel timeout: %s\n", engine.Search.ChannelTimeout)
	cmd.Printf("  Default limit: %d\n", engine.Search.DefaultLimit)
	cmd.Println()

	cmd.Println("[Similarity]")
	cmd.Printf("  Threshold: %.2f\n", engine.Similarity.Threshold)
	cmd.Printf("  Over-fetch factor: %d\n", engine.Similarity.OverfetchFactor)
	fields := make([]string, 0, len(engine.Similarity.FieldThresholds))
	for f := range engine.Similarity.FieldThresholds {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		cmd.Printf("  Field threshold %s: %.2f\n", f, engine.Similarity.FieldThresholds[f])
	}
	cmd.Println()

	cmd.Println("[Plagiarism]")
	cmd.Printf("  Threshold: %.2f (HIGH at %.2f)\n", engine.Plagiarism.Threshold, engine.Plagiarism.HighThreshold)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d, overlap: %d, minimum: %d\n",
		engine.Chunking.ChunkSize, engine.Chunking.ChunkOverlap, engine.Chunking.MinChunkChars)
	cmd.Println()

	cmd.Println("[Indexing]")
	cmd.Printf("  Workers: %d\n", engine.Indexing.Workers)
	if engine.Indexing.ReindexInterval > 0 {
		cmd.Printf("  Background reindex: every %s\n", engine.Indexing.ReindexInterval)
	} else {
		cmd.Println("  Background reindex: disabled")
	}
	cmd.Println()

	printBackends(cmd, backends)
	return nil
}

func printBackends(cmd *cobra.Command, backends domain.BackendSettings) {
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", backends.Embedding.Provider.Description())
	if backends.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", backends.Embedding.Model)
	}
	if backends.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", backends.Embedding.BaseURL)
	}
	if backends.Embedding.Provider.RequiresAPIKey() {
		if backends.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(backends.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !backends.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", backends.Vector.Backend)
	switch backends.Vector.Backend {
	case domain.VectorBackendBadger:
		cmd.Printf("  Path: %s\n", backends.Vector.Path)
	case domain.VectorBackendQdrant:
		cmd.Printf("  URL: %s\n", backends.Vector.URL)
		cmd.Printf("  Collection: %s\n", backends.Vector.Collection)
	case domain.VectorBackendPGVector:
		cmd.Printf("  Table: %s\n", backends.Vector.Collection)
		if backends.Vector.DSN == "" {
			cmd.Println("  DSN: (not set)")
		}
	}
	cmd.Println()

	cmd.Println("[Keyword Index]")
	cmd.Printf("  Backend: %s\n", backends.Keyword.Backend)
	if backends.Keyword.Backend == domain.KeywordBackendSQLite {
		cmd.Printf("  Path: %s\n", backends.Keyword.Path)
	}
	if backends.LexiconPath != "" {
		cmd.Printf("  Lexicon: %s\n", backends.LexiconPath)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("%s = %s\n", key, value)
	return nil
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
