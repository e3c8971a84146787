package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/normalisers"
)

var (
	indexJSON bool
	indexRaw  bool
)

// documentNormaliser strips markup from incoming documents before they are stored.
var documentNormaliser = normalisers.Default()

var indexCmd = &cobra.Command{
	Use:   "index [file.json]",
	Short: "Store and index documents from a JSON file",
	Long: `Reads one document, or an array of documents, from a JSON file, stores
them and writes their chunks to the keyword and vector indices. HTML and
markdown in the text are reduced to plain text unless --raw is given.

Re-indexing a document replaces its previous chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild both indices from every stored document",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Remove a document's chunks, vectors and keyword entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output results as JSON")
	indexCmd.Flags().BoolVar(&indexRaw, "raw", false, "store text as given, without stripping HTML or markdown")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if documentSaver == nil {
		return errors.New("document store not configured")
	}

	docs, err := readDocuments(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	results := make([]domain.IndexResult, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if !indexRaw {
			documentNormaliser.NormaliseDocument(doc)
		}
		if err := documentSaver.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
		}
		res, err := indexService.IndexDocument(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
		results = append(results, res)
	}

	if indexJSON {
		return outputJSON(cmd, results)
	}

	for _, res := range results {
		if !res.Success {
			cmd.Printf("%s: not indexed (%s)\n", res.DocumentID, res.Message)
			continue
		}
		cmd.Printf("%s: %d chunks, %d vectors", res.DocumentID, res.ChunkCount, res.VectorsIndexed)
		if res.ChunksSkipped > 0 {
			cmd.Printf(", %d skipped", res.ChunksSkipped)
		}
		if !res.KeywordIndexed {
			cmd.Print(", keyword index not updated")
		}
		cmd.Println()
	}
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	res, err := indexService.BuildFullIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Printf("Indexed %d documents, %d failed\n", res.TotalIndexed, res.TotalFailed)
	if res.Message != "" {
		cmd.Println(res.Message)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	res, err := indexService.DeleteDocumentData(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Deleted %s (vectors: %s, keyword entry: %s)\n",
		res.DocumentID, yesNo(res.VectorDeleted), yesNo(res.KeywordDeleted))
	return nil
}

// readDocuments decodes a single document or an array of documents.
func readDocuments(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	var docs []domain.Document
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &docs)
	} else {
		var doc domain.Document
		err = json.Unmarshal(data, &doc)
		docs = append(docs, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, path, err)
	}

	for i := range docs {
		if docs[i].ID == "" {
			return nil, fmt.Errorf("%w: document %d in %s has no id", domain.ErrInvalidInput, i, path)
		}
	}
	return docs, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
