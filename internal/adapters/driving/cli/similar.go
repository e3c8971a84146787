package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

var (
	similarLimit int
	similarJSON  bool
)

var similarCmd = &cobra.Command{
	Use:   "similar [document-id]",
	Short: "Find documents similar to a stored document",
	Long: `Compares every chunk of the document with the chunks of other documents of
the same type and lists the documents whose mean best-match similarity
passes the configured threshold, with per-section evidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

var plagiarismCmd = &cobra.Command{
	Use:   "plagiarism [document-id]",
	Short: "List documents that may have been copied",
	Long: `Runs the similarity comparison with the plagiarism threshold and labels
each candidate with a risk level (HIGH or MEDIUM).`,
	Args: cobra.ExactArgs(1),
	RunE: runPlagiarism,
}

func init() {
	for _, c := range []*cobra.Command{similarCmd, plagiarismCmd} {
		c.Flags().IntVarP(&similarLimit, "limit", "n", 0, "maximum number of candidates (0 = configured default)")
		c.Flags().BoolVar(&similarJSON, "json", false, "output results as JSON")
		rootCmd.AddCommand(c)
	}
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if similarityService == nil {
		return errors.New("similarity service not configured")
	}

	resp, err := similarityService.FindSimilarDocuments(cmd.Context(), args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("similarity check failed: %w", err)
	}
	return outputVerdicts(cmd, resp)
}

func runPlagiarism(cmd *cobra.Command, args []string) error {
	if similarityService == nil {
		return errors.New("similarity service not configured")
	}

	resp, err := similarityService.CheckPlagiarism(cmd.Context(), args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("plagiarism check failed: %w", err)
	}
	return outputVerdicts(cmd, resp)
}

func outputVerdicts(cmd *cobra.Command, resp domain.SimilarityResponse) error {
	if similarJSON {
		return outputJSON(cmd, resp)
	}

	if !resp.Success {
		cmd.Printf("Check failed: %s\n", resp.Message)
		return nil
	}
	if resp.Degraded {
		cmd.Printf("Warning: %s\n", resp.Message)
	}
	if len(resp.Verdicts) == 0 {
		cmd.Println("No similar documents found.")
		return nil
	}

	cmd.Printf("Documents similar to %s:\n", resp.DocumentID)
	cmd.Println()
	for i := range resp.Verdicts {
		v := resp.Verdicts[i]
		cmd.Printf("  [%d] %s (%.3f) %s\n", i+1, v.CandidateDocumentID, v.SimilarityScore, v.RiskLevel)
		if v.Explanation != "" {
			cmd.Printf("      %s\n", v.Explanation)
		}
		cmd.Println()
	}
	return nil
}
