package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the esgrag command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "esgrag",
		Short: "Multimodal ESG ingestion and retrieval",
		Long: `esgrag ingests ESG talks and reports (transcripts, paragraphs, figures and
tables) into a Weaviate collection and answers questions over it.

Configuration is read from the environment and an optional .env file:
  WEAVIATE_HOST, WEAVIATE_COLLECTION   vector store
  GEMINI_API_KEY, OPENAI_API_KEY       model providers
  DB_HOST, DB_NAME                     failure ledger`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(IngestCmd())
	rootCmd.AddCommand(AskCmd())
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(ResetCmd())
	rootCmd.AddCommand(FailuresCmd())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
