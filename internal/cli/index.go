package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/indexer"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the data directory",
	Long: `Reads every PDF and Word document under the data directory, splits the
text into overlapping token windows, embeds each window and writes the
vector index with its metadata sidecar. An existing index is replaced only
when the build succeeds.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output coverage statistics as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	b, err := builder()
	if err != nil {
		return err
	}

	result, err := b.Build(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if indexJSON {
		data, err := json.MarshalIndent(result.Coverage, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal coverage: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputCoverage(cmd, result)
	return nil
}

func outputCoverage(cmd *cobra.Command, result *indexer.BuildResult) {
	c := result.Coverage
	cmd.Printf("Indexed %d documents into %d chunks\n", c.DocsProcessed, c.ChunksEmbedded)
	if c.DocsWith0Chunks > 0 {
		cmd.Printf("  %d documents had no extractable text\n", c.DocsWith0Chunks)
	}
	cmd.Printf("  Chunk tokens: min %d, max %d, mean %.2f, p95 %d\n",
		c.ChunkTokenStats.Min, c.ChunkTokenStats.Max, c.ChunkTokenStats.Mean, c.ChunkTokenStats.P95)
	cmd.Printf("  Embedding model: %s (%d dimensions)\n", result.Manifest.EmbeddingModel, result.Manifest.Dimension)
	cmd.Printf("  Index version: %s\n", c.IndexVersion)
}
