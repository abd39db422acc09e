package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the current index was built from",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

type indexStats struct {
	Backend        string `json:"backend"`
	Rows           int    `json:"rows"`
	Dimension      int    `json:"dimension,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
	ChunkerVersion string `json:"chunker_version,omitempty"`
	IndexVersion   string `json:"index_version,omitempty"`
	BuiltAt        string `json:"built_at,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	idx, err := status()
	if err != nil {
		return err
	}
	if err := idx.Open(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	m, _ := idx.Stats()
	stats := indexStats{
		Backend:        cfg.VectorBackend,
		Rows:           m.Rows,
		Dimension:      m.Dimension,
		EmbeddingModel: m.EmbeddingModel,
		ChunkSize:      m.ChunkSize,
		ChunkOverlap:   m.ChunkOverlap,
		ChunkerVersion: m.ChunkerVersion,
		IndexVersion:   m.IndexVersion,
	}
	if !m.BuiltAt.IsZero() {
		stats.BuiltAt = m.BuiltAt.UTC().Format(time.RFC3339)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Backend: %s\n", stats.Backend)
	cmd.Printf("Rows: %d\n", stats.Rows)
	if stats.EmbeddingModel != "" {
		cmd.Printf("Embedding model: %s (%d dimensions)\n", stats.EmbeddingModel, stats.Dimension)
		cmd.Printf("Chunking: %s, %d tokens, %d overlap\n", stats.ChunkerVersion, stats.ChunkSize, stats.ChunkOverlap)
		cmd.Printf("Index version: %s\n", stats.IndexVersion)
		cmd.Printf("Built at: %s\n", stats.BuiltAt)
	}
	return nil
}
