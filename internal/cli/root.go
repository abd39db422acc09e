// Package cli implements the docqa command line.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/indexer"
	"docqa/internal/service"
)

// Builder builds the document index.
type Builder interface {
	Build(ctx context.Context) (*indexer.BuildResult, error)
}

// Services are created in the root pre-run unless already set.
var (
	cfg          *config.Config
	components   *app.App
	indexBuilder Builder
	chatService  service.ChatService
	indexStatus  app.Index
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a folder of course documents",
	Long: `docqa indexes the PDF and Word documents under the data directory into a
vector index and answers questions from the most relevant chunks.

Run "docqa index" once after adding documents, then "docqa ask".`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if components != nil {
			_ = components.Close()
		}
	}()
	// cmd.Print* falls back to stderr unless an output is set.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = c

	slog.SetDefault(app.NewLogger(cmd.ErrOrStderr(), cfg))

	if components != nil {
		return nil
	}
	components, err = app.New(commandContext(cmd), cfg)
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func builder() (Builder, error) {
	if indexBuilder != nil {
		return indexBuilder, nil
	}
	if components == nil {
		return nil, errors.New("indexer not configured")
	}
	return components.Pipeline()
}

func chat() (service.ChatService, error) {
	if chatService != nil {
		return chatService, nil
	}
	if components == nil {
		return nil, errors.New("chat service not configured")
	}
	return components.ChatService()
}

func status() (app.Index, error) {
	if indexStatus != nil {
		return indexStatus, nil
	}
	if components == nil {
		return nil, errors.New("index not configured")
	}
	return components.Index(), nil
}
