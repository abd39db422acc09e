package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docqa/internal/rag"
	"docqa/internal/service"
)

var (
	askJSON  bool
	askDebug bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Embeds the question, retrieves the nearest document chunks and asks the
language model to answer from them. The answer is followed by the source
documents it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "show the retrieved snippets and their distances")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := chat()
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	turn, err := svc.Ask(commandContext(cmd), question)
	if err != nil {
		return service.WrapError(err, service.UserMessage(err))
	}

	if !askDebug {
		turn.Snippets = nil
	}

	if askJSON {
		data, err := json.MarshalIndent(turn, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputAnswer(cmd, turn)
	return nil
}

func outputAnswer(cmd *cobra.Command, turn service.ChatTurn) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	cmd.Println(boldGreen("Answer:"))
	cmd.Println(rag.AnswerBody(turn.Answer))

	if len(turn.Sources) > 0 {
		cmd.Println()
		cmd.Println(boldCyan("References:"))
		for _, src := range turn.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}

	if len(turn.Snippets) > 0 {
		cmd.Println()
		cmd.Println(boldCyan("Snippets:"))
		for i, s := range turn.Snippets {
			cmd.Printf("  [%d] %s #%d (%.4f)\n", i+1, s.Source, s.ChunkIndex, s.Score)
			cmd.Printf("      %s\n", preview(s.Text, 160))
		}
	}
}

// preview flattens text to one line of at most n runes.
func preview(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}
