package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var consentPrompt = promptui.Select{
	Label: "The file contents will be sent to the Gemini API. Proceed?",
	Items: []string{PromptYes, PromptNo},
}

var traceCmd = &cobra.Command{
	Use:   "trace <source-file>",
	Short: "Analyze a source file once and print the resulting step trace as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTrace(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before sending the source")
	traceCmd.Flags().StringP("kind", "k", "", "declared structure kind (array, string, linked-list, doubly-linked-list, circular-linked-list, tree, graph)")
	traceCmd.Flags().StringP("input", "i", "", "description of the input the code runs on")
	traceCmd.Flags().StringP("out", "o", "", "write the trace to a file instead of stdout")
}

func runTrace(cmd *cobra.Command, path string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	source, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the source file", zap.String("path", path), zap.Error(err))
	}

	autoApprove, _ := cmd.Flags().GetBool("yes")
	if !autoApprove {
		_, answer, err := consentPrompt.Run()
		if err != nil {
			logger.Fatal("running the prompt", zap.Error(err))
		}
		if answer != PromptYes {
			logger.Info("aborted, nothing was sent")
			return
		}
	}

	analyzer, err := newAnalyzer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the analyzer", zap.Error(err))
	}

	kind, _ := cmd.Flags().GetString("kind")
	input, _ := cmd.Flags().GetString("input")

	seq, err := analyzer.Analyze(ctx, &ai.Request{
		SourceCode: string(source),
		KindHint:   trace.ParseKind(kind),
		Input:      input,
	})
	if err != nil {
		logger.Fatal("analyzing the source", zap.Error(err))
	}

	logger.Info("trace ready",
		zap.String("kind", string(seq.Kind)),
		zap.Int("steps", seq.Len()),
	)

	encoded, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		logger.Fatal("encoding the trace", zap.Error(err))
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, encoded, 0o644); err != nil {
			logger.Fatal("writing the trace file", zap.String("path", out), zap.Error(err))
		}
		logger.Info("trace written", zap.String("path", out))
		return
	}

	fmt.Println(string(encoded))
}
