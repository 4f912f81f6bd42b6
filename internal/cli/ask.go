package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"esgrag/internal/answer"
	"esgrag/internal/app"
	"esgrag/internal/pipeline"
)

func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the stored ESG content",
		Long:  "Retrieves the closest items across every content type and asks the model to answer from them. Without a question the built-in sample questions are asked in turn.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cmd, app.WithoutDatabase(), app.WithoutQueue())
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := e.ctx

			questions := pipeline.DefaultQuestions
			if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
				questions = []string{q}
			}

			var answers []*answer.Answer
			for _, q := range questions {
				a, err := e.svcs.Pipeline.Ask(ctx, q)
				if err != nil {
					return err
				}
				answers = append(answers, a)
			}
			return printAnswers(cmd.OutOrStdout(), answers, jsonOutput(cmd))
		},
	}
	return cmd
}

func SearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the collection without generating an answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cmd, app.WithoutDatabase(), app.WithoutQueue())
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := e.ctx

			if limit <= 0 {
				limit = e.cfg.SearchLimit
			}
			results, err := e.svcs.Retrieval.Retrieve(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), results, jsonOutput(cmd))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default SEARCH_LIMIT)")
	return cmd
}
