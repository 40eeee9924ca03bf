package rageval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultAnswerInput  = "evals/testset_output_small.csv"
	DefaultAnswerOutput = "evals/eval_run_output.csv"
)

type AnswerParams struct {
	Input  string
	Output string
}

// CollectAnswers asks the RAG service every question of the input file in a fresh conversation
// and writes the input rows with an added answer column. A failed row keeps an empty answer.
func (re *ragEval) CollectAnswers(ctx context.Context, params AnswerParams) (*Run, error) {
	if re.conversations == nil {
		return nil, fmt.Errorf("conversation client: %w", ErrNotConfigured)
	}

	return re.track(ctx, RunKindAnswer, params.Input, params.Output, func(ctx context.Context, aRun *Run) error {
		table, err := re.datasets.ReadTable(params.Input)
		if err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}

		answered, err := re.AnswerTable(ctx, table)
		if err != nil {
			return err
		}

		if err := re.datasets.WriteTable(params.Output, table); err != nil {
			return fmt.Errorf("writing answers: %w", err)
		}

		aRun.Rows = table.Len()
		aRun.Summary["answered"] = float64(answered)
		aRun.Summary["failed"] = float64(table.Len() - answered)

		re.logger.Sugar().Infof("output saved to %s", params.Output)

		return nil
	})
}

// AnswerTable fills the answer column in place and returns the number of rows that got an answer
// from the service. Rows are independent, a failure in one never stops the others.
func (re *ragEval) AnswerTable(ctx context.Context, table *Table) (int, error) {
	if !table.HasColumn(ColumnQuestion) {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnQuestion)
	}

	// Every row starts without an answer, even if the input already had one.
	table.AddColumn(ColumnAnswer)
	for i := range table.Len() {
		if err := table.Set(i, ColumnAnswer, ""); err != nil {
			return 0, err
		}
	}

	var (
		total   = table.Len()
		answers = make([]string, total)
		ok      = make([]bool, total)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(re.concurrency)

	for i := range total {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			answers[i], ok[i] = re.answerRow(gCtx, i, total, table.Get(i, ColumnQuestion))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var answered int
	for i := range total {
		if !ok[i] {
			continue
		}
		answered++
		if err := table.Set(i, ColumnAnswer, answers[i]); err != nil {
			return 0, err
		}
	}

	return answered, nil
}

// answerRow asks one question in a fresh conversation. Failures are logged and reported as not ok.
func (re *ragEval) answerRow(ctx context.Context, i, total int, question string) (string, bool) {
	logger := re.logger.Sugar().With("row", i+1)

	logger.Infof("processing row %d/%d: question: %s", i+1, total, question)

	conversationID, err := re.conversations.CreateConversation(ctx)
	if err != nil {
		logger.Errorw("failed to create conversation", "error", err)
		return "", false
	}
	if conversationID == "" {
		logger.Error("failed to create conversation: empty conversation ID")
		return "", false
	}

	logger.Infof("created new conversation with ID: %s", conversationID)

	answer, err := re.conversations.Prompt(ctx, conversationID, question)
	if err != nil {
		logger.Errorw("failed to get answer", "conversation", conversationID, "error", err)
		return "", false
	}

	logger.Infof("row %d processed successfully", i+1)

	return answer, true
}
