package rageval

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultScoreInput  = "evals/eval_run_output.csv"
	DefaultScoreOutput = "evals/evaluation_metrics_output.csv"

	MetricFaithfulness      = "faithfulness"
	MetricAnswerCorrectness = "answer_correctness"

	// Weights of the factual and semantic parts of answer correctness.
	factualWeight  = 0.75
	semanticWeight = 0.25
)

var DefaultMetrics = []string{MetricFaithfulness, MetricAnswerCorrectness}

// Verdict is the judgement of a single statement against the contexts.
type Verdict struct {
	Statement string
	Reason    string
	Supported bool
}

// Classification sorts statements of an answer against a ground truth.
type Classification struct {
	TruePositives  []string
	FalsePositives []string
	FalseNegatives []string
}

// F1 returns 0 when there are no statements at all.
func (c Classification) F1() float64 {
	var (
		tp = float64(len(c.TruePositives))
		fp = float64(len(c.FalsePositives))
		fn = float64(len(c.FalseNegatives))
	)
	if tp+fp+fn == 0 {
		return 0
	}
	return tp / (tp + 0.5*(fp+fn))
}

type ScoreParams struct {
	Input   string
	Output  string
	Metrics []string
}

// Evaluate scores every row of the input file and writes the rows with one column per metric.
func (re *ragEval) Evaluate(ctx context.Context, params ScoreParams) (*Run, error) {
	if len(params.Metrics) == 0 {
		params.Metrics = DefaultMetrics
	}
	for _, metric := range params.Metrics {
		if !slices.Contains(DefaultMetrics, metric) {
			return nil, fmt.Errorf("unknown metric: %s", metric)
		}
	}
	if re.judge == nil {
		return nil, fmt.Errorf("judge model: %w", ErrNotConfigured)
	}
	if re.embedder == nil && slices.Contains(params.Metrics, MetricAnswerCorrectness) {
		return nil, fmt.Errorf("embedder: %w", ErrNotConfigured)
	}

	return re.track(ctx, RunKindScore, params.Input, params.Output, func(ctx context.Context, aRun *Run) error {
		table, err := re.datasets.ReadTable(params.Input)
		if err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}

		samples, err := ScoreSamplesFromTable(table)
		if err != nil {
			return err
		}

		if err := re.ScoreSamples(ctx, samples, params.Metrics); err != nil {
			return err
		}

		out, err := ScoreTable(samples, params.Metrics)
		if err != nil {
			return err
		}
		if err := re.datasets.WriteTable(params.Output, out); err != nil {
			return fmt.Errorf("writing scores: %w", err)
		}

		aRun.Rows = len(samples)
		for metric, mean := range MeanScores(samples, params.Metrics) {
			aRun.Summary[metric] = mean
		}

		re.logger.Sugar().Infof("evaluation metrics saved to %s", params.Output)

		return nil
	})
}

// ScoreSamples sets every requested metric on every sample. A metric that cannot be computed
// for a sample is logged and set to NaN, only cancellation stops the whole batch.
func (re *ragEval) ScoreSamples(ctx context.Context, samples []Sample, metrics []string) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(re.concurrency)

	for i := range samples {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			re.scoreSample(gCtx, i, &samples[i], metrics)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (re *ragEval) scoreSample(ctx context.Context, i int, aSample *Sample, metrics []string) {
	aSample.Scores = make(map[string]float64, len(metrics))

	for _, metric := range metrics {
		var (
			score float64
			err   error
		)
		switch metric {
		case MetricFaithfulness:
			score, err = re.faithfulness(ctx, *aSample)
		case MetricAnswerCorrectness:
			score, err = re.answerCorrectness(ctx, *aSample)
		default:
			err = fmt.Errorf("unknown metric: %s", metric)
		}
		if err != nil {
			re.logger.Sugar().Warnf("row %d: %s failed: %v", i+1, metric, err)
			score = math.NaN()
		}
		aSample.Scores[metric] = score
	}
}

// faithfulness is the share of answer statements the contexts support, NaN without statements.
func (re *ragEval) faithfulness(ctx context.Context, aSample Sample) (float64, error) {
	statements, err := re.judge.ExtractStatements(ctx, aSample.Question, aSample.Answer)
	if err != nil {
		return math.NaN(), fmt.Errorf("extract statements: %w", err)
	}
	if len(statements) == 0 {
		return math.NaN(), nil
	}

	verdicts, err := re.judge.VerifyStatements(ctx, aSample.Contexts, statements)
	if err != nil {
		return math.NaN(), fmt.Errorf("verify statements: %w", err)
	}
	if len(verdicts) == 0 {
		return math.NaN(), nil
	}

	var supported int
	for _, aVerdict := range verdicts {
		if aVerdict.Supported {
			supported++
		}
	}

	return float64(supported) / float64(len(verdicts)), nil
}

func (re *ragEval) answerCorrectness(ctx context.Context, aSample Sample) (float64, error) {
	answerStatements, err := re.judge.ExtractStatements(ctx, aSample.Question, aSample.Answer)
	if err != nil {
		return math.NaN(), fmt.Errorf("extract answer statements: %w", err)
	}
	truthStatements, err := re.judge.ExtractStatements(ctx, aSample.Question, aSample.GroundTruth)
	if err != nil {
		return math.NaN(), fmt.Errorf("extract ground truth statements: %w", err)
	}

	var factual float64
	if len(answerStatements) > 0 || len(truthStatements) > 0 {
		classification, err := re.judge.ClassifyStatements(ctx, aSample.Question, answerStatements, truthStatements)
		if err != nil {
			return math.NaN(), fmt.Errorf("classify statements: %w", err)
		}
		factual = classification.F1()
	}

	vectors, err := re.embedder.EmbedDocuments(ctx, []string{aSample.Answer, aSample.GroundTruth})
	if err != nil {
		return math.NaN(), fmt.Errorf("embed answer and ground truth: %w", err)
	}
	if len(vectors) != 2 {
		return math.NaN(), fmt.Errorf("embedded batch size mismatch")
	}
	semantic := CosineSimilarity(vectors[0], vectors[1])

	return factualWeight*factual + semanticWeight*semantic, nil
}

// MeanScores averages every metric over the samples, ignoring NaN.
// Metrics without a single valid score are left out.
func MeanScores(samples []Sample, metrics []string) map[string]float64 {
	means := make(map[string]float64, len(metrics))
	for _, metric := range metrics {
		var (
			sum   float64
			count int
		)
		for _, aSample := range samples {
			score, ok := aSample.Scores[metric]
			if !ok || math.IsNaN(score) {
				continue
			}
			sum += score
			count++
		}
		if count > 0 {
			means[metric] = sum / float64(count)
		}
	}
	return means
}
