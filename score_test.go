package rageval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification_F1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		classification Classification
		expected       float64
	}{
		{"no statements", Classification{}, 0},
		{"all true positives", Classification{TruePositives: []string{"a", "b"}}, 1},
		{"only false positives", Classification{FalsePositives: []string{"a"}}, 0},
		{"mixed", Classification{TruePositives: []string{"a"}, FalsePositives: []string{"b"}, FalseNegatives: []string{"c"}}, 0.5},
		{"missing statements", Classification{TruePositives: []string{"a", "b"}, FalseNegatives: []string{"c", "d"}}, 2.0 / 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.expected, tc.classification.F1(), 1e-9)
		})
	}
}

func TestRagEval_ScoreSamples(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string]Vector{
		"A. B.": {1, 0},
		"A. C.": {1, 0},
	}}
	re, _, _ := newTestRagEval(t,
		WithJudgeModel(&fakeJudge{failQuestion: "broken"}),
		WithEmbedder(embedder),
		WithConcurrency(3),
	)

	samples := []Sample{
		{
			Question:    "capital",
			Answer:      "Paris is the capital. The Seine flows through it.",
			Contexts:    []string{"Paris is the capital of France"},
			GroundTruth: "Paris is the capital",
		},
		{
			Question:    "letters",
			Answer:      "A. B.",
			Contexts:    []string{"A", "B"},
			GroundTruth: "A. C.",
		},
		{
			Question:    "empty",
			Answer:      "",
			Contexts:    []string{"x"},
			GroundTruth: "Something",
		},
		{
			Question:    "broken",
			Answer:      "Anything.",
			Contexts:    []string{"x"},
			GroundTruth: "y",
		},
	}

	require.NoError(t, re.ScoreSamples(context.Background(), samples, DefaultMetrics))

	assert.InDelta(t, 0.5, samples[0].Scores[MetricFaithfulness], 1e-9)
	assert.InDelta(t, 1.0, samples[1].Scores[MetricFaithfulness], 1e-9)
	// 0.75 * F1(tp=1, fp=1, fn=1) + 0.25 * cosine 1
	assert.InDelta(t, 0.625, samples[1].Scores[MetricAnswerCorrectness], 1e-9)

	// No statements in the answer
	assert.True(t, math.IsNaN(samples[2].Scores[MetricFaithfulness]))
	assert.InDelta(t, 0, samples[2].Scores[MetricAnswerCorrectness], 1e-9)

	// Judge failure
	assert.True(t, math.IsNaN(samples[3].Scores[MetricFaithfulness]))
	assert.True(t, math.IsNaN(samples[3].Scores[MetricAnswerCorrectness]))

	means := MeanScores(samples, DefaultMetrics)
	assert.InDelta(t, 0.75, means[MetricFaithfulness], 1e-9)
}

func TestMeanScores(t *testing.T) {
	t.Parallel()

	samples := []Sample{
		{Scores: map[string]float64{MetricFaithfulness: 1, MetricAnswerCorrectness: math.NaN()}},
		{Scores: map[string]float64{MetricFaithfulness: 0.5, MetricAnswerCorrectness: math.NaN()}},
		{},
	}

	means := MeanScores(samples, DefaultMetrics)
	assert.Equal(t, map[string]float64{MetricFaithfulness: 0.75}, means)
	assert.Empty(t, MeanScores(nil, DefaultMetrics))
}

func TestRagEval_Evaluate(t *testing.T) {
	t.Parallel()

	re, datasets, runs := newTestRagEval(t,
		WithJudgeModel(new(fakeJudge)),
		WithEmbedder(&fakeEmbedder{vectors: map[string]Vector{"Paris is the capital": {1, 0}}}),
	)

	input := NewTable(ColumnQuestion, ColumnAnswer, ColumnContexts, ColumnGroundTruth)
	require.NoError(t, input.Append(map[string]string{
		ColumnQuestion:    "q",
		ColumnAnswer:      "Paris is the capital",
		ColumnContexts:    `['Paris is the capital of France']`,
		ColumnGroundTruth: "Paris is the capital",
	}))
	require.NoError(t, datasets.WriteTable(DefaultScoreInput, input))

	aRun, err := re.Evaluate(context.Background(), ScoreParams{
		Input:  DefaultScoreInput,
		Output: DefaultScoreOutput,
	})
	require.NoError(t, err)
	assert.Equal(t, RunKindScore, aRun.Kind)
	assert.Equal(t, 1, aRun.Rows)
	assert.InDelta(t, 1, aRun.Summary[MetricFaithfulness], 1e-9)
	assert.InDelta(t, 1, aRun.Summary[MetricAnswerCorrectness], 1e-9)

	out, err := datasets.ReadTable(DefaultScoreOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"question", "answer", "contexts", "ground_truth", "faithfulness", "answer_correctness"}, out.Header)
	assert.Equal(t, [][]string{{
		"q",
		"Paris is the capital",
		`["Paris is the capital of France"]`,
		"Paris is the capital",
		"1",
		"1",
	}}, out.Records)

	saved, err := runs.FindRun(context.Background(), aRun.ID)
	require.NoError(t, err)
	assert.Equal(t, aRun.Summary, saved.Summary)
}

func TestRagEval_EvaluateValidation(t *testing.T) {
	t.Parallel()

	re, _, _ := newTestRagEval(t, WithJudgeModel(new(fakeJudge)))

	_, err := re.Evaluate(context.Background(), ScoreParams{Metrics: []string{"context_recall"}})
	assert.ErrorContains(t, err, "unknown metric")

	// answer_correctness needs an embedder, faithfulness alone does not
	_, err = re.Evaluate(context.Background(), ScoreParams{Metrics: []string{MetricAnswerCorrectness}})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = re.Evaluate(context.Background(), ScoreParams{Input: "missing.csv", Metrics: []string{MetricFaithfulness}})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)

	unconfigured, _, _ := newTestRagEval(t)
	_, err = unconfigured.Evaluate(context.Background(), ScoreParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
