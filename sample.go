package rageval

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

type EvolutionType string

const (
	EvolutionSimple       EvolutionType = "simple"
	EvolutionReasoning    EvolutionType = "reasoning"
	EvolutionMultiContext EvolutionType = "multi_context"
)

// evolutionOrder is also the tie break order when splitting samples between evolutions.
var evolutionOrder = []EvolutionType{
	EvolutionSimple,
	EvolutionReasoning,
	EvolutionMultiContext,
}

func (e EvolutionType) Valid() bool {
	switch e {
	case EvolutionSimple, EvolutionReasoning, EvolutionMultiContext:
		return true
	}
	return false
}

// Distribution maps evolution types to the share of the test set they should make up.
type Distribution map[EvolutionType]float64

func DefaultDistribution() Distribution {
	return Distribution{
		EvolutionSimple:       0.5,
		EvolutionMultiContext: 0.4,
		EvolutionReasoning:    0.1,
	}
}

const distributionTolerance = 1e-6

func (d Distribution) Valid() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidDistribution)
	}

	var sum float64
	for evolution, weight := range d {
		if !evolution.Valid() {
			return fmt.Errorf("%w: unknown evolution type %q", ErrInvalidDistribution, evolution)
		}
		if weight < 0 || math.IsNaN(weight) {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidDistribution, evolution)
		}
		sum += weight
	}

	if math.Abs(sum-1) > distributionTolerance {
		return fmt.Errorf("%w: weights sum to %v, expected 1", ErrInvalidDistribution, sum)
	}

	return nil
}

// Counts splits n samples between evolutions using the largest remainder method,
// so the counts always add up to n. Weights are normalised by their sum first.
func (d Distribution) Counts(n int) map[EvolutionType]int {
	type share struct {
		evolution EvolutionType
		remainder float64
		order     int
	}

	var (
		counts   = make(map[EvolutionType]int, len(d))
		shares   = make([]share, 0, len(d))
		assigned int
	)

	var sum float64
	for _, evolution := range evolutionOrder {
		sum += d[evolution]
	}
	if sum <= 0 {
		sum = 1
	}

	for i, evolution := range evolutionOrder {
		weight, ok := d[evolution]
		if !ok {
			continue
		}
		exact := weight / sum * float64(n)
		whole := min(int(math.Floor(exact)), n-assigned)
		counts[evolution] = whole
		assigned += whole
		shares = append(shares, share{evolution, exact - float64(whole), i})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].remainder == shares[j].remainder {
			return shares[i].order < shares[j].order
		}
		return shares[i].remainder > shares[j].remainder
	})

	for i := 0; assigned < n && len(shares) > 0; i++ {
		counts[shares[i%len(shares)].evolution]++
		assigned++
	}

	return counts
}

type Sample struct {
	Question      string
	Contexts      []string
	GroundTruth   string
	EvolutionType EvolutionType
	Metadata      []string
	EpisodeDone   bool
	Answer        string
	Scores        map[string]float64
}

const (
	ColumnQuestion      = "question"
	ColumnContexts      = "contexts"
	ColumnGroundTruth   = "ground_truth"
	ColumnEvolutionType = "evolution_type"
	ColumnMetadata      = "metadata"
	ColumnEpisodeDone   = "episode_done"
	ColumnAnswer        = "answer"
)

var (
	testsetColumns = []string{
		ColumnQuestion,
		ColumnContexts,
		ColumnGroundTruth,
		ColumnEvolutionType,
		ColumnMetadata,
		ColumnEpisodeDone,
	}
	scoreInputColumns = []string{
		ColumnQuestion,
		ColumnAnswer,
		ColumnContexts,
		ColumnGroundTruth,
	}
)

// TestsetTable lays samples out in the columns of a generated test set.
func TestsetTable(samples []Sample) (*Table, error) {
	table := NewTable(testsetColumns...)
	for _, aSample := range samples {
		metadata, err := json.Marshal(aSample.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		if err := table.Append(map[string]string{
			ColumnQuestion:      aSample.Question,
			ColumnContexts:      FormatList(aSample.Contexts),
			ColumnGroundTruth:   aSample.GroundTruth,
			ColumnEvolutionType: string(aSample.EvolutionType),
			ColumnMetadata:      string(metadata),
			ColumnEpisodeDone:   strconv.FormatBool(aSample.EpisodeDone),
		}); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// ScoreTable lays scored samples out in the evaluation output columns, one column per metric.
// NaN scores become empty cells.
func ScoreTable(samples []Sample, metrics []string) (*Table, error) {
	table := NewTable(append(append([]string{}, scoreInputColumns...), metrics...)...)
	for _, aSample := range samples {
		row := map[string]string{
			ColumnQuestion:    aSample.Question,
			ColumnAnswer:      aSample.Answer,
			ColumnContexts:    FormatList(aSample.Contexts),
			ColumnGroundTruth: aSample.GroundTruth,
		}
		for _, metric := range metrics {
			row[metric] = formatScore(aSample.Scores[metric])
		}
		if err := table.Append(row); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// ScoreSamplesFromTable reads the columns needed for scoring. Missing cells are empty strings.
func ScoreSamplesFromTable(table *Table) ([]Sample, error) {
	for _, column := range scoreInputColumns {
		if !table.HasColumn(column) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	samples := make([]Sample, 0, table.Len())
	for i := range table.Len() {
		contexts, err := ParseList(table.Get(i, ColumnContexts))
		if err != nil {
			return nil, fmt.Errorf("row %d: parse contexts: %w", i+1, err)
		}
		samples = append(samples, Sample{
			Question:    table.Get(i, ColumnQuestion),
			Answer:      table.Get(i, ColumnAnswer),
			Contexts:    contexts,
			GroundTruth: table.Get(i, ColumnGroundTruth),
		})
	}

	return samples, nil
}

func formatScore(score float64) string {
	if math.IsNaN(score) {
		return ""
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}
