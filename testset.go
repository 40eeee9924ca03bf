package rageval

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTestSize      = 100
	DefaultNumFilesLimit = 100
	DefaultMaxTries      = 5

	// Nodes the critic scores below this are not used as contexts.
	minContextScore = 1.5
)

type GenerateParams struct {
	InputDir      string
	Output        string
	NumFilesLimit int
	TestSize      int
	ChunkSize     int
	MaxTries      int
	Seed          int64
	Distribution  Distribution
}

func (p GenerateParams) withDefaults() GenerateParams {
	if p.NumFilesLimit <= 0 {
		p.NumFilesLimit = DefaultNumFilesLimit
	}
	if p.TestSize <= 0 {
		p.TestSize = DefaultTestSize
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = DefaultChunkSize
	}
	if p.MaxTries <= 0 {
		p.MaxTries = DefaultMaxTries
	}
	if len(p.Distribution) == 0 {
		p.Distribution = DefaultDistribution()
	}
	return p
}

// GenerateTestset loads documents from the input directory, generates a synthetic test set
// from them and writes it to the output file.
func (re *ragEval) GenerateTestset(ctx context.Context, params GenerateParams) (*Run, error) {
	params = params.withDefaults()

	if err := params.Distribution.Valid(); err != nil {
		return nil, err
	}
	if re.loader == nil {
		return nil, fmt.Errorf("document loader: %w", ErrNotConfigured)
	}

	return re.track(ctx, RunKindGenerate, params.InputDir, params.Output, func(ctx context.Context, aRun *Run) error {
		re.logger.Sugar().Infof("loading documents from %s", params.InputDir)

		documents, err := re.loader.Load(ctx, params.InputDir, params.NumFilesLimit)
		if err != nil {
			return fmt.Errorf("loading documents: %w", err)
		}
		if len(documents) == 0 {
			return ErrNoDocuments
		}

		re.logger.Sugar().Infof("generating testset of %d samples from %d documents", params.TestSize, len(documents))

		samples, err := re.GenerateSamples(ctx, documents, params)
		if err != nil {
			return err
		}

		table, err := TestsetTable(samples)
		if err != nil {
			return err
		}
		if err := re.datasets.WriteTable(params.Output, table); err != nil {
			return fmt.Errorf("writing testset: %w", err)
		}

		aRun.Rows = len(samples)
		for evolution, count := range countEvolutions(samples) {
			aRun.Summary[string(evolution)] = float64(count)
		}

		re.logger.Sugar().Infof("testset saved to %s", params.Output)

		return nil
	})
}

// GenerateSamples builds nodes from the documents and generates samples following the distribution.
// Samples that cannot be generated within MaxTries attempts are dropped.
func (re *ragEval) GenerateSamples(ctx context.Context, documents []Document, params GenerateParams) ([]Sample, error) {
	params = params.withDefaults()

	if err := params.Distribution.Valid(); err != nil {
		return nil, err
	}
	if re.generator == nil {
		return nil, fmt.Errorf("testset model: %w", ErrNotConfigured)
	}
	if re.embedder == nil {
		return nil, fmt.Errorf("embedder: %w", ErrNotConfigured)
	}

	nodes, err := re.prepareNodes(ctx, documents, params.ChunkSize)
	if err != nil {
		return nil, err
	}

	type job struct {
		evolution EvolutionType
		index     int
	}

	var (
		counts = params.Distribution.Counts(params.TestSize)
		jobs   = make([]job, 0, params.TestSize)
	)
	for _, evolution := range evolutionOrder {
		for i := range counts[evolution] {
			jobs = append(jobs, job{evolution, i})
		}
	}

	var (
		results = make([]*Sample, len(jobs))
		errs    = make([]error, len(jobs))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(re.concurrency)

	for i, aJob := range jobs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			// Seeding per job keeps node selection independent of scheduling.
			rnd := rand.New(rand.NewSource(params.Seed + int64(i)))

			for attempt := 1; attempt <= params.MaxTries; attempt++ {
				aSample, err := re.generateSample(gCtx, rnd, nodes, aJob.evolution)
				if err == nil {
					results[i] = aSample
					return nil
				}
				errs[i] = err
				if err := gCtx.Err(); err != nil {
					return err
				}
				re.logger.Sugar().Debugf("%s sample %d attempt %d failed: %v", aJob.evolution, aJob.index, attempt, err)
			}

			re.logger.Sugar().Warnf("dropping %s sample %d after %d attempts: %v", aJob.evolution, aJob.index, params.MaxTries, errs[i])

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(jobs))
	for _, aSample := range results {
		if aSample != nil {
			samples = append(samples, *aSample)
		}
	}

	if len(samples) == 0 && len(jobs) > 0 {
		return nil, fmt.Errorf("no samples generated: %w", errors.Join(errs...))
	}

	return samples, nil
}

func (re *ragEval) prepareNodes(ctx context.Context, documents []Document, chunkSize int) ([]Node, error) {
	nodes := SplitDocuments(re.tokenizer, documents, chunkSize)
	if len(nodes) == 0 {
		return nil, ErrNoUsableNodes
	}

	re.logger.Sugar().Infof("split %d documents into %d nodes", len(documents), len(nodes))

	contents := make([]string, 0, len(nodes))
	for _, aNode := range nodes {
		contents = append(contents, aNode.Content)
	}
	vectors, err := re.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embedding nodes: %w", err)
	}
	if len(vectors) != len(nodes) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	var (
		scoreErrs = make([]error, len(nodes))
		g, gCtx   = errgroup.WithContext(ctx)
	)
	g.SetLimit(re.concurrency)

	for i := range nodes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			nodes[i].Embedding = vectors[i]
			nodes[i].Score, scoreErrs[i] = re.generator.ScoreContext(gCtx, nodes[i].Content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usable := make([]Node, 0, len(nodes))
	for i, aNode := range nodes {
		if scoreErrs[i] != nil {
			re.logger.Sugar().Warnf("scoring node %d failed: %v", aNode.ID, scoreErrs[i])
			continue
		}
		if aNode.Score < minContextScore {
			continue
		}
		usable = append(usable, aNode)
	}

	if len(usable) == 0 {
		return nil, ErrNoUsableNodes
	}

	re.logger.Sugar().Infof("%d of %d nodes passed the context filter", len(usable), len(nodes))

	return usable, nil
}

func (re *ragEval) generateSample(ctx context.Context, rnd *rand.Rand, nodes []Node, evolution EvolutionType) (*Sample, error) {
	var (
		seed    = nodes[rnd.Intn(len(nodes))]
		picked  = []Node{seed}
		content = seed.Content
	)

	if evolution == EvolutionMultiContext {
		embeddings := make([]Vector, 0, len(nodes))
		seedIdx := -1
		for i, aNode := range nodes {
			embeddings = append(embeddings, aNode.Embedding)
			if aNode.ID == seed.ID {
				seedIdx = i
			}
		}
		neighbour := MostSimilar(seed.Embedding, embeddings, seedIdx)
		if neighbour < 0 {
			return nil, fmt.Errorf("multi context sample needs at least two nodes")
		}
		picked = append(picked, nodes[neighbour])
	}

	question, err := re.generator.SeedQuestion(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("seed question: %w", err)
	}

	ok, err := re.generator.CritiqueQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("critique question: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("question rejected by critic: %s", question)
	}

	contexts := make([]string, 0, len(picked))
	metadata := make([]string, 0, len(picked))
	for _, aNode := range picked {
		contexts = append(contexts, aNode.Content)
		if !slices.Contains(metadata, aNode.FileName) {
			metadata = append(metadata, aNode.FileName)
		}
	}

	if evolution != EvolutionSimple {
		question, err = re.generator.EvolveQuestion(ctx, evolution, question, contexts)
		if err != nil {
			return nil, fmt.Errorf("evolve question: %w", err)
		}
		if question == "" {
			return nil, fmt.Errorf("evolved question is empty")
		}
	}

	groundTruth, err := re.generator.AnswerQuestion(ctx, question, contexts)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}

	return &Sample{
		Question:      question,
		Contexts:      contexts,
		GroundTruth:   groundTruth,
		EvolutionType: evolution,
		Metadata:      metadata,
		EpisodeDone:   true,
	}, nil
}

func countEvolutions(samples []Sample) map[EvolutionType]int {
	counts := map[EvolutionType]int{}
	for _, aSample := range samples {
		counts[aSample.EvolutionType]++
	}
	return counts
}
