package ragevaltest

import (
	"github.com/RichardKnop/rageval"
)

type SampleOption func(*rageval.Sample)

func WithSampleQuestion(question string) SampleOption {
	return func(s *rageval.Sample) {
		s.Question = question
	}
}

func WithSampleAnswer(answer string) SampleOption {
	return func(s *rageval.Sample) {
		s.Answer = answer
	}
}

func WithSampleContexts(contexts ...string) SampleOption {
	return func(s *rageval.Sample) {
		s.Contexts = contexts
	}
}

func WithSampleGroundTruth(groundTruth string) SampleOption {
	return func(s *rageval.Sample) {
		s.GroundTruth = groundTruth
	}
}

func WithSampleEvolutionType(evolution rageval.EvolutionType) SampleOption {
	return func(s *rageval.Sample) {
		s.EvolutionType = evolution
	}
}

var evolutionTypes = []rageval.EvolutionType{
	rageval.EvolutionSimple,
	rageval.EvolutionReasoning,
	rageval.EvolutionMultiContext,
}

func (g *DataGen) Sample(options ...SampleOption) rageval.Sample {
	g.ShuffleAnySlice(evolutionTypes)

	aSample := rageval.Sample{
		Question:      g.Question(),
		Contexts:      []string{g.Paragraph(1, 3, 10, " ")},
		GroundTruth:   g.Sentence(10),
		EvolutionType: evolutionTypes[0],
		Metadata:      []string{g.Word() + ".pdf"},
		EpisodeDone:   true,
	}

	for _, o := range options {
		o(&aSample)
	}

	return aSample
}
