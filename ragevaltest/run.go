package ragevaltest

import (
	"time"

	"github.com/RichardKnop/rageval"
)

type RunOption func(*rageval.Run)

func WithRunKind(kind rageval.RunKind) RunOption {
	return func(r *rageval.Run) {
		r.Kind = kind
	}
}

func WithRunStatus(status rageval.RunStatus) RunOption {
	return func(r *rageval.Run) {
		r.Status = status
	}
}

func WithRunCreated(created time.Time) RunOption {
	return func(r *rageval.Run) {
		r.Created = created
	}
}

var runKinds = []rageval.RunKind{
	rageval.RunKindGenerate,
	rageval.RunKindAnswer,
	rageval.RunKindScore,
	rageval.RunKindDownload,
}

func (g *DataGen) Run(options ...RunOption) *rageval.Run {
	g.ShuffleAnySlice(runKinds)

	aRun := rageval.Run{
		ID:      rageval.NewRunID(),
		Kind:    runKinds[0],
		Input:   g.Word() + ".csv",
		Output:  g.Word() + ".csv",
		Summary: map[string]float64{},
		Status:  rageval.RunStatusRunning,
		Created: g.now,
	}

	for _, o := range options {
		o(&aRun)
	}

	return &aRun
}
