package ragevaltest

import (
	"github.com/RichardKnop/rageval"
)

type PassageOption func(*rageval.Passage)

func WithPassageID(id any) PassageOption {
	return func(p *rageval.Passage) {
		p.ID = id
	}
}

func WithPassageText(text string) PassageOption {
	return func(p *rageval.Passage) {
		p.Text = text
	}
}

func WithPassageMeta(meta map[string]any) PassageOption {
	return func(p *rageval.Passage) {
		p.Meta = meta
	}
}

func (g *DataGen) Passage(options ...PassageOption) rageval.Passage {
	aPassage := rageval.Passage{
		ID:   g.UUID(),
		Text: g.Sentence(12),
		Meta: map[string]any{"source": g.URL()},
	}

	for _, o := range options {
		o(&aPassage)
	}

	return aPassage
}
