package ragevaltest

import (
	"strings"

	"github.com/RichardKnop/rageval"
)

type DocumentOption func(*rageval.Document)

func WithDocumentFileName(name string) DocumentOption {
	return func(d *rageval.Document) {
		d.FileName = name
	}
}

func WithDocumentContent(content string) DocumentOption {
	return func(d *rageval.Document) {
		d.Content = content
	}
}

func WithDocumentPage(page int) DocumentOption {
	return func(d *rageval.Document) {
		d.Page = page
	}
}

// Document returns a document of a few plain sentences, each ending with a full stop.
func (g *DataGen) Document(options ...DocumentOption) rageval.Document {
	sentences := make([]string, 0, 5)
	for range 5 {
		sentences = append(sentences, g.Sentence(8))
	}

	aDocument := rageval.Document{
		FileName: strings.ToLower(g.Word()) + ".txt",
		Content:  strings.Join(sentences, " "),
		Page:     1,
	}

	for _, o := range options {
		o(&aDocument)
	}

	return aDocument
}
