package rageval

import (
	"strings"

	"github.com/neurosnap/sentences"
)

const DefaultChunkSize = 1024

type Document struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
	Page     int    `json:"page"`
}

func (d Document) Sanitize() Document {
	d.Content = strings.TrimSpace(d.Content)
	d.Content = strings.Join(strings.Fields(d.Content), " ")
	return d
}

// Node is a chunk of a document used as context when generating test samples.
type Node struct {
	ID        int
	FileName  string
	Page      int
	Content   string
	Embedding Vector
	Score     float64
}

// SplitDocuments groups the sentences of every document into nodes of at most chunkSize
// characters. A sentence longer than chunkSize becomes a node of its own.
func SplitDocuments(tokenizer *sentences.DefaultSentenceTokenizer, documents []Document, chunkSize int) []Node {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var (
		nodes   = make([]Node, 0, len(documents))
		current strings.Builder
	)

	flush := func(aDocument Document) {
		if current.Len() == 0 {
			return
		}
		nodes = append(nodes, Node{
			ID:       len(nodes),
			FileName: aDocument.FileName,
			Page:     aDocument.Page,
			Content:  current.String(),
		})
		current.Reset()
	}

	for _, aDocument := range documents {
		aDocument = aDocument.Sanitize()
		if aDocument.Content == "" {
			continue
		}

		for _, aSentence := range tokenizer.Tokenize(aDocument.Content) {
			text := strings.TrimSpace(aSentence.Text)
			if text == "" {
				continue
			}

			if current.Len() > 0 && current.Len()+1+len(text) > chunkSize {
				flush(aDocument)
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(text)
		}

		// Nodes never span documents
		flush(aDocument)
	}

	return nodes
}
