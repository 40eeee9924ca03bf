package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/RichardKnop/rageval"
)

// Load walks dir in lexical order and reads at most limit supported files.
// Hidden files and directories are skipped, files that fail to load are skipped with a warning.
func (a *Adapter) Load(ctx context.Context, dir string, limit int) ([]rageval.Document, error) {
	var (
		documents []rageval.Document
		files     int
		skipped   int
	)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := a.extensions[ext]; !ok {
			a.logger.Sugar().Debugf("skipping unsupported file: %s", path)
			return nil
		}

		if limit > 0 && files >= limit {
			return filepath.SkipAll
		}

		// A file that cannot be read still counts towards the limit
		files++
		fileDocuments, err := a.loadFile(path, ext)
		if err != nil {
			a.logger.Sugar().Warnf("skipping unreadable file %s: %v", path, err)
			skipped++
			return nil
		}
		documents = append(documents, fileDocuments...)

		a.logger.Sugar().Debugf("loaded %d documents from %s", len(fileDocuments), path)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(documents) == 0 {
		return nil, rageval.ErrNoDocuments
	}

	a.logger.Sugar().Infof("loaded %d documents from %d files, skipped %d", len(documents), files-skipped, skipped)

	return documents, nil
}

func (a *Adapter) loadFile(path, ext string) ([]rageval.Document, error) {
	name := filepath.Base(path)

	if ext == ".pdf" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		pages, err := extractPages(f)
		if err != nil {
			return nil, err
		}

		documents := make([]rageval.Document, 0, len(pages))
		for i, page := range pages {
			aDocument := rageval.Document{FileName: name, Content: page, Page: i + 1}.Sanitize()
			if aDocument.Content == "" {
				continue
			}
			documents = append(documents, aDocument)
		}
		return documents, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	aDocument := rageval.Document{FileName: name, Content: string(data), Page: 1}.Sanitize()
	if aDocument.Content == "" {
		return nil, nil
	}

	return []rageval.Document{aDocument}, nil
}
