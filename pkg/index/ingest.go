package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// Ingest walks dir, loads every .pdf, .txt and .md file, splits the text
// into overlapping chunks and adds them to idx. Pages of a PDF are combined
// before splitting so chunks can span page breaks. Returns the number of
// chunks added; a missing dir surfaces as an fs.ErrNotExist.
func Ingest(ctx context.Context, idx Index, dir string) (int, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	var chunks []Chunk
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".pdf" && ext != ".txt" && ext != ".md" {
			return nil
		}

		text, err := loadFile(ctx, path, ext)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		pieces, err := splitter.SplitText(text)
		if err != nil {
			return fmt.Errorf("split %s: %w", path, err)
		}
		for _, piece := range pieces {
			chunks = append(chunks, Chunk{Content: piece, Source: path})
		}
		return nil
	})
	if walkErr != nil {
		return 0, walkErr
	}

	if len(chunks) == 0 {
		return 0, nil
	}
	if err := idx.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func loadFile(ctx context.Context, path, ext string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var loader documentloaders.Loader
	if ext == ".pdf" {
		info, err := f.Stat()
		if err != nil {
			return "", err
		}
		loader = documentloaders.NewPDF(f, info.Size())
	} else {
		loader = documentloaders.NewText(f)
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n"), nil
}
