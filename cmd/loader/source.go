package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/kailas-cloud/hybridrag/pkg/client"
)

const maxLineBytes = 16 << 20

func newSplitter(size, overlap int) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
}

// readChunks loads one input file. Text chunks get stable ids "<file>#<n>" so a re-run
// reports duplicates instead of storing the same passage twice.
func readChunks(path string, splitter textsplitter.TextSplitter) ([]client.Chunk, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return readJSONL(path)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parts, err := splitter.SplitText(string(data))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}

	base := filepath.ToSlash(filepath.Clean(path))
	chunks := make([]client.Chunk, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		chunks = append(chunks, client.Chunk{
			ID:      fmt.Sprintf("%s#%d", base, len(chunks)),
			Content: p,
		})
	}
	return chunks, nil
}

// readJSONL reads one {"id"?, "content"} object per line. Blank lines are skipped.
func readJSONL(path string) ([]client.Chunk, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	var chunks []client.Chunk
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var c client.Chunk
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if strings.TrimSpace(c.Content) == "" {
			return nil, fmt.Errorf("%s:%d: content is required", path, line)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return chunks, nil
}
