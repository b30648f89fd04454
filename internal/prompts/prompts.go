package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
)

const (
	Cutoff       = "cutoff"
	ChunkSummary = "chunk_summary"
	Merge        = "merge"
	System       = "system"
)

var ErrPromptNotFound = errors.New("prompt not found")

//go:embed *.md
var promptFiles embed.FS

var (
	loadOnce sync.Once
	loaded   map[string]string
	loadErr  error
)

// GetPrompts returns every embedded prompt keyed by file name without extension.
func GetPrompts() (map[string]string, error) {
	loadOnce.Do(func() {
		loaded, loadErr = readAll()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make(map[string]string, len(loaded))
	for k, v := range loaded {
		out[k] = v
	}
	return out, nil
}

func readAll() (map[string]string, error) {
	prompts := make(map[string]string)

	err := fs.WalkDir(promptFiles, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}

		content, err := promptFiles.ReadFile(path)
		if err != nil {
			return err
		}

		fileName := filepath.Base(path)
		key := fileName[:len(fileName)-len(filepath.Ext(fileName))]
		prompts[key] = string(content)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return prompts, nil
}

func GetSinglePrompt(name string) (string, error) {
	prompts, err := GetPrompts()
	if err != nil {
		return "", err
	}
	val, ok := prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	return val, nil
}
