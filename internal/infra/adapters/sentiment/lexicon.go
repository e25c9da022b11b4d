package sentiment

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicons
var lexiconFS embed.FS

// embeddedLexicons is rooted at the lexicons directory.
var embeddedLexicons, _ = fs.Sub(lexiconFS, "lexicons")

const defaultLexicon = "en"

type wordList struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

type lexiconFile struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// LoadLexicons reads every <lang>.yaml at the root of fsys. The English list
// is required.
func LoadLexicons(fsys fs.FS) (map[string]wordList, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list lexicons: %w", err)
	}
	out := make(map[string]wordList, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read lexicon %s: %w", name, err)
		}
		wl, err := parseLexicon(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse lexicon %s: %w", name, err)
		}
		out[strings.TrimSuffix(path.Base(name), ".yaml")] = wl
	}
	if _, ok := out[defaultLexicon]; !ok {
		return nil, fmt.Errorf("lexicon %q missing", defaultLexicon)
	}
	return out, nil
}

func parseLexicon(data []byte) (wordList, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return wordList{}, err
	}
	wl := wordList{positive: map[string]struct{}{}, negative: map[string]struct{}{}}
	for _, w := range f.Positive {
		wl.positive[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range f.Negative {
		wl.negative[strings.ToLower(w)] = struct{}{}
	}
	return wl, nil
}
