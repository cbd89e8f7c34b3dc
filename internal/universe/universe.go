// Package universe resolves the list of IDX symbols to screen.
package universe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/wonny/cruzer/pkg/config"
)

// ErrEmptyUniverse is returned when no symbol survives loading
var ErrEmptyUniverse = errors.New("universe is empty")

// IDX listing codes are four letters
var codePattern = regexp.MustCompile(`^[A-Z]{4}$`)

// Universe is an ordered, de-duplicated symbol list
type Universe struct {
	Symbols []string
	Source  string // inline, file path
}

// Len returns the number of symbols
func (u *Universe) Len() int { return len(u.Symbols) }

// File is the YAML universe layout
//
//	groups:
//	  - name: bluechip
//	    symbols: [BBCA, BBRI]
//	exclude: [GOTO]
type File struct {
	Groups  []Group  `yaml:"groups"`
	Exclude []string `yaml:"exclude"`
}

// Group is a named sector or watchlist section
type Group struct {
	Name    string   `yaml:"name"`
	Symbols []string `yaml:"symbols"`
}

// Resolve picks the inline list when set, otherwise the configured file
// ⭐ SSOT: 유니버스 결정은 여기서만
func Resolve(cfg config.UniverseConfig) (*Universe, error) {
	if len(cfg.Symbols) > 0 {
		return FromList(cfg.Symbols, "inline")
	}
	if cfg.File != "" {
		return LoadFile(cfg.File)
	}
	return nil, fmt.Errorf("%w: set UNIVERSE_SYMBOLS or UNIVERSE_FILE", ErrEmptyUniverse)
}

// FromList normalizes raw codes. Invalid codes are dropped.
func FromList(raw []string, source string) (*Universe, error) {
	return build(raw, nil, source)
}

// LoadFile loads YAML (.yaml, .yml) or an HTML table (.html, .htm)
func LoadFile(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f, path)
	case ".html", ".htm":
		return LoadHTML(f, path)
	default:
		return nil, fmt.Errorf("unsupported universe file %q (want .yaml or .html)", path)
	}
}

// LoadYAML decodes a File; unknown keys are rejected
func LoadYAML(r io.Reader, source string) (*Universe, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyUniverse, source)
		}
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}

	var raw []string
	for _, g := range file.Groups {
		raw = append(raw, g.Symbols...)
	}
	return build(raw, file.Exclude, source)
}

// LoadHTML reads the first cell of every table row, e.g. an exported IDX
// listing page. Header rows and rows without a code are skipped.
func LoadHTML(r io.Reader, source string) (*Universe, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse universe html: %w", err)
	}

	var raw []string
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		raw = append(raw, cell.Text())
	})
	return build(raw, nil, source)
}

func build(raw, exclude []string, source string) (*Universe, error) {
	skip := make(map[string]bool, len(exclude))
	for _, s := range exclude {
		skip[normalize(s)] = true
	}

	seen := make(map[string]bool, len(raw))
	symbols := make([]string, 0, len(raw))
	for _, s := range raw {
		code := normalize(s)
		if !codePattern.MatchString(code) || skip[code] || seen[code] {
			continue
		}
		seen[code] = true
		symbols = append(symbols, code)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyUniverse, source)
	}
	return &Universe{Symbols: symbols, Source: source}, nil
}

// normalize strips whitespace and a trailing exchange suffix (BBCA.JK)
func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".JK")
	return s
}
