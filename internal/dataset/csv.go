package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maplewav/newslens/internal/types"
)

// Columns is the canonical dataset schema, in write order. Loading requires
// only word_count and source; the rest are optional and looked up by header
// name, so column order and extra columns don't matter.
var Columns = []string{"id", "title", "source", "url", "ctime", "description", "lang", "word_count"}

// Result is the outcome of one load: the typed records plus the number of
// malformed rows that were skipped.
type Result struct {
	Articles []types.Article
	Skipped  int
}

// Loader reads article datasets from CSV into typed records, quarantining
// malformed rows at the boundary instead of letting untyped data through.
type Loader struct {
	comma  rune
	logger *slog.Logger
}

// NewLoader creates a Loader. A zero comma means ','.
func NewLoader(comma rune, logger *slog.Logger) *Loader {
	if comma == 0 {
		comma = ','
	}
	return &Loader{
		comma:  comma,
		logger: logger.With("component", "dataset"),
	}
}

// LoadFile reads a CSV dataset from path.
func (l *Loader) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads a CSV dataset. The header row names the columns; a row whose
// word_count fails to parse as a non-negative integer is skipped and counted,
// never silently dropped. A missing required column fails the whole load.
func (l *Loader) Load(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = l.comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row: %w", types.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	wcIdx, ok := col["word_count"]
	if !ok {
		return nil, fmt.Errorf("dataset header missing word_count column")
	}
	srcIdx, ok := col["source"]
	if !ok {
		return nil, fmt.Errorf("dataset header missing source column")
	}

	res := &Result{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// Structural damage (stray quotes, bad field counts) is confined
			// to the row, same as a type failure.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				l.logger.Warn("skipping malformed row", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		art, err := parseRow(row, col, wcIdx, srcIdx, line)
		if err != nil {
			res.Skipped++
			l.logger.Warn("skipping malformed row", "line", line, "error", err)
			continue
		}
		res.Articles = append(res.Articles, art)
	}

	l.logger.Info("dataset loaded", "records", len(res.Articles), "skipped", res.Skipped)
	return res, nil
}

// parseRow converts one CSV row into a typed Article.
func parseRow(row []string, col map[string]int, wcIdx, srcIdx, line int) (types.Article, error) {
	if wcIdx >= len(row) || srcIdx >= len(row) {
		return types.Article{}, &types.MalformedRecordError{
			Line:   line,
			Column: "word_count",
			Err:    fmt.Errorf("row has %d fields, need %d", len(row), max(wcIdx, srcIdx)+1),
		}
	}

	raw := strings.TrimSpace(row[wcIdx])
	wc, err := strconv.Atoi(raw)
	if err != nil {
		return types.Article{}, &types.MalformedRecordError{Line: line, Column: "word_count", Value: raw, Err: err}
	}
	if wc < 0 {
		return types.Article{}, &types.MalformedRecordError{
			Line:   line,
			Column: "word_count",
			Value:  raw,
			Err:    fmt.Errorf("word count must be non-negative"),
		}
	}

	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	return types.Article{
		ID:          get("id"),
		Title:       get("title"),
		Source:      types.NormalizeSource(row[srcIdx]),
		URL:         get("url"),
		PublishedAt: get("ctime"),
		Description: get("description"),
		Lang:        get("lang"),
		WordCount:   wc,
	}, nil
}

// Row flattens an Article into the canonical column order.
func Row(a types.Article) []string {
	return []string{a.ID, a.Title, a.Source, a.URL, a.PublishedAt, a.Description, a.Lang, strconv.Itoa(a.WordCount)}
}

// Write emits articles as CSV in the canonical schema.
func Write(w io.Writer, articles []types.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range articles {
		if err := cw.Write(Row(a)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes articles to a CSV file at path, creating parent
// directories as needed.
func WriteFile(path string, articles []types.Article) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer f.Close()
	return Write(f, articles)
}
