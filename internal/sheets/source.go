package sheets

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Names reported by the built-in sources. SampleSourceName lives next to the sample.
const (
	SheetsSourceName = "sheets"
	CSVSourceName    = "csv"
	CacheSourceName  = "cache"
)

// IsLive reports whether rows labelled source came straight from the configured sheet or
// export rather than from the cache or the sample.
func IsLive(source string) bool {
	return source == SheetsSourceName || source == CSVSourceName
}

// Source yields raw deal rows with the header already removed.
type Source interface {
	Name() string
	FetchRows(ctx context.Context) ([][]string, error)
}

// CSVSource reads a CSV export of the deals sheet.
type CSVSource struct {
	Path       string
	HeaderRows int
}

// NewCSVSource returns a CSV source that skips headerRows leading rows.
func NewCSVSource(path string, headerRows int) *CSVSource {
	return &CSVSource{Path: path, HeaderRows: headerRows}
}

func (s *CSVSource) Name() string {
	return CSVSourceName
}

// FetchRows parses the whole file. Rows may have differing widths.
func (s *CSVSource) FetchRows(ctx context.Context) ([][]string, error) {
	if s.Path == "" {
		return nil, ErrNotConfigured
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv export: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if err := skipLines(br, s.HeaderRows); err != nil {
		return nil, fmt.Errorf("failed to skip csv header in %s: %w", s.Path, err)
	}
	rows, err := ReadCSV(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv export %s: %w", s.Path, err)
	}
	log.Debug().Str("path", s.Path).Int("rows", len(rows)).Msg("Read CSV export")
	return rows, nil
}

// skipLines drops n physical lines. The csv reader ignores blank lines, so the header has
// to be removed before parsing to keep the row count aligned with the sheet.
func skipLines(br *bufio.Reader, n int) error {
	for i := 0; i < n; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}

// ReadCSV parses r into rows, tolerating ragged lines.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// WriteCSV writes rows to w.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// StaticSource serves rows produced on demand, such as the bundled sample.
type StaticSource struct {
	Label string
	Rows  func() [][]string
}

func (s *StaticSource) Name() string {
	return s.Label
}

func (s *StaticSource) FetchRows(ctx context.Context) ([][]string, error) {
	if s.Rows == nil {
		return nil, ErrNotConfigured
	}
	return s.Rows(), nil
}
