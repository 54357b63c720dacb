package posfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
)

// Result is the outcome of canonicalizing one export file.
type Result struct {
	Kind        model.SourceKind
	Rows        []model.RawPosRow
	Annotations []model.Annotation
}

// Decoder canonicalizes POS export files.
type Decoder struct{}

// NewDecoder creates a new export decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one export file into raw rows. The primary attempt assumes
// UTF-8 with comma delimiters; on failure it retries as Windows-874 with
// semicolons, which is what older provider exports localized for Thailand
// produce. Cell-level problems degrade to annotations, never errors.
func (d *Decoder) Decode(file model.ExportFile) (*Result, error) {
	if len(bytes.TrimSpace(file.Data)) == 0 {
		return nil, fmt.Errorf("%s: %w", file.Filename, common.ErrEmptyExport)
	}

	res := &Result{Kind: file.Kind}

	header, records, err := readCSV(bytes.NewReader(file.Data), ',')
	if err != nil || !utf8.Valid(file.Data) || singleColumnWithSemicolons(header) {
		fallbackHeader, fallbackRecords, fbErr := readCSV(
			transform.NewReader(bytes.NewReader(file.Data), charmap.Windows874.NewDecoder()), ';')
		if fbErr != nil {
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", file.Filename, err)
			}
			return nil, fmt.Errorf("parse %s: %w", file.Filename, fbErr)
		}
		header, records = fallbackHeader, fallbackRecords
		res.Annotations = append(res.Annotations, model.Annotation{
			Code:     model.CodeEncodingFallback,
			Severity: model.SeverityInfo,
			Message:  "decoded as Windows-874 with semicolon delimiters",
			File:     file.Filename,
		})
	}

	if res.Kind == model.KindUnknown || res.Kind == "" {
		res.Kind = InferKind(file.Filename, header)
	}
	if res.Kind == model.KindUnknown {
		return nil, fmt.Errorf("%s: %w", file.Filename, common.ErrUnknownSourceKind)
	}

	cols, dupes := normalizeHeader(header)
	for _, dupe := range dupes {
		res.Annotations = append(res.Annotations, model.Annotation{
			Code:     model.CodeDuplicateColumn,
			Severity: model.SeverityInfo,
			Message:  fmt.Sprintf("duplicate column %q ignored", dupe),
			File:     file.Filename,
		})
	}

	for i, record := range records {
		fields := make(map[string]string, len(cols))
		for idx, name := range cols {
			if name == "" || idx >= len(record) {
				continue
			}
			if _, seen := fields[name]; seen {
				continue // first column with a name wins
			}
			fields[name] = strings.TrimSpace(record[idx])
		}
		res.Rows = append(res.Rows, model.RawPosRow{
			Fields: fields,
			Kind:   res.Kind,
			File:   file.Filename,
			Line:   i + 2, // 1-based, after the header row
		})
	}

	return res, nil
}

// readCSV parses the full stream with the given delimiter. Ragged rows are
// tolerated; short rows simply leave columns unset.
func readCSV(r io.Reader, delimiter rune) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return all[0], all[1:], nil
}

// singleColumnWithSemicolons spots a comma-parse that silently swallowed a
// semicolon-delimited file into one wide column.
func singleColumnWithSemicolons(header []string) bool {
	return len(header) == 1 && strings.Contains(header[0], ";")
}

// normalizeHeader lower-cases and trims column names, blanking duplicates so
// the first occurrence wins. Returns the normalized names and any duplicates.
func normalizeHeader(header []string) (cols []string, dupes []string) {
	seen := make(map[string]bool, len(header))
	cols = make([]string, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "" {
			continue
		}
		if seen[name] {
			dupes = append(dupes, name)
			continue
		}
		seen[name] = true
		cols[i] = name
	}
	return cols, dupes
}
