// Package bulk reads and writes the CSV files admins upload in bulk.
// Rows are checked locally so only clean rows reach the server.
package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxRows is the largest file accepted, header excluded.
const MaxRows = 5000

var (
	ErrEmpty          = errors.New("bulk: file has no rows")
	ErrTooManyRows    = fmt.Errorf("bulk: file has more than %d rows", MaxRows)
	ErrMissingColumns = errors.New("bulk: missing required columns")
)

// RowError describes one rejected cell or row. Line is the 1-based line in
// the file, so the header is line 1.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("csv")
	})
	return v
}

// table is a parsed file: header positions and records with their lines.
type table struct {
	index   map[string]int
	records [][]string
	lines   []int
}

func (t *table) get(rec []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func readTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("bulk: read header: %w", err)
	}

	t := &table{index: map[string]int{}}
	for i, h := range header {
		name := normalize(h)
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("bulk: duplicate column %q", name)
		}
		t.index[name] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bulk: %w", err)
		}
		if blank(rec) {
			continue
		}
		if len(t.records) == MaxRows {
			return nil, ErrTooManyRows
		}
		line, _ := cr.FieldPos(0)
		t.records = append(t.records, rec)
		t.lines = append(t.lines, line)
	}
	if len(t.records) == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// normalize lowercases a header and accepts spaces or dashes for
// underscores, so "First Name" matches first_name.
func normalize(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rowErrors(line int, err error) []RowError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []RowError{{Line: line, Message: err.Error()}}
	}
	out := make([]RowError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, RowError{Line: line, Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "e164":
		return "must be an international phone number"
	case "iso3166_1_alpha2":
		return "must be a two letter country code"
	}
	return "is invalid"
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("bulk: write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("bulk: write rows: %w", err)
	}
	return nil
}
