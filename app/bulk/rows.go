package bulk

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	releaseColumns     = []string{"title", "summary", "body", "organization", "embargo_at"}
	releaseRequired    = []string{"title", "body", "organization"}
	journalistColumns  = []string{"email", "first_name", "last_name", "outlet", "job_title", "phone", "country", "beats"}
	journalistRequired = []string{"email", "first_name", "last_name", "outlet"}
	embargoLayouts     = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}
)

// ReleaseRow is one press release in a bulk file.
type ReleaseRow struct {
	Line         int        `csv:"-"`
	Title        string     `csv:"title" validate:"required,min=5,max=200"`
	Summary      string     `csv:"summary" validate:"max=500"`
	Body         string     `csv:"body" validate:"required,min=20"`
	Organization string     `csv:"organization" validate:"required,max=120"`
	EmbargoAt    *time.Time `csv:"embargo_at"`
}

// JournalistRow is one journalist account to invite.
type JournalistRow struct {
	Line      int      `csv:"-"`
	Email     string   `csv:"email" validate:"required,email"`
	FirstName string   `csv:"first_name" validate:"required,max=60"`
	LastName  string   `csv:"last_name" validate:"required,max=60"`
	Outlet    string   `csv:"outlet" validate:"required,max=120"`
	JobTitle  string   `csv:"job_title" validate:"max=80"`
	Phone     string   `csv:"phone" validate:"omitempty,e164"`
	Country   string   `csv:"country" validate:"omitempty,iso3166_1_alpha2"`
	Beats     []string `csv:"beats" validate:"max=10"`
}

// ParseReleases reads a release file. File-level problems are returned as
// err; per-row problems as RowErrors next to the rows that passed.
func ParseReleases(r io.Reader) ([]ReleaseRow, []RowError, error) {
	t, err := readTable(r, releaseRequired)
	if err != nil {
		return nil, nil, err
	}
	var rows []ReleaseRow
	var bad []RowError
	for i, rec := range t.records {
		line := t.lines[i]
		row := ReleaseRow{
			Line:         line,
			Title:        t.get(rec, "title"),
			Summary:      t.get(rec, "summary"),
			Body:         t.get(rec, "body"),
			Organization: t.get(rec, "organization"),
		}
		var errs []RowError
		if raw := t.get(rec, "embargo_at"); raw != "" {
			at, ok := parseTime(raw)
			if !ok {
				errs = append(errs, RowError{Line: line, Field: "embargo_at", Message: "must be a date like 2024-05-01 or RFC 3339"})
			}
			row.EmbargoAt = at
		}
		if err := validate.Struct(row); err != nil {
			errs = append(errs, rowErrors(line, err)...)
		}
		if len(errs) > 0 {
			bad = append(bad, errs...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, bad, nil
}

// ParseJournalists reads a journalist file. Beats are separated by
// semicolons. A repeated email is rejected on every line after the first.
func ParseJournalists(r io.Reader) ([]JournalistRow, []RowError, error) {
	t, err := readTable(r, journalistRequired)
	if err != nil {
		return nil, nil, err
	}
	seen := map[string]int{}
	var rows []JournalistRow
	var bad []RowError
	for i, rec := range t.records {
		line := t.lines[i]
		row := JournalistRow{
			Line:      line,
			Email:     strings.ToLower(t.get(rec, "email")),
			FirstName: t.get(rec, "first_name"),
			LastName:  t.get(rec, "last_name"),
			Outlet:    t.get(rec, "outlet"),
			JobTitle:  t.get(rec, "job_title"),
			Phone:     t.get(rec, "phone"),
			Country:   strings.ToUpper(t.get(rec, "country")),
			Beats:     splitList(t.get(rec, "beats")),
		}
		var errs []RowError
		if err := validate.Struct(row); err != nil {
			errs = append(errs, rowErrors(line, err)...)
		}
		if first, dup := seen[row.Email]; dup && row.Email != "" {
			errs = append(errs, RowError{Line: line, Field: "email", Message: "duplicate of line " + strconv.Itoa(first)})
		} else if row.Email != "" {
			seen[row.Email] = line
		}
		if len(errs) > 0 {
			bad = append(bad, errs...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, bad, nil
}

// EncodeReleases writes rows back out with the canonical header.
func EncodeReleases(w io.Writer, rows []ReleaseRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		embargo := ""
		if r.EmbargoAt != nil {
			embargo = r.EmbargoAt.UTC().Format(time.RFC3339)
		}
		out[i] = []string{r.Title, r.Summary, r.Body, r.Organization, embargo}
	}
	return writeAll(w, releaseColumns, out)
}

// EncodeJournalists writes rows back out with the canonical header.
func EncodeJournalists(w io.Writer, rows []JournalistRow) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Email, r.FirstName, r.LastName, r.Outlet, r.JobTitle, r.Phone, r.Country, strings.Join(r.Beats, ";")}
	}
	return writeAll(w, journalistColumns, out)
}

// Encode is a convenience returning the encoded bytes of either row type.
func Encode[R ReleaseRow | JournalistRow](rows []R) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch v := any(rows).(type) {
	case []ReleaseRow:
		err = EncodeReleases(&buf, v)
	case []JournalistRow:
		err = EncodeJournalists(&buf, v)
	}
	return buf.Bytes(), err
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTime(s string) (*time.Time, bool) {
	for _, layout := range embargoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}
