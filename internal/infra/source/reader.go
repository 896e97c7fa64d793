// Package source decodes extract files into validated domain records.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
)

// Files names the extract file of each entity, relative to the input directory.
type Files struct {
	Members       string `yaml:"members"`
	Bills         string `yaml:"bills"`
	RollCalls     string `yaml:"roll_calls"`
	Votes         string `yaml:"votes"`
	Expenses      string `yaml:"expenses"`
	VoteBillLinks string `yaml:"vote_bill_links"`
	PartyGuidance string `yaml:"party_guidance"`
}

// DefaultFiles follows the open-data extract naming.
func DefaultFiles() Files {
	return Files{
		Members:       "deputados.csv",
		Bills:         "proposicoes.csv",
		RollCalls:     "votacoes.csv",
		Votes:         "votos.csv",
		Expenses:      "despesas.csv",
		VoteBillLinks: "votacoes_proposicoes.csv",
		PartyGuidance: "orientacoes.csv",
	}
}

// List returns every configured file name.
func (f Files) List() []string {
	return []string{f.Members, f.Bills, f.RollCalls, f.Votes, f.Expenses, f.VoteBillLinks, f.PartyGuidance}
}

// Config holds source settings.
type Config struct {
	Delimiter string `yaml:"delimiter"`
	Files     Files  `yaml:"files"`
}

// Reader reads one extract directory. It is safe to call its methods
// repeatedly; every call re-reads the file.
type Reader struct {
	dir      string
	comma    rune
	files    Files
	validate *validator.Validate
}

// NewReader creates a reader over dir. Empty config fields take defaults.
func NewReader(dir string, cfg Config) *Reader {
	comma := ';'
	if cfg.Delimiter != "" {
		comma = []rune(cfg.Delimiter)[0]
	}

	files := cfg.Files
	def := DefaultFiles()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&files.Members, def.Members)
	fill(&files.Bills, def.Bills)
	fill(&files.RollCalls, def.RollCalls)
	fill(&files.Votes, def.Votes)
	fill(&files.Expenses, def.Expenses)
	fill(&files.VoteBillLinks, def.VoteBillLinks)
	fill(&files.PartyGuidance, def.PartyGuidance)

	return &Reader{
		dir:      dir,
		comma:    comma,
		files:    files,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Files returns the resolved file names.
func (r *Reader) Files() Files { return r.files }

// each decodes every data row of name, calling fn with a row cursor. The
// header row is required and every column in required must be present.
func (r *Reader) each(op, name string, required []string, fn func(*row) error) error {
	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return errs.Validation(op, fmt.Errorf("open extract: %w", err))
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.comma
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errs.Validationf(op, "%s: empty file", name)
	}
	if err != nil {
		return errs.Validation(op, fmt.Errorf("%s: read header: %w", name, err))
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return errs.Validationf(op, "%s: missing column %q", name, col)
		}
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errs.Validation(op, fmt.Errorf("%s: %w", name, err))
		}
		line, _ := cr.FieldPos(0)

		rw := &row{file: name, line: line, index: index, fields: fields}
		if err := fn(rw); err != nil {
			return errs.Validation(op, err)
		}
	}
}

// check runs the struct validator and attaches the row position.
func (r *Reader) check(rw *row, v any) error {
	if rw.err != nil {
		return rw.fail(rw.err)
	}
	if err := r.validate.Struct(v); err != nil {
		return rw.fail(err)
	}
	return nil
}

// row is a cursor over one CSV record. Conversion failures are sticky: the
// first one is kept and reported by Reader.check.
type row struct {
	file   string
	line   int
	index  map[string]int
	fields []string
	err    error
}

func (rw *row) fail(err error) error {
	return fmt.Errorf("%s:%d: %w", rw.file, rw.line, err)
}

func (rw *row) setErr(col string, err error) {
	if rw.err == nil {
		rw.err = fmt.Errorf("column %s: %w", col, err)
	}
}

func (rw *row) str(col string) string {
	i, ok := rw.index[col]
	if !ok || i >= len(rw.fields) {
		return ""
	}
	return strings.TrimSpace(rw.fields[i])
}

func (rw *row) optStr(col string) *string {
	s := rw.str(col)
	if s == "" {
		return nil
	}
	return &s
}

func (rw *row) id(col string) int64 {
	s := rw.str(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		rw.setErr(col, err)
	}
	return v
}

func (rw *row) optID(col string) *int64 {
	if rw.str(col) == "" {
		return nil
	}
	v := rw.id(col)
	return &v
}

func (rw *row) num(col string) int {
	return int(rw.id(col))
}

func (rw *row) flag(col string) bool {
	switch strings.ToLower(rw.str(col)) {
	case "", "0", "false", "nao", "não", "n":
		return false
	case "1", "true", "sim", "s":
		return true
	default:
		rw.setErr(col, fmt.Errorf("invalid boolean %q", rw.str(col)))
		return false
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (rw *row) optTime(col string) *time.Time {
	s := rw.str(col)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	rw.setErr(col, fmt.Errorf("invalid time %q", s))
	return nil
}

func (rw *row) timestamp(col string) time.Time {
	if t := rw.optTime(col); t != nil {
		return *t
	}
	return time.Time{}
}

func (rw *row) cents(col string) domain.Cents {
	c, err := domain.ParseCents(rw.str(col))
	if err != nil {
		rw.setErr(col, err)
	}
	return c
}
