// Package importer turns institution CSV exports into raw transactions.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/receipts/internal/logging"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

// Parser converts one institution's CSV export into raw transactions.
type Parser interface {
	Parse(r io.Reader) ([]model.RawTransaction, error)
	Format() string
}

// ParseError is a row that does not fit its institution's grammar.
type ParseError struct {
	Line int // 1-based physical line
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Schema describes a positional CSV layout.
type Schema struct {
	Fields     []string
	Quote      rune
	DateLayout string
	SkipHeader bool
	Filters    []LineFilter
}

// Row is one line mapped by field name. Missing trailing fields read as "".
type Row map[string]string

// readRows feeds every accepted line of r, mapped through s, to fn. Errors
// returned by fn are wrapped in a ParseError for the line.
func readRows(r io.Reader, s Schema, fn func(line int, row Row) error) error {
	quote := s.Quote
	if quote == 0 {
		quote = '"'
	}

	br := bufio.NewReader(r)
	lineNo := 0
	accepted := 0
	for {
		text, err := br.ReadString('\n')
		if text == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}
		lineNo++
		if lineNo == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}

		if !acceptsAll(s.Filters, text) {
			continue
		}
		accepted++
		if s.SkipHeader && accepted == 1 {
			continue
		}

		values, splitErr := splitFields(text, quote)
		if splitErr != nil {
			return &ParseError{Line: lineNo, Err: splitErr}
		}
		row := make(Row, len(s.Fields))
		for i, name := range s.Fields {
			if i < len(values) {
				row[name] = values[i]
			}
		}
		if err := fn(lineNo, row); err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				return err
			}
			return &ParseError{Line: lineNo, Err: err}
		}
	}
}

func (s Schema) date(row Row, field string) (time.Time, error) {
	v := strings.TrimSpace(row[field])
	t, err := time.Parse(s.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", field, v, err)
	}
	return t, nil
}

func amount(row Row, field string) (int64, error) {
	a, err := money.ParseAmount(row[field])
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", field, err)
	}
	return a, nil
}

// optionalAmount treats an empty field as zero.
func optionalAmount(row Row, field string) (int64, error) {
	if strings.TrimSpace(row[field]) == "" {
		return 0, nil
	}
	return amount(row, field)
}

func lastFour(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// ParseFile opens path and runs p over it. Failures are logged with the file
// name and line before being returned.
func ParseFile(ctx context.Context, path string, p Parser) ([]model.RawTransaction, error) {
	log := logging.FromContext(ctx).With().
		Str("file", filepath.Base(path)).
		Str("parser", p.Format()).
		Logger()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			log.Error().Int("line", pe.Line).Err(pe.Err).Msg("FAILURE parsing line")
		} else {
			log.Error().Err(err).Msg("FAILURE parsing file")
		}
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	log.Debug().Int("rows", len(txns)).Msg("parsed file")
	return txns, nil
}
