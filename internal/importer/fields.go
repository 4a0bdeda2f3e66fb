package importer

import (
	"errors"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quoted field")

// splitFields splits one comma-separated line. Fields wrapped in quote may
// contain commas; a doubled quote inside such a field is a literal quote.
func splitFields(line string, quote rune) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	var (
		fields  []string
		field   strings.Builder
		quoted  bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quoted:
			if r != quote {
				field.WriteRune(r)
				continue
			}
			if i+1 < len(runes) && runes[i+1] == quote {
				field.WriteRune(quote)
				i++
				continue
			}
			quoted = false
		case r == quote && !started:
			quoted = true
			started = true
		case r == ',':
			fields = append(fields, field.String())
			field.Reset()
			started = false
		default:
			field.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, errUnterminatedQuote
	}
	return append(fields, field.String()), nil
}
