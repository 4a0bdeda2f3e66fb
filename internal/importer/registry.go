package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

var (
	// ErrNoParser means no dispatch entry prefix matches a file name.
	ErrNoParser = errors.New("no parser found for file")
	// ErrUnknownParser means a dispatch entry names an unregistered parser.
	ErrUnknownParser = errors.New("unknown parser class")
)

// Constructor builds a parser bound to the payment method its files belong to.
type Constructor func(pm model.PaymentMethod) Parser

// Registry holds parser constructors by identifier.
type Registry struct {
	parsers map[string]Constructor
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Constructor)}
}

// Register adds a constructor. Panics on duplicate name.
func (r *Registry) Register(name string, c Constructor) {
	key := strings.ToLower(name)
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = c
}

// Get returns the constructor for name, or nil.
func (r *Registry) Get(name string) Constructor {
	return r.parsers[strings.ToLower(name)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("bmo_bank_account", NewBMOBankAccountParser)
	r.Register("bmo_credit", NewBMOCreditParser)
	r.Register("capitalone", NewCapitalOneParser)
	r.Register("mbna_mastercard", NewMBNAParser)
	r.Register("wellsfargo", NewWellsFargoParser)
	r.Register("chase_visa", NewChaseVisaParser)
	return r
}

// Dispatcher selects a parser for a file by its base name.
type Dispatcher struct {
	entries  []model.DispatchEntry
	registry *Registry
}

// NewDispatcher validates every entry's parser class against registry.
// Entries are tried in the given order.
func NewDispatcher(entries []model.DispatchEntry, registry *Registry) (*Dispatcher, error) {
	for _, e := range entries {
		if registry.Get(e.ParserClass) == nil {
			return nil, fmt.Errorf("%w: %s (prefix %s)", ErrUnknownParser, e.ParserClass, e.FilePrefix)
		}
	}
	return &Dispatcher{entries: entries, registry: registry}, nil
}

// ParserFor returns a parser for path and the entry that matched.
func (d *Dispatcher) ParserFor(path string) (Parser, model.DispatchEntry, error) {
	name := filepath.Base(path)
	for _, e := range d.entries {
		if strings.HasPrefix(name, e.FilePrefix) {
			return d.registry.Get(e.ParserClass)(e.PaymentMethod), e, nil
		}
	}
	return nil, model.DispatchEntry{}, fmt.Errorf("%w: %s", ErrNoParser, name)
}
