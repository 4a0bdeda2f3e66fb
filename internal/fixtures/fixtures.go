// Package fixtures loads payment methods, vendors and exclusions from YAML.
// Documents are fully validated before anything is written.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/store"
)

// Kind selects a fixture document type.
type Kind string

const (
	KindPaymentMethods Kind = "payment-methods"
	KindVendors        Kind = "vendors"
)

// Default file names inside a fixtures directory.
const (
	PaymentMethodsFile = "payment_methods.yaml"
	VendorsFile        = "vendors.yaml"
)

// ParseKind validates a fixture kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPaymentMethods, KindVendors:
		return k, nil
	}
	return "", fmt.Errorf("unknown fixture kind %q (want %s or %s)", s, KindPaymentMethods, KindVendors)
}

// Summary counts what a load created.
type Summary struct {
	PaymentMethods   int
	Assets           int
	Vendors          int
	Aliases          int
	PeriodicPayments int
	Exclusions       int
}

func (s *Summary) add(o Summary) {
	s.PaymentMethods += o.PaymentMethods
	s.Assets += o.Assets
	s.Vendors += o.Vendors
	s.Aliases += o.Aliases
	s.PeriodicPayments += o.PeriodicPayments
	s.Exclusions += o.Exclusions
}

// Load reads one fixture document of the given kind from r.
func Load(ctx context.Context, q store.Querier, kind Kind, r io.Reader) (Summary, error) {
	switch kind {
	case KindPaymentMethods:
		return LoadPaymentMethods(ctx, q, r)
	case KindVendors:
		return LoadVendors(ctx, q, r)
	}
	return Summary{}, fmt.Errorf("unknown fixture kind %q", kind)
}

// LoadFile reads one fixture document from path.
func LoadFile(ctx context.Context, q store.Querier, kind Kind, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	s, err := Load(ctx, q, kind, f)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// LoadDir loads payment_methods.yaml and then vendors.yaml from dir,
// skipping files that do not exist.
func LoadDir(ctx context.Context, q store.Querier, dir string) (Summary, error) {
	var total Summary
	for _, f := range []struct {
		name string
		kind Kind
	}{
		{PaymentMethodsFile, KindPaymentMethods},
		{VendorsFile, KindVendors},
	} {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		s, err := LoadFile(ctx, q, f.kind, path)
		if err != nil {
			return total, err
		}
		total.add(s)
	}
	return total, nil
}

func decode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty fixture document")
		}
		return fmt.Errorf("parsing YAML: %w", err)
	}
	return nil
}
