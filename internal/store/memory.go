package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/receipts/internal/model"
)

// ErrAmbiguousPaymentMethod means two payment methods share a card suffix.
var ErrAmbiguousPaymentMethod = fmt.Errorf("ambiguous payment method suffix")

// Memory is an in-process Store. Transactions work on a snapshot that
// replaces the committed state on Commit.
type Memory struct {
	mu    sync.RWMutex
	state *memState
}

type memState struct {
	paymentMethods []model.PaymentMethod
	assets         []model.FinancialAsset
	vendors        []model.Vendor
	aliases        []model.VendorAlias
	periodic       []model.PeriodicPayment
	exclusions     []model.ExclusionCondition
	transactions   []model.ClassifiedTransaction
	adjustments    []model.TaxAdjustment
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: &memState{}}
}

// Begin starts a snapshot transaction.
func (m *Memory) Begin(_ context.Context) (Tx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &memTx{parent: m, memState: m.state.clone()}, nil
}

// Close is a no-op.
func (m *Memory) Close() {}

func (m *Memory) snapshot() *memState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ListClassifiedTransactions reads committed transactions.
func (m *Memory) ListClassifiedTransactions(ctx context.Context, start, end time.Time) ([]model.ReportedTransaction, error) {
	return m.snapshot().ListClassifiedTransactions(ctx, start, end)
}

// ListVendors reads committed vendors.
func (m *Memory) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	return m.snapshot().ListVendors(ctx)
}

// ListVendorAliases reads committed aliases.
func (m *Memory) ListVendorAliases(ctx context.Context) ([]model.VendorAlias, error) {
	return m.snapshot().ListVendorAliases(ctx)
}

// ListPeriodicPayments reads committed periodic payments.
func (m *Memory) ListPeriodicPayments(ctx context.Context) ([]model.PeriodicPayment, error) {
	return m.snapshot().ListPeriodicPayments(ctx)
}

type memTx struct {
	*memState
	parent *Memory
	done   bool
}

func (tx *memTx) Commit(_ context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.parent.mu.Lock()
	defer tx.parent.mu.Unlock()
	tx.parent.state = tx.memState
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	return nil
}

func (s *memState) clone() *memState {
	return &memState{
		paymentMethods: append([]model.PaymentMethod(nil), s.paymentMethods...),
		assets:         append([]model.FinancialAsset(nil), s.assets...),
		vendors:        append([]model.Vendor(nil), s.vendors...),
		aliases:        append([]model.VendorAlias(nil), s.aliases...),
		periodic:       append([]model.PeriodicPayment(nil), s.periodic...),
		exclusions:     append([]model.ExclusionCondition(nil), s.exclusions...),
		transactions:   append([]model.ClassifiedTransaction(nil), s.transactions...),
		adjustments:    append([]model.TaxAdjustment(nil), s.adjustments...),
	}
}

func (s *memState) FindPaymentMethodBySuffix(_ context.Context, suffix string) (model.PaymentMethod, bool, error) {
	var found []model.PaymentMethod
	for _, pm := range s.paymentMethods {
		if pm.SafeNumericID != "" && pm.SafeNumericID == suffix {
			found = append(found, pm)
		}
	}
	switch len(found) {
	case 0:
		return model.PaymentMethod{}, false, nil
	case 1:
		return found[0], true, nil
	}
	return model.PaymentMethod{}, false, fmt.Errorf("%w: %s matches %d methods", ErrAmbiguousPaymentMethod, suffix, len(found))
}

func (s *memState) FindPaymentMethodByName(_ context.Context, name string) (model.PaymentMethod, bool, error) {
	for _, pm := range s.paymentMethods {
		if pm.Name == name {
			return pm, true, nil
		}
	}
	return model.PaymentMethod{}, false, nil
}

func (s *memState) FindVendorAlias(_ context.Context, upperDescription string) (model.VendorAlias, bool, error) {
	var found []model.VendorAlias
	for _, a := range s.aliases {
		switch a.MatchOperation {
		case model.MatchEqual:
			if a.Pattern == upperDescription {
				found = append(found, a)
			}
		case model.MatchLike:
			if LikeMatch(a.Pattern, upperDescription) {
				found = append(found, a)
			}
		}
	}
	switch len(found) {
	case 0:
		return model.VendorAlias{}, false, nil
	case 1:
		return found[0], true, nil
	}
	patterns := make([]string, len(found))
	for i, a := range found {
		patterns[i] = a.Pattern
	}
	return model.VendorAlias{}, false, fmt.Errorf("%w: %q matches %s", ErrAmbiguousAlias, upperDescription, strings.Join(patterns, ", "))
}

func (s *memState) FindPeriodicPayment(_ context.Context, currency model.Currency, amount int64) (model.PeriodicPayment, bool, error) {
	var found []model.PeriodicPayment
	for _, p := range s.periodic {
		if p.Currency == currency && p.Amount == amount {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return model.PeriodicPayment{}, false, nil
	case 1:
		return found[0], true, nil
	}
	return model.PeriodicPayment{}, false, fmt.Errorf("%w: %s %d", ErrDuplicatePeriodicPayment, currency, amount)
}

func (s *memState) ExclusionExists(_ context.Context, upperDescription string, on time.Time, amount int64) (bool, error) {
	for _, c := range s.exclusions {
		if c.Matches(upperDescription, on, amount) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memState) DispatchTable(_ context.Context) ([]model.DispatchEntry, error) {
	var entries []model.DispatchEntry
	for _, pm := range s.paymentMethods {
		if pm.FilePrefix == "" || pm.ParserClass == "" {
			continue
		}
		entries = append(entries, model.DispatchEntry{
			FilePrefix:    pm.FilePrefix,
			ParserClass:   pm.ParserClass,
			PaymentMethod: pm,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FilePrefix < entries[j].FilePrefix
	})
	return entries, nil
}

func (s *memState) SaveClassifiedTransaction(_ context.Context, txn model.ClassifiedTransaction) (string, error) {
	txn.ID = uuid.NewString()
	s.transactions = append(s.transactions, txn)
	return txn.ID, nil
}

func (s *memState) SaveTaxAdjustment(_ context.Context, adj model.TaxAdjustment) (string, error) {
	if !s.hasTransaction(adj.TransactionID) {
		return "", fmt.Errorf("tax adjustment for transaction %s: %w", adj.TransactionID, ErrNotFound)
	}
	adj.ID = uuid.NewString()
	s.adjustments = append(s.adjustments, adj)
	return adj.ID, nil
}

func (s *memState) hasTransaction(id string) bool {
	for _, t := range s.transactions {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *memState) CreatePaymentMethod(_ context.Context, pm model.PaymentMethod) (model.PaymentMethod, error) {
	for _, existing := range s.paymentMethods {
		if existing.Name == pm.Name {
			return model.PaymentMethod{}, fmt.Errorf("%w: payment method %q", ErrDuplicate, pm.Name)
		}
	}
	pm.ID = uuid.NewString()
	s.paymentMethods = append(s.paymentMethods, pm)
	return pm, nil
}

func (s *memState) CreateAsset(_ context.Context, asset model.FinancialAsset) (model.FinancialAsset, error) {
	for _, existing := range s.assets {
		if existing.Name == asset.Name {
			return model.FinancialAsset{}, fmt.Errorf("%w: asset %q", ErrDuplicate, asset.Name)
		}
	}
	asset.ID = uuid.NewString()
	s.assets = append(s.assets, asset)
	return asset, nil
}

func (s *memState) CreateVendor(_ context.Context, vendor model.Vendor) (model.Vendor, error) {
	for _, existing := range s.vendors {
		if existing.Name == vendor.Name {
			return model.Vendor{}, fmt.Errorf("%w: vendor %q", ErrDuplicate, vendor.Name)
		}
	}
	vendor.ID = uuid.NewString()
	s.vendors = append(s.vendors, vendor)
	return vendor, nil
}

func (s *memState) CreateVendorAlias(_ context.Context, alias model.VendorAlias) (model.VendorAlias, error) {
	if err := ValidateAliases(append(append([]model.VendorAlias(nil), s.aliases...), alias)); err != nil {
		return model.VendorAlias{}, err
	}
	alias.ID = uuid.NewString()
	s.aliases = append(s.aliases, alias)
	return alias, nil
}

func (s *memState) CreatePeriodicPayment(_ context.Context, pp model.PeriodicPayment) (model.PeriodicPayment, error) {
	if err := ValidatePeriodicPayments(append(append([]model.PeriodicPayment(nil), s.periodic...), pp)); err != nil {
		return model.PeriodicPayment{}, err
	}
	pp.ID = uuid.NewString()
	s.periodic = append(s.periodic, pp)
	return pp, nil
}

func (s *memState) CreateExclusion(_ context.Context, cond model.ExclusionCondition) (model.ExclusionCondition, error) {
	if cond.Prefix != nil {
		if err := ValidatePattern(*cond.Prefix); err != nil {
			return model.ExclusionCondition{}, fmt.Errorf("exclusion prefix: %w", err)
		}
	} else if cond.OnDate == nil || cond.Amount == nil {
		return model.ExclusionCondition{}, fmt.Errorf("exclusion without prefix needs both on_date and amount")
	}
	cond.ID = uuid.NewString()
	s.exclusions = append(s.exclusions, cond)
	return cond, nil
}

func (s *memState) ListClassifiedTransactions(_ context.Context, start, end time.Time) ([]model.ReportedTransaction, error) {
	hst := make(map[string]int64)
	for _, adj := range s.adjustments {
		if adj.TaxType == model.TaxTypeHST {
			hst[adj.TransactionID] += adj.Amount
		}
	}

	var out []model.ReportedTransaction
	for _, t := range s.transactions {
		if dateBefore(t.TransactionDate, start) || dateBefore(end, t.TransactionDate) {
			continue
		}
		rt := model.ReportedTransaction{ClassifiedTransaction: t}
		if amount, ok := hst[t.ID]; ok {
			rt.HSTAmount = &amount
		}
		out = append(out, rt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !model.SameDay(a.TransactionDate, b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.TotalAmount < b.TotalAmount
	})
	return out, nil
}

func (s *memState) ListVendors(_ context.Context) ([]model.Vendor, error) {
	out := append([]model.Vendor(nil), s.vendors...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memState) ListVendorAliases(_ context.Context) ([]model.VendorAlias, error) {
	return append([]model.VendorAlias(nil), s.aliases...), nil
}

func (s *memState) ListPeriodicPayments(_ context.Context) ([]model.PeriodicPayment, error) {
	return append([]model.PeriodicPayment(nil), s.periodic...), nil
}

// dateBefore compares calendar dates, ignoring clock time.
func dateBefore(a, b time.Time) bool {
	return !model.SameDay(a, b) && a.Before(b)
}
