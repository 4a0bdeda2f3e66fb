package fixtures

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/store"
)

type vendorsDoc struct {
	Assets     []assetDoc     `yaml:"assets"`
	Vendors    []vendorDoc    `yaml:"vendors"`
	Exclusions []exclusionDoc `yaml:"exclusions"`
}

type assetDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type vendorDoc struct {
	Name              string       `yaml:"name"`
	Type              string       `yaml:"type"`
	MerchantID        string       `yaml:"merchant_id"`
	FixedAmount       *int64       `yaml:"fixed_amount"`
	AssignedAsset     string       `yaml:"assigned_asset"`
	TaxAdjustmentType string       `yaml:"tax_adjustment_type"`
	Aliases           []aliasDoc   `yaml:"aliases"`
	RegularPayments   []paymentDoc `yaml:"regular_payments"`
}

// aliasDoc is either a bare pattern, matched by equality, or a mapping.
type aliasDoc struct {
	Pattern        string `yaml:"pattern"`
	MatchOperation string `yaml:"match_operation"`
	Type           string `yaml:"type"`
	AssignedAsset  string `yaml:"assigned_asset"`
}

func (a *aliasDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Pattern = node.Value
		a.MatchOperation = string(model.MatchEqual)
		return nil
	}
	type plain aliasDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = aliasDoc(p)
	if a.MatchOperation == "" {
		a.MatchOperation = string(model.MatchEqual)
	}
	return nil
}

type paymentDoc struct {
	Name     string `yaml:"name"`
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// exclusionDoc is either a bare prefix or a mapping.
type exclusionDoc struct {
	Prefix string `yaml:"prefix"`
	OnDate string `yaml:"on_date"`
	Amount string `yaml:"amount"`
}

func (e *exclusionDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Prefix = node.Value
		return nil
	}
	type plain exclusionDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = exclusionDoc(p)
	return nil
}

func (e exclusionDoc) toModel() (model.ExclusionCondition, error) {
	var cond model.ExclusionCondition
	if e.Prefix != "" {
		if err := store.ValidatePattern(e.Prefix); err != nil {
			return cond, fmt.Errorf("exclusion: %w", err)
		}
		prefix := e.Prefix
		cond.Prefix = &prefix
	}
	if e.OnDate != "" {
		on, err := time.Parse(config.DateLayout, e.OnDate)
		if err != nil {
			return cond, fmt.Errorf("exclusion on_date %q: %w", e.OnDate, err)
		}
		cond.OnDate = &on
	}
	if e.Amount != "" {
		amount, err := money.ParseAmount(e.Amount)
		if err != nil {
			return cond, fmt.Errorf("exclusion amount: %w", err)
		}
		cond.Amount = &amount
	}
	if cond.Prefix == nil && (cond.OnDate == nil || cond.Amount == nil) {
		return cond, fmt.Errorf("exclusion without prefix needs both on_date and amount")
	}
	return cond, nil
}

// plan is a validated vendors document ready to be written.
type plan struct {
	assets     []model.FinancialAsset
	vendors    []vendorPlan
	exclusions []model.ExclusionCondition
}

type vendorPlan struct {
	vendor   model.Vendor
	aliases  []model.VendorAlias
	payments []model.PeriodicPayment
}

// LoadVendors creates the assets, vendors, aliases, periodic payments and
// exclusions in the document. Aliases and periodic payments are checked for
// ambiguity against each other and against what q already holds.
func LoadVendors(ctx context.Context, q store.Querier, r io.Reader) (Summary, error) {
	var doc vendorsDoc
	if err := decode(r, &doc); err != nil {
		return Summary{}, err
	}
	p, err := buildPlan(doc)
	if err != nil {
		return Summary{}, err
	}
	if err := p.validateAgainst(ctx, q); err != nil {
		return Summary{}, err
	}
	return p.write(ctx, q)
}

func buildPlan(doc vendorsDoc) (plan, error) {
	var p plan
	assets := make(map[string]*model.FinancialAsset, len(doc.Assets))
	for _, a := range doc.Assets {
		assetType, err := model.ParseAssetType(a.Type)
		if err != nil {
			return p, fmt.Errorf("asset %s: %w", a.Name, err)
		}
		if _, ok := assets[a.Name]; ok {
			return p, fmt.Errorf("%w: asset %q", store.ErrDuplicate, a.Name)
		}
		p.assets = append(p.assets, model.FinancialAsset{Name: a.Name, AssetType: assetType})
		assets[a.Name] = &p.assets[len(p.assets)-1]
	}
	findAsset := func(name string) (*model.FinancialAsset, error) {
		if name == "" {
			return nil, nil
		}
		a, ok := assets[name]
		if !ok {
			return nil, fmt.Errorf("asset %q not found", name)
		}
		return a, nil
	}

	seen := make(map[string]bool, len(doc.Vendors))
	for _, vd := range doc.Vendors {
		if vd.Name == "" {
			return p, fmt.Errorf("vendor without name")
		}
		if seen[vd.Name] {
			return p, fmt.Errorf("%w: vendor %q", store.ErrDuplicate, vd.Name)
		}
		seen[vd.Name] = true

		v := model.Vendor{Name: vd.Name, FixedAmount: vd.FixedAmount}
		if vd.Type != "" {
			c, err := model.ParseExpenseCategory(vd.Type)
			if err != nil {
				return p, fmt.Errorf("vendor %s: %w", vd.Name, err)
			}
			v.DefaultCategory = &c
		}
		if vd.TaxAdjustmentType != "" {
			t, err := model.ParseTaxType(vd.TaxAdjustmentType)
			if err != nil {
				return p, fmt.Errorf("vendor %s: %w", vd.Name, err)
			}
			v.TaxAdjustmentType = &t
		}
		asset, err := findAsset(vd.AssignedAsset)
		if err != nil {
			return p, fmt.Errorf("vendor %s: %w", vd.Name, err)
		}
		v.DefaultAsset = asset

		vp := vendorPlan{vendor: v}
		for _, ad := range vd.Aliases {
			op, err := model.ParseMatchOperation(ad.MatchOperation)
			if err != nil {
				return p, fmt.Errorf("vendor %s alias %q: %w", vd.Name, ad.Pattern, err)
			}
			alias := model.VendorAlias{Vendor: v, Pattern: ad.Pattern, MatchOperation: op}
			if ad.Type != "" {
				c, err := model.ParseExpenseCategory(ad.Type)
				if err != nil {
					return p, fmt.Errorf("vendor %s alias %q: %w", vd.Name, ad.Pattern, err)
				}
				alias.DefaultCategory = &c
			}
			if alias.DefaultAsset, err = findAsset(ad.AssignedAsset); err != nil {
				return p, fmt.Errorf("vendor %s alias %q: %w", vd.Name, ad.Pattern, err)
			}
			vp.aliases = append(vp.aliases, alias)
		}
		for _, pd := range vd.RegularPayments {
			currency, err := model.ParseCurrency(pd.Currency)
			if err != nil {
				return p, fmt.Errorf("vendor %s payment %s: %w", vd.Name, pd.Name, err)
			}
			vp.payments = append(vp.payments, model.PeriodicPayment{
				Name:     pd.Name,
				Vendor:   v,
				Currency: currency,
				Amount:   pd.Amount,
			})
		}
		p.vendors = append(p.vendors, vp)
	}

	for _, ed := range doc.Exclusions {
		cond, err := ed.toModel()
		if err != nil {
			return p, err
		}
		p.exclusions = append(p.exclusions, cond)
	}
	return p, nil
}

func (p plan) validateAgainst(ctx context.Context, q store.Reports) error {
	aliases, err := q.ListVendorAliases(ctx)
	if err != nil {
		return err
	}
	payments, err := q.ListPeriodicPayments(ctx)
	if err != nil {
		return err
	}
	for _, vp := range p.vendors {
		aliases = append(aliases, vp.aliases...)
		payments = append(payments, vp.payments...)
	}
	if err := store.ValidateAliases(aliases); err != nil {
		return err
	}
	return store.ValidatePeriodicPayments(payments)
}

func (p plan) write(ctx context.Context, q store.Writer) (Summary, error) {
	var s Summary
	created := make(map[string]model.FinancialAsset, len(p.assets))
	for _, a := range p.assets {
		stored, err := q.CreateAsset(ctx, a)
		if err != nil {
			return s, err
		}
		created[a.Name] = stored
		s.Assets++
	}
	resolve := func(a *model.FinancialAsset) *model.FinancialAsset {
		if a == nil {
			return nil
		}
		stored := created[a.Name]
		return &stored
	}

	for _, vp := range p.vendors {
		v := vp.vendor
		v.DefaultAsset = resolve(v.DefaultAsset)
		stored, err := q.CreateVendor(ctx, v)
		if err != nil {
			return s, err
		}
		s.Vendors++
		for _, alias := range vp.aliases {
			alias.Vendor = stored
			alias.DefaultAsset = resolve(alias.DefaultAsset)
			if _, err := q.CreateVendorAlias(ctx, alias); err != nil {
				return s, err
			}
			s.Aliases++
		}
		for _, pp := range vp.payments {
			pp.Vendor = stored
			if _, err := q.CreatePeriodicPayment(ctx, pp); err != nil {
				return s, err
			}
			s.PeriodicPayments++
		}
	}

	for _, cond := range p.exclusions {
		if _, err := q.CreateExclusion(ctx, cond); err != nil {
			return s, err
		}
		s.Exclusions++
	}
	return s, nil
}
