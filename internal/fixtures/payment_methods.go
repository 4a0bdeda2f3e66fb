package fixtures

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/store"
)

type paymentMethodsDoc struct {
	PaymentMethods *struct {
		Defaults paymentMethodDoc `yaml:"defaults"`
		Objects  []yaml.Node      `yaml:"objects"`
	} `yaml:"payment_methods"`
}

type paymentMethodDoc struct {
	Name                  string `yaml:"name"`
	Description           string `yaml:"description"`
	Type                  string `yaml:"type"`
	Currency              string `yaml:"currency"`
	SafeNumericID         string `yaml:"safe_numeric_id"`
	FilePrefix            string `yaml:"file_prefix"`
	ParserClass           string `yaml:"parser_class"`
	AllowPeriodicPayments bool   `yaml:"allow_periodic_payments"`
}

func (d paymentMethodDoc) toModel() (model.PaymentMethod, error) {
	if d.Name == "" {
		return model.PaymentMethod{}, fmt.Errorf("payment method without name")
	}
	currency, err := model.ParseCurrency(d.Currency)
	if err != nil {
		return model.PaymentMethod{}, fmt.Errorf("payment method %s: %w", d.Name, err)
	}
	methodType := model.MethodType(d.Type)
	switch methodType {
	case model.MethodCash, model.MethodCreditCard:
	default:
		return model.PaymentMethod{}, fmt.Errorf("payment method %s: unknown type %q", d.Name, d.Type)
	}
	if (d.FilePrefix == "") != (d.ParserClass == "") {
		return model.PaymentMethod{}, fmt.Errorf("payment method %s: file_prefix and parser_class must be set together", d.Name)
	}
	return model.PaymentMethod{
		Name:                  d.Name,
		Description:           d.Description,
		MethodType:            methodType,
		SafeNumericID:         d.SafeNumericID,
		Currency:              currency,
		FilePrefix:            d.FilePrefix,
		ParserClass:           d.ParserClass,
		AllowPeriodicPayments: d.AllowPeriodicPayments,
	}, nil
}

// LoadPaymentMethods creates every payment method in the document. Each
// object is layered over the document's defaults.
func LoadPaymentMethods(ctx context.Context, q store.Querier, r io.Reader) (Summary, error) {
	var doc paymentMethodsDoc
	if err := decode(r, &doc); err != nil {
		return Summary{}, err
	}
	if doc.PaymentMethods == nil {
		return Summary{}, fmt.Errorf("payment_methods not found")
	}

	var methods []model.PaymentMethod
	seen := map[string]bool{}
	for i := range doc.PaymentMethods.Objects {
		item := doc.PaymentMethods.Defaults
		if err := doc.PaymentMethods.Objects[i].Decode(&item); err != nil {
			return Summary{}, fmt.Errorf("payment_methods.objects[%d]: %w", i, err)
		}
		pm, err := item.toModel()
		if err != nil {
			return Summary{}, err
		}
		if seen[pm.Name] {
			return Summary{}, fmt.Errorf("%w: payment method %q", store.ErrDuplicate, pm.Name)
		}
		seen[pm.Name] = true
		methods = append(methods, pm)
	}

	for _, pm := range methods {
		if _, err := q.CreatePaymentMethod(ctx, pm); err != nil {
			return Summary{}, err
		}
	}
	return Summary{PaymentMethods: len(methods)}, nil
}
