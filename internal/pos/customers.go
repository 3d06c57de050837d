package pos

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

var ErrMissingCustomerFields = errors.New("customer name and phone are required")

// CustomerAPI is the slice of the API client the resolver needs.
type CustomerAPI interface {
	SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error)
}

// Customers resolves the optional customer attachment for the sale in
// progress: lookup by search, or inline creation.
type Customers struct {
	api      CustomerAPI
	checkout *Checkout
}

func NewCustomers(api CustomerAPI, checkout *Checkout) *Customers {
	return &Customers{api: api, checkout: checkout}
}

// Search looks customers up by name or phone. An empty query yields no
// results rather than the full customer list, and failures clear the
// results instead of reaching the operator.
func (r *Customers) Search(ctx context.Context, query string) []domain.Customer {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	customers, err := r.api.SearchCustomers(ctx, query)
	if err != nil {
		log.Printf("[customers] search failed: %v", err)
		return nil
	}
	return customers
}

// Create registers a new customer and attaches it to the sale in
// progress. Both fields are required before any request is issued.
func (r *Customers) Create(ctx context.Context, name string, phone string) (domain.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return domain.Customer{}, ErrMissingCustomerFields
	}

	customer, err := r.api.CreateCustomer(ctx, domain.CustomerCreateRequest{Name: name, Phone: phone})
	if err != nil {
		return domain.Customer{}, err
	}

	r.checkout.AttachCustomer(customer)
	return customer, nil
}
