package pos

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/api"
	"github.com/shefospecial/victoriasystem/internal/cart"
	"github.com/shefospecial/victoriasystem/internal/domain"
	"github.com/shefospecial/victoriasystem/internal/kv"
)

type fakeInvoices struct {
	created  domain.InvoiceCreated
	err      error
	requests []domain.InvoiceRequest
}

func (f *fakeInvoices) CreateInvoice(_ context.Context, req domain.InvoiceRequest) (domain.InvoiceCreated, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.InvoiceCreated{}, f.err
	}
	return f.created, nil
}

type fakePrinter struct {
	printed []domain.SaleReceipt
	err     error
}

func (f *fakePrinter) Print(_ context.Context, sale domain.SaleReceipt) error {
	f.printed = append(f.printed, sale)
	return f.err
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	ctx := context.Background()
	c := cart.Restore(ctx, kv.NewMemory())
	c.AddOrIncrement(ctx, domain.Product{ID: 1, Name: "Milk", SellingPrice: decimal.RequireFromString("2.50")})
	c.AddOrIncrement(ctx, domain.Product{ID: 1, Name: "Milk", SellingPrice: decimal.RequireFromString("2.50")})
	c.AddOrIncrement(ctx, domain.Product{ID: 2, Name: "Bread", SellingPrice: decimal.RequireFromString("1.00")})
	return c
}

func TestSubmitEmptyCartIssuesNoRequest(t *testing.T) {
	invoices := &fakeInvoices{}
	c := cart.Restore(context.Background(), kv.NewMemory())
	co := NewCheckout(invoices, c, nil)

	_, err := co.Submit(context.Background(), true)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if len(invoices.requests) != 0 {
		t.Fatalf("empty cart issued %d requests", len(invoices.requests))
	}
}

func TestSubmitBuildsRequestFromCart(t *testing.T) {
	invoices := &fakeInvoices{created: domain.InvoiceCreated{ID: 7, InvoiceNumber: "INV-7"}}
	c := filledCart(t)
	co := NewCheckout(invoices, c, nil)
	co.AttachCustomer(domain.Customer{ID: 42, Name: "Sara"})

	sale, err := co.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(invoices.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(invoices.requests))
	}
	req := invoices.requests[0]
	if len(req.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(req.Items))
	}
	if req.Items[0].ProductID != 1 || req.Items[0].Quantity != 2 {
		t.Fatalf("unexpected first item: %+v", req.Items[0])
	}
	if !req.Total.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("expected total 6.00, got %s", req.Total)
	}
	if req.PaymentMethod != domain.PaymentMethodCash {
		t.Fatalf("expected cash, got %q", req.PaymentMethod)
	}
	if req.CustomerID == nil || *req.CustomerID != 42 {
		t.Fatalf("expected customer 42, got %v", req.CustomerID)
	}
	if req.PrintReceipt {
		t.Fatal("print flag must follow withPrint=false")
	}

	if sale.InvoiceNumber != "INV-7" {
		t.Fatalf("expected server invoice number, got %q", sale.InvoiceNumber)
	}
	if sale.CustomerName != "Sara" {
		t.Fatalf("expected customer name on receipt, got %q", sale.CustomerName)
	}
}

func TestSubmitSuccessClearsCartAndCustomer(t *testing.T) {
	invoices := &fakeInvoices{created: domain.InvoiceCreated{ID: 1}}
	c := filledCart(t)
	co := NewCheckout(invoices, c, nil)
	co.AttachCustomer(domain.Customer{ID: 42, Name: "Sara"})

	if _, err := co.Submit(context.Background(), false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatal("cart must be cleared on success")
	}
	if co.Customer() != nil {
		t.Fatal("customer must be detached on success")
	}
}

func TestSubmitFailurePreservesCart(t *testing.T) {
	invoices := &fakeInvoices{err: &api.APIError{StatusCode: 400, Message: "insufficient stock"}}
	c := filledCart(t)
	co := NewCheckout(invoices, c, nil)
	co.AttachCustomer(domain.Customer{ID: 42, Name: "Sara"})

	_, err := co.Submit(context.Background(), true)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("failed submit must preserve the cart, got %d lines", c.Len())
	}
	if co.Customer() == nil {
		t.Fatal("failed submit must keep the customer attached")
	}
	if co.Submitting() {
		t.Fatal("submitting flag stuck after failure")
	}
}

func TestSubmitPrintsOnlyWithPrint(t *testing.T) {
	invoices := &fakeInvoices{created: domain.InvoiceCreated{ID: 1, InvoiceNumber: "INV-1"}}
	printer := &fakePrinter{}
	co := NewCheckout(invoices, filledCart(t), printer)

	if _, err := co.Submit(context.Background(), false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(printer.printed) != 0 {
		t.Fatal("withPrint=false must not print")
	}

	co2 := NewCheckout(invoices, filledCart(t), printer)
	if _, err := co2.Submit(context.Background(), true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(printer.printed) != 1 {
		t.Fatalf("expected one printed receipt, got %d", len(printer.printed))
	}
}

func TestPrintFailureDoesNotFailSale(t *testing.T) {
	invoices := &fakeInvoices{created: domain.InvoiceCreated{ID: 1}}
	printer := &fakePrinter{err: errors.New("spooler offline")}
	c := filledCart(t)
	co := NewCheckout(invoices, c, printer)

	if _, err := co.Submit(context.Background(), true); err != nil {
		t.Fatalf("print failure leaked into submit: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatal("sale completed, cart must clear even when printing fails")
	}
}

func TestReceiptFallsBackToNumericID(t *testing.T) {
	invoices := &fakeInvoices{created: domain.InvoiceCreated{ID: 93}}
	co := NewCheckout(invoices, filledCart(t), nil)

	sale, err := co.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sale.InvoiceNumber != "93" {
		t.Fatalf("expected fallback invoice number 93, got %q", sale.InvoiceNumber)
	}
}

func TestClearSaleDropsCartAndCustomer(t *testing.T) {
	c := filledCart(t)
	co := NewCheckout(&fakeInvoices{}, c, nil)
	co.AttachCustomer(domain.Customer{ID: 1, Name: "Sara"})

	co.ClearSale(context.Background())
	if !c.IsEmpty() {
		t.Fatal("expected empty cart")
	}
	if co.Customer() != nil {
		t.Fatal("expected detached customer")
	}
}
