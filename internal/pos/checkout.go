package pos

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/api"
	"github.com/shefospecial/victoriasystem/internal/cart"
	"github.com/shefospecial/victoriasystem/internal/domain"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrSubmitInFlight = errors.New("a checkout is already in progress")
)

// InvoiceCreator is the slice of the API client checkout needs.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (domain.InvoiceCreated, error)
}

// ReceiptPrinter hands a completed sale to the printing side effect.
type ReceiptPrinter interface {
	Print(ctx context.Context, receipt domain.SaleReceipt) error
}

// Checkout converts the in-progress cart into a server-side invoice.
// Only one submission may be in flight per cart at a time; the
// submitting flag is the mutual-exclusion guard the submit affordance
// mirrors.
type Checkout struct {
	invoices InvoiceCreator
	cart     *cart.Cart
	printer  ReceiptPrinter

	mu         sync.Mutex
	submitting bool
	customer   *domain.Customer
}

func NewCheckout(invoices InvoiceCreator, c *cart.Cart, printer ReceiptPrinter) *Checkout {
	return &Checkout{invoices: invoices, cart: c, printer: printer}
}

func (co *Checkout) AttachCustomer(customer domain.Customer) {
	co.mu.Lock()
	co.customer = &customer
	co.mu.Unlock()
}

func (co *Checkout) DetachCustomer() {
	co.mu.Lock()
	co.customer = nil
	co.mu.Unlock()
}

// Customer returns the currently attached customer, if any.
func (co *Checkout) Customer() *domain.Customer {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.customer == nil {
		return nil
	}
	c := *co.customer
	return &c
}

func (co *Checkout) Submitting() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.submitting
}

// ClearSale empties the cart and drops the attached customer, the
// explicit "clear cart" action.
func (co *Checkout) ClearSale(ctx context.Context) {
	co.cart.Clear(ctx)
	co.DetachCustomer()
}

// Submit sends the sale to the server. withPrint only controls whether
// the receipt side effect runs on success; the submit logic is shared
// between the checkout-with-print and checkout-without-print actions.
//
// On success the cart and attached customer are cleared unconditionally
// and the client-shaped receipt projection is returned. On any failure
// the cart is left intact so the operator can retry without re-entering
// items.
func (co *Checkout) Submit(ctx context.Context, withPrint bool) (domain.SaleReceipt, error) {
	lines := co.cart.Lines()
	if len(lines) == 0 {
		return domain.SaleReceipt{}, ErrEmptyCart
	}

	co.mu.Lock()
	if co.submitting {
		co.mu.Unlock()
		return domain.SaleReceipt{}, ErrSubmitInFlight
	}
	co.submitting = true
	customer := co.customer
	co.mu.Unlock()

	defer func() {
		co.mu.Lock()
		co.submitting = false
		co.mu.Unlock()
	}()

	items := make([]domain.InvoiceItemRequest, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.InvoiceItemRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	req := domain.InvoiceRequest{
		Items:         items,
		Total:         co.cart.Total(),
		PaymentMethod: domain.PaymentMethodCash,
		Date:          time.Now().UTC().Format(time.RFC3339),
		PrintReceipt:  withPrint,
	}
	if customer != nil {
		req.CustomerID = &customer.ID
	}

	created, err := co.invoices.CreateInvoice(ctx, req)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			log.Printf("[checkout] rejected by server: %s", apiErr.Message)
		} else {
			log.Printf("[checkout] transport failure: %v", err)
		}
		return domain.SaleReceipt{}, err
	}

	receipt := buildReceipt(created, lines, customer, req.Total)

	if withPrint && co.printer != nil {
		// Printing must never fail the completed sale.
		if err := co.printer.Print(ctx, receipt); err != nil {
			log.Printf("[checkout] receipt print failed: %v", err)
		}
	}

	co.cart.Clear(ctx)
	co.DetachCustomer()

	log.Printf("[checkout] invoice %s created (%d lines)", receipt.InvoiceNumber, len(lines))
	return receipt, nil
}

// buildReceipt shapes the client-side projection: the server's
// identifiers plus the line detail the client already holds. The
// server does not echo lines back and does not need to.
func buildReceipt(created domain.InvoiceCreated, lines []domain.CartLine, customer *domain.Customer, total decimal.Decimal) domain.SaleReceipt {
	receipt := domain.SaleReceipt{
		InvoiceNumber: created.InvoiceNumber,
		CreatedAt:     time.Now(),
		Total:         total,
	}
	if receipt.InvoiceNumber == "" {
		receipt.InvoiceNumber = strconv.FormatInt(created.ID, 10)
	}
	if customer != nil {
		receipt.CustomerName = customer.Name
	}
	for _, line := range lines {
		receipt.Items = append(receipt.Items, domain.SaleReceiptItem{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return receipt
}
