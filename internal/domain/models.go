package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the server-owned catalog record. The client caches it
// read-only; stock changes only happen server-side at invoice creation.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int             `json:"quantity"`
	MinQuantity   int             `json:"min_quantity"`
	CategoryID    *int64          `json:"category_id"`
	Active        bool            `json:"is_active"`
}

// CatalogFingerprint is the cheap change-detection signal from
// /products/last-updated. Never used for rendering.
type CatalogFingerprint struct {
	LastUpdated   string `json:"last_updated"`
	TotalProducts int    `json:"total_products"`
}

func (f CatalogFingerprint) Equal(other CatalogFingerprint) bool {
	return f.LastUpdated == other.LastUpdated && f.TotalProducts == other.TotalProducts
}

type Customer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CartLine is one product entry in the in-progress sale. UnitPrice is a
// snapshot taken when the line was added and is independently editable;
// catalog reloads never touch it.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type InvoiceItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type InvoiceRequest struct {
	CustomerID     *int64               `json:"customer_id"`
	Items          []InvoiceItemRequest `json:"items"`
	Total          decimal.Decimal      `json:"total"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	PaymentMethod  string               `json:"payment_method"`
	Date           string               `json:"date"`
	PrintReceipt   bool                 `json:"print_receipt"`
}

// InvoiceCreated is the slim acknowledgement from POST /invoices. The
// server does not echo line detail back; the client already has it.
type InvoiceCreated struct {
	ID            int64  `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
}

// InvoiceItem is a line of the full server-side invoice record.
type InvoiceItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Invoice is the canonical record returned by GET /invoices/:id, used
// by invoice history preview and reprint.
type Invoice struct {
	ID             int64           `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     *int64          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Status         string          `json:"status"`
	PaymentMethod  string          `json:"payment_method"`
	CreatedAt      string          `json:"created_at"`
	Items          []InvoiceItem   `json:"items"`
}

type SaleReceiptItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i SaleReceiptItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleReceipt is the client-shaped projection of a completed sale:
// the identifiers returned by the server plus the display fields the
// client already knows. It is not the system of record.
type SaleReceipt struct {
	InvoiceNumber string
	CreatedAt     time.Time
	CustomerName  string
	Items         []SaleReceiptItem
	Total         decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

const (
	InvoiceStatusCompleted = "completed"
	InvoiceStatusReturned  = "returned"
	InvoiceStatusCancelled = "cancelled"
)
