// Package receipt formats completed sales for a small-format thermal
// printer and manages the transient print target's lifecycle.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

// Thermal paper width in characters (80mm stock).
const lineWidth = 40

const (
	nameColWidth   = 24
	qtyColWidth    = 4
	amountColWidth = 10
)

// Formatter renders a sale into the fixed-width receipt document.
type Formatter struct {
	StoreName  string
	StorePhone string
}

func (f Formatter) Format(sale domain.SaleReceipt) string {
	var b strings.Builder

	name := f.StoreName
	if name == "" {
		name = "Victoria Store"
	}
	b.WriteString(center(name) + "\n")
	if f.StorePhone != "" {
		b.WriteString(center(f.StorePhone) + "\n")
	}
	b.WriteString(rule('=') + "\n")

	at := sale.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	b.WriteString("Date: " + at.Format("2006-01-02") + "\n")
	b.WriteString("Time: " + at.Format("15:04") + "\n")
	b.WriteString("Invoice #: " + sale.InvoiceNumber + "\n")
	if sale.CustomerName != "" {
		b.WriteString("Customer: " + truncate(sale.CustomerName, lineWidth-10) + "\n")
	}

	b.WriteString(rule('-') + "\n")
	b.WriteString(fmt.Sprintf("%-*s %*s %*s\n", nameColWidth, "Item", qtyColWidth, "Qty", amountColWidth, "Amount"))
	b.WriteString(rule('-') + "\n")

	for _, item := range sale.Items {
		b.WriteString(fmt.Sprintf("%-*s %*d %*s\n",
			nameColWidth, truncate(item.Name, nameColWidth),
			qtyColWidth, item.Quantity,
			amountColWidth, item.Total().StringFixed(2)))
	}

	b.WriteString(rule('-') + "\n")
	b.WriteString(amountLine("Total:", sale.Total.StringFixed(2)))
	if sale.Discount.IsPositive() {
		b.WriteString(amountLine("Discount:", "-"+sale.Discount.StringFixed(2)))
	}
	if sale.Tax.IsPositive() {
		b.WriteString(amountLine("Tax:", sale.Tax.StringFixed(2)))
	}
	if sale.Discount.IsPositive() || sale.Tax.IsPositive() {
		due := sale.Total.Sub(sale.Discount).Add(sale.Tax)
		b.WriteString(amountLine("Amount due:", due.StringFixed(2)))
	}

	b.WriteString(rule('=') + "\n")
	b.WriteString(center("Thank you for visiting!") + "\n")

	return b.String()
}

// FromInvoice projects a full server-side invoice into the receipt
// shape, so invoice history reprints share the same layout.
func FromInvoice(inv domain.Invoice) domain.SaleReceipt {
	sale := domain.SaleReceipt{
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		Total:         inv.TotalAmount,
		Discount:      inv.DiscountAmount,
		Tax:           inv.TaxAmount,
	}
	if at, err := time.Parse(time.RFC3339, inv.CreatedAt); err == nil {
		sale.CreatedAt = at
	}
	for _, item := range inv.Items {
		sale.Items = append(sale.Items, domain.SaleReceiptItem{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return sale
}

func amountLine(label string, amount string) string {
	pad := lineWidth - len(label) - len(amount)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + amount + "\n"
}

func center(s string) string {
	if len(s) >= lineWidth {
		return s
	}
	return strings.Repeat(" ", (lineWidth-len(s))/2) + s
}

func rule(ch byte) string {
	return strings.Repeat(string(ch), lineWidth)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
