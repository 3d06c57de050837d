package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

func sampleSale() domain.SaleReceipt {
	return domain.SaleReceipt{
		InvoiceNumber: "INV-7",
		CreatedAt:     time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
		CustomerName:  "Sara",
		Items: []domain.SaleReceiptItem{
			{Name: "Whole Milk", Quantity: 2, UnitPrice: decimal.RequireFromString("2.50")},
			{Name: "Bread", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		},
		Total: decimal.RequireFromString("6.00"),
	}
}

func TestFormatContainsSaleDetail(t *testing.T) {
	f := Formatter{StoreName: "Victoria Store", StorePhone: "0100-000"}
	doc := f.Format(sampleSale())

	for _, want := range []string{
		"Victoria Store",
		"0100-000",
		"Date: 2026-08-30",
		"Time: 14:05",
		"Invoice #: INV-7",
		"Customer: Sara",
		"Whole Milk",
		"Total:",
		"6.00",
		"Thank you for visiting!",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestFormatLinesFitThermalWidth(t *testing.T) {
	f := Formatter{StoreName: "Victoria Store"}
	sale := sampleSale()
	sale.Items = append(sale.Items, domain.SaleReceiptItem{
		Name:      "An Unreasonably Long Product Name That Exceeds Paper",
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("9.99"),
	})

	for _, line := range strings.Split(f.Format(sale), "\n") {
		if len(line) > lineWidth+2 {
			t.Errorf("line exceeds paper width (%d): %q", len(line), line)
		}
	}
}

func TestFormatOmitsZeroAdjustments(t *testing.T) {
	f := Formatter{StoreName: "Victoria Store"}
	doc := f.Format(sampleSale())

	if strings.Contains(doc, "Discount:") || strings.Contains(doc, "Tax:") {
		t.Fatalf("zero adjustments rendered:\n%s", doc)
	}
	if strings.Contains(doc, "Amount due:") {
		t.Fatalf("amount due rendered without adjustments:\n%s", doc)
	}
}

func TestFormatRendersAdjustmentsAndAmountDue(t *testing.T) {
	f := Formatter{StoreName: "Victoria Store"}
	sale := sampleSale()
	sale.Discount = decimal.RequireFromString("1.00")
	sale.Tax = decimal.RequireFromString("0.50")

	doc := f.Format(sale)
	for _, want := range []string{"Discount:", "-1.00", "Tax:", "0.50", "Amount due:", "5.50"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestFromInvoiceProjectsRecord(t *testing.T) {
	inv := domain.Invoice{
		ID:             7,
		InvoiceNumber:  "INV-7",
		CustomerName:   "Sara",
		TotalAmount:    decimal.RequireFromString("6.00"),
		DiscountAmount: decimal.RequireFromString("1.00"),
		CreatedAt:      "2026-08-30T14:05:00Z",
		Items: []domain.InvoiceItem{
			{ProductName: "Milk", Quantity: 2, UnitPrice: decimal.RequireFromString("2.50")},
		},
	}

	sale := FromInvoice(inv)
	if sale.InvoiceNumber != "INV-7" || sale.CustomerName != "Sara" {
		t.Fatalf("unexpected projection: %+v", sale)
	}
	if sale.CreatedAt.IsZero() {
		t.Fatal("expected parsed timestamp")
	}
	if len(sale.Items) != 1 || sale.Items[0].Name != "Milk" {
		t.Fatalf("unexpected items: %+v", sale.Items)
	}
	if !sale.Items[0].Total().Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("unexpected item total: %s", sale.Items[0].Total())
	}
}

func TestFromInvoiceToleratesBadTimestamp(t *testing.T) {
	sale := FromInvoice(domain.Invoice{InvoiceNumber: "INV-1", CreatedAt: "yesterday"})
	if !sale.CreatedAt.IsZero() {
		t.Fatal("expected zero time for unparseable timestamp")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 20); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := truncate("a very long product name", 10); got != "a very ..." {
		t.Fatalf("unexpected: %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected: %q", got)
	}
}
