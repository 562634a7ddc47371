package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestInvoiceGenerator fabricates invoice text in the layouts the parsers
// understand. Benchmarks and bulk tests feed its output straight to the
// engine instead of carrying fixture files around.
type TestInvoiceGenerator struct {
	faker *gofakeit.Faker
}

// NewTestInvoiceGenerator creates a new generator with a random seed.
func NewTestInvoiceGenerator() *TestInvoiceGenerator {
	return &TestInvoiceGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestInvoiceGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestInvoiceGeneratorWithSeed(seed int64) *TestInvoiceGenerator {
	return &TestInvoiceGenerator{
		faker: gofakeit.New(seed),
	}
}

// Amount generates a random two-decimal amount within a dollar range.
func (g *TestInvoiceGenerator) Amount(minDollars, maxDollars float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(minDollars, maxDollars)).Round(2)
}

func (g *TestInvoiceGenerator) recentDate() time.Time {
	return g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
}

// ============================================================================
// Air Bill Generation
// ============================================================================

// TestShipment holds the values threaded into one air bill block.
type TestShipment struct {
	Sender     string
	Reference  string
	TrackingID string
	Amount     decimal.Decimal
}

// Shipment generates a single random shipment.
func (g *TestInvoiceGenerator) Shipment() TestShipment {
	return TestShipment{
		Sender:     strings.ToUpper(g.faker.Company()),
		Reference:  g.faker.DigitN(10),
		TrackingID: g.faker.DigitN(12),
		Amount:     g.Amount(5, 500),
	}
}

// Shipments generates multiple random shipments.
func (g *TestInvoiceGenerator) Shipments(count int) []TestShipment {
	shipments := make([]TestShipment, count)
	for i := 0; i < count; i++ {
		shipments[i] = g.Shipment()
	}
	return shipments
}

// FedExInvoice renders an air bill with one block per shipment. Every block
// carries its own total, so each one becomes a row.
func (g *TestInvoiceGenerator) FedExInvoice(shipments ...TestShipment) string {
	var b strings.Builder
	b.WriteString("FedEx Express Invoice\n")
	fmt.Fprintf(&b, "Invoice Number %s Invoice Date %s\n",
		g.airBillNumber(), g.recentDate().Format("Jan 2, 2006"))
	for _, s := range shipments {
		fmt.Fprintf(&b, "\nShip Date: %s\n", g.recentDate().Format("Jan 2, 2006"))
		fmt.Fprintf(&b, "Tracking ID: %s\n", s.TrackingID)
		fmt.Fprintf(&b, "Sender %s Gelfand Partners LLP\n", s.Sender)
		fmt.Fprintf(&b, "Cust. Ref.: %s\n", s.Reference)
		fmt.Fprintf(&b, "Total Charge USD $%s\n", s.Amount.StringFixed(2))
	}
	return b.String()
}

func (g *TestInvoiceGenerator) airBillNumber() string {
	return fmt.Sprintf("%s-%s-%s", g.faker.DigitN(1), g.faker.DigitN(3), g.faker.DigitN(5))
}

// ============================================================================
// Courier Statement Generation
// ============================================================================

// TestOrder holds the values threaded into one courier reference block.
type TestOrder struct {
	Reference string
	OrderID   string
	Caller    string
	Amount    decimal.Decimal
	Date      time.Time
}

// Order generates a single random courier order.
func (g *TestInvoiceGenerator) Order() TestOrder {
	return TestOrder{
		Reference: g.faker.DigitN(10),
		OrderID:   g.faker.DigitN(6) + ".01",
		Caller:    g.faker.FirstName(),
		Amount:    g.Amount(10, 200),
		Date:      g.recentDate(),
	}
}

// Orders generates multiple random courier orders.
func (g *TestInvoiceGenerator) Orders(count int) []TestOrder {
	orders := make([]TestOrder, count)
	for i := 0; i < count; i++ {
		orders[i] = g.Order()
	}
	return orders
}

// LightningInvoice renders a courier statement with one reference block per
// order and the totals section at the bottom, the way the statements lay
// out across pages.
func (g *TestInvoiceGenerator) LightningInvoice(orders ...TestOrder) string {
	var b strings.Builder
	b.WriteString("Lightning Messenger Express\n")
	b.WriteString("www.lightningmessengerexpress.com\n")
	fmt.Fprintf(&b, "Invoice Number %s %s\n",
		g.faker.DigitN(6), g.recentDate().Format("1/2/2006"))
	for _, o := range orders {
		fmt.Fprintf(&b, "\nBilling Reference 1 %s\n", o.Reference)
		fmt.Fprintf(&b, "%s Order ID %s %s Deliver to front desk\n",
			o.Date.Format("1/2/2006"), o.OrderID, o.Caller)
	}
	b.WriteString("\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "Totals: Billing Reference 1 - %s Total: $%s\n",
			o.Reference, o.Amount.StringFixed(2))
	}
	return b.String()
}

// ============================================================================
// Generic Invoice Generation
// ============================================================================

// GenericInvoice renders a statement from a vendor neither carrier parser
// recognizes.
func (g *TestInvoiceGenerator) GenericInvoice() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Inc.\n", g.faker.Company())
	fmt.Fprintf(&b, "Invoice Number %s-%s\n",
		strings.ToUpper(g.faker.LetterN(2)), g.faker.DigitN(5))
	fmt.Fprintf(&b, "Date of issue %s\n", g.recentDate().Format("January 2, 2006"))
	fmt.Fprintf(&b, "Amount due $%s\n", g.Amount(20, 900).StringFixed(2))
	b.WriteString("All amounts in USD\n")
	return b.String()
}
