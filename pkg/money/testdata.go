package money

import (
	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator produces realistic carrier charge amounts for
// tests using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator seeds from entropy; use the seeded variant when
// a test needs reproducible charges.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed fixes the sequence for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// RandomAmount draws a charge between two cent bounds, inclusive.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	return New(minCents+g.faker.Rand.Int63n(maxCents-minCents+1), currency)
}

// RandomAmountRange draws a charge between two dollar bounds.
func (g *TestDataGenerator) RandomAmountRange(currency string, minDollars, maxDollars float64) *Money {
	return NewFromFloat(g.faker.Float64Range(minDollars, maxDollars), currency)
}

// ShipmentCharge generates a typical express shipment charge ($8-$400).
func (g *TestDataGenerator) ShipmentCharge(currency string) *Money {
	return g.RandomAmountRange(currency, 8, 400)
}

// CourierTotal generates a typical per-reference courier total ($15-$250).
func (g *TestDataGenerator) CourierTotal(currency string) *Money {
	return g.RandomAmountRange(currency, 15, 250)
}

// LateFee generates a typical late fee ($5-$50).
func (g *TestDataGenerator) LateFee(currency string) *Money {
	return g.RandomAmountRange(currency, 5, 50)
}

// ChargeSet generates a realistic batch of shipment charges, useful for
// exercising summary totals.
func (g *TestDataGenerator) ChargeSet(currency string, count int) []*Money {
	charges := make([]*Money, count)
	for i := range charges {
		charges[i] = g.ShipmentCharge(currency)
	}
	return charges
}
