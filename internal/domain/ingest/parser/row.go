// Package parser turns normalized invoice text into uniform spreadsheet rows.
// row.go defines the shared output schema every vendor branch emits.
package parser

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Vendor labels stamped on rows by the branch that produced them.
const (
	VendorFedEx     = "FedEx"
	VendorLightning = "Lightning Messenger Express"
)

// Line description constants per branch.
const (
	descriptionFedEx        = "FedEx"
	descriptionOtherCharges = "FedEx Other Charges"
	descriptionLightning    = "Lightning Messenger"
	descriptionGeneric      = "Generic Invoice"
)

// ErrEmptyText is returned by the engine when there is nothing to parse.
var ErrEmptyText = errors.New("invoice text is empty")

// Row is the uniform output record shared by every vendor branch. Fields
// with no extracted value stay empty, never omitted, so rows from different
// vendors share one table. Amount distinguishes "no charge found" (invalid)
// from "zero charge" (valid zero).
type Row struct {
	InvoiceFileName   string
	Vendor            string
	InvoiceID         string
	InvoiceDate       string
	DueDate           string
	Description       string
	Quantity          string
	UnitPrice         string
	Amount            decimal.NullDecimal
	Currency          string
	Sender            string
	CustomerReference string
	ClientCode        string
}
