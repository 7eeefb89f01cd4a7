package checkout

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Package is one purchasable print bundle. Amounts are USD cents.
type Package struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
}

// Packages lists the catalog in display order.
var Packages = []Package{
	{
		Key:         "squire",
		Label:       "Squire Pack",
		Description: "8x10 archival canvas print + 300 DPI digital file",
		AmountCents: 4900,
	},
	{
		Key:         "noble",
		Label:       "Noble Pack",
		Description: "12x16 archival canvas print with ornate gold frame + digital file",
		AmountCents: 8900,
	},
	{
		Key:         "royal",
		Label:       "Royal Pack",
		Description: "18x24 archival canvas print with walnut frame + digital file",
		AmountCents: 14900,
	},
}

// Find returns the package for the key, if any.
func Find(key string) (Package, bool) {
	for _, p := range Packages {
		if p.Key == key {
			return p, true
		}
	}
	return Package{}, false
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// DisplayPrice renders the amount as a US dollar string.
func (p Package) DisplayPrice() string {
	return pricePrinter.Sprintf("$%.2f", float64(p.AmountCents)/100)
}

// AllowedShippingCountries is the set of destinations the checkout session
// collects shipping addresses for.
var AllowedShippingCountries = []string{
	"US", "GB", "CA", "AU", "DE", "FR", "IT", "ES", "NL", "BE",
	"AT", "CH", "SE", "NO", "DK", "FI", "IE", "PT", "PL", "CZ",
	"AE", "SA", "SG", "JP", "NZ",
}
