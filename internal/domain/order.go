package domain

import "time"

// Order is the durable record written when a payment completes and a
// fulfillment order is placed. The generation core never touches it; it
// exists for the webhook glue and the admin listing.
type Order struct {
	ID              string
	SessionID       string
	Package         string
	PackageLabel    string
	CatLabel        string
	CustomerEmail   string
	CustomerName    string
	Country         string
	AmountCents     int64
	Currency        string
	PrintifyOrderID string
	PrintifyImageID string
	ImageURL        string
	CreatedAt       time.Time
}
