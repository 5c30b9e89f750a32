package entity

import (
	"fmt"
	"time"
)

// RawCandidate is one search-result item as read from markup, before price parsing.
// It only lives for the duration of a cycle.
type RawCandidate struct {
	ID        string
	Title     string
	PriceText string
	Link      string
}

// Listing mirrors the `listings` table. Once inserted it is never updated or deleted.
type Listing struct {
	ID         string
	Title      string
	Price      float64 // +Inf when the price text could not be parsed
	Link       string
	ObservedAt time.Time
}

// AlertText renders the SMS body announcing l.
func (l *Listing) AlertText(headline string) string {
	return fmt.Sprintf("%s\n%s\nPrice: $%.2f\nLink: %s", headline, l.Title, l.Price, l.Link)
}
