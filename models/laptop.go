// Package models defines data structures for the scraper.
package models

import "time"

// Laptop is one catalog item as it appears on a listing page. Every field
// holds the literal page text; nothing is converted or validated.
type Laptop struct {
	Title       string `csv:"model" json:"title"`
	Description string `csv:"description" json:"description"`
	Price       string `csv:"price" json:"price"`
	Rating      string `csv:"rating" json:"rating"`
	Reviews     string `csv:"reviews" json:"reviews"`
}

// ScraperResult holds the overall result of a scraping operation
type ScraperResult struct {
	StartTime    time.Time
	EndTime      time.Time
	ItemCount    int
	RequestCount int
	PageCount    int
}
