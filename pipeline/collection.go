// Package pipeline collects extracted laptops and writes them out.
package pipeline

import (
	"fmt"
	"io"

	"github.com/aluiziolira/go-scrape-laptops/models"
)

// Collection is the ordered, append-only set of laptops gathered by one crawl.
// Every record is echoed to the console writer as soon as it is added.
type Collection struct {
	console io.Writer
	laptops []models.Laptop
}

// NewCollection returns an empty collection that prints to console. A nil
// console disables printing.
func NewCollection(console io.Writer) *Collection {
	if console == nil {
		console = io.Discard
	}
	return &Collection{console: console}
}

// Add appends the laptop and prints its block.
func (c *Collection) Add(laptop models.Laptop) error {
	c.laptops = append(c.laptops, laptop)
	if err := PrintLaptop(c.console, laptop); err != nil {
		return fmt.Errorf("print laptop: %w", err)
	}
	return nil
}

// Len reports how many laptops were added.
func (c *Collection) Len() int {
	return len(c.laptops)
}

// Laptops returns a copy of the collected records in insertion order.
func (c *Collection) Laptops() []models.Laptop {
	out := make([]models.Laptop, len(c.laptops))
	copy(out, c.laptops)
	return out
}

// PrintLaptop writes the five labelled lines for laptop followed by a blank line.
func PrintLaptop(w io.Writer, laptop models.Laptop) error {
	_, err := fmt.Fprintf(w, "Model: %s\nDescription: %s\nPrice: %s\nRating: %s\nReviews: %s\n\n",
		laptop.Title,
		laptop.Description,
		laptop.Price,
		laptop.Rating,
		laptop.Reviews,
	)
	return err
}
