// Package parser turns catalog item markup into laptop records.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/aluiziolira/go-scrape-laptops/models"
)

// Selectors for the listing markup.
const (
	ItemSelector     = "div.thumbnail"
	NextPageSelector = `a[rel~="next"]`

	titleSelector       = "a.title"
	descriptionSelector = "p.description"
	priceSelector       = "h4.pull-right.price"
	ratingsSelector     = "div.ratings"
	paragraphSelector   = "p"
	reviewsSelector     = "p.pull-right"
)

var (
	titleMatcher       = cascadia.MustCompile(titleSelector)
	descriptionMatcher = cascadia.MustCompile(descriptionSelector)
	priceMatcher       = cascadia.MustCompile(priceSelector)
	ratingsMatcher     = cascadia.MustCompile(ratingsSelector)
	paragraphMatcher   = cascadia.MustCompile(paragraphSelector)
	reviewsMatcher     = cascadia.MustCompile(reviewsSelector)
)

// ExtractLaptop reads the five record fields from one item fragment.
//
// The model name comes from the title attribute because the visible link text
// is truncated on the listing. The rating comes from data-rating on the second
// paragraph of the ratings block; that paragraph only renders star icons.
func ExtractLaptop(item *goquery.Selection) (models.Laptop, error) {
	title, err := attr(item, titleMatcher, titleSelector, "title", "title")
	if err != nil {
		return models.Laptop{}, err
	}
	description, err := text(item, descriptionMatcher, descriptionSelector, "description")
	if err != nil {
		return models.Laptop{}, err
	}
	price, err := text(item, priceMatcher, priceSelector, "price")
	if err != nil {
		return models.Laptop{}, err
	}

	ratings := item.FindMatcher(ratingsMatcher).First()
	if ratings.Length() == 0 {
		return models.Laptop{}, &MissingFieldError{Field: "ratings", Selector: ratingsSelector}
	}
	paragraphs := ratings.FindMatcher(paragraphMatcher)
	if paragraphs.Length() < 2 {
		return models.Laptop{}, &MissingFieldError{Field: "rating", Selector: ratingsSelector + " " + paragraphSelector}
	}
	rating, ok := paragraphs.Eq(1).Attr("data-rating")
	if !ok {
		return models.Laptop{}, &MissingFieldError{Field: "rating", Selector: ratingsSelector + " p[data-rating]"}
	}
	reviews, err := text(ratings, reviewsMatcher, ratingsSelector+" "+reviewsSelector, "reviews")
	if err != nil {
		return models.Laptop{}, err
	}

	return models.Laptop{
		Title:       title,
		Description: description,
		Price:       price,
		Rating:      rating,
		Reviews:     reviews,
	}, nil
}

// NextPageHref returns the href of the first next-page link in doc. found is
// false when the page has no such link; an error means the link exists but
// carries no href.
func NextPageHref(doc *goquery.Selection) (href string, found bool, err error) {
	link := doc.Find(NextPageSelector).First()
	if link.Length() == 0 {
		return "", false, nil
	}
	href, ok := link.Attr("href")
	if !ok {
		return "", true, &MissingFieldError{Field: "next page href", Selector: NextPageSelector}
	}
	return href, true, nil
}

func text(sel *goquery.Selection, m goquery.Matcher, selector, field string) (string, error) {
	found := sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return "", &MissingFieldError{Field: field, Selector: selector}
	}
	return strings.TrimSpace(found.Text()), nil
}

func attr(sel *goquery.Selection, m goquery.Matcher, selector, name, field string) (string, error) {
	found := sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return "", &MissingFieldError{Field: field, Selector: selector}
	}
	value, ok := found.Attr(name)
	if !ok {
		return "", &MissingFieldError{Field: field, Selector: selector + "[" + name + "]"}
	}
	return value, nil
}
