// Package extractor parses Kleinanzeigen listing pages into structured
// records. It implements the pluggable extraction capability consumed by the
// scrape pipeline; new page layouts get their own extractor rather than
// changes to the pipeline.
package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

var (
	spacesRe   = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`\n+`)
)

// Kleinanzeigen extracts listing records from kleinanzeigen.de ad pages.
type Kleinanzeigen struct {
	logger *zap.Logger
}

// New builds a Kleinanzeigen extractor.
func New(logger *zap.Logger) *Kleinanzeigen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kleinanzeigen{logger: logger}
}

// Extract parses a fetched document into a ListingRecord plus a list of
// field-level problems. Missing optional fields yield empty values and a
// problem entry, never an error; only structurally broken input errors.
func (k *Kleinanzeigen) Extract(doc scrape.Document) (scrape.ListingRecord, []string, error) {
	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return scrape.ListingRecord{}, nil, &scrape.ExtractError{Reason: "empty document body"}
	}
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return scrape.ListingRecord{}, nil, &scrape.ExtractError{Reason: "parse HTML", Err: err}
	}

	record := scrape.NewListingRecord()
	var problems []string
	missing := func(field string) {
		problems = append(problems, fmt.Sprintf("%s: no element matched", field))
	}

	record.ID = text(page, "#viewad-ad-id-box > ul > li:nth-child(2)")
	if record.ID == "" {
		missing("id")
	}

	page.Find(".breadcrump-link").Each(func(_ int, s *goquery.Selection) {
		if cat := clean(s.Text()); cat != "" {
			record.Categories = append(record.Categories, cat)
		}
	})

	record.Title = parseTitle(text(page, "#viewad-title"))
	if record.Title == "" {
		missing("title")
	}

	record.Price = ParsePrice(text(page, "#viewad-price"))
	if views := text(page, "#viewad-cntr-num"); views != "" {
		record.Views = views
		record.ExtraInfo.Views = views
	}
	record.Description = normalizeDescription(text(page, "#viewad-description-text"))
	if record.Description == "" {
		missing("description")
	}

	if src, ok := page.Find("#viewad-image").First().Attr("src"); ok && src != "" {
		record.Images = append(record.Images, src)
	} else {
		missing("images")
	}

	record.Delivery = parseDelivery(text(page, ".boxedarticle--details--shipping"))
	record.Location = parseLocation(text(page, "#viewad-locality"))
	if record.Location.Zip == "" && record.Location.City == "" {
		missing("location")
	}

	record.Seller = parseSeller(page)
	record.Details = parseDetails(page)
	record.Features = parseFeatures(page)
	record.ExtraInfo.CreatedAt = text(page, "#viewad-extra-info > div:nth-child(1) > span")

	if len(problems) > 0 {
		k.logger.Debug("listing extraction incomplete",
			zap.String("url", doc.URL),
			zap.Int("problems", len(problems)),
		)
	}
	return record, problems, nil
}

// ParsePrice parses Kleinanzeigen price text such as "1.234,56 € VB" into a
// normalised amount string, currency symbol and negotiable flag. Empty input
// maps to a zero price.
func ParsePrice(raw string) scrape.Price {
	price := scrape.Price{Amount: "0", Currency: "€"}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return price
	}
	price.Negotiable = strings.Contains(raw, "VB")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "VB", ""))

	amount := strings.ReplaceAll(raw, "€", "")
	amount = strings.ReplaceAll(amount, ".", "")
	amount = strings.ReplaceAll(amount, ",", ".")
	price.Amount = strings.TrimSpace(amount)
	return price
}

// parseTitle strips the category prefix Kleinanzeigen embeds into the title
// element ("Elektronik • Vintage Lampe" -> "Vintage Lampe").
func parseTitle(raw string) string {
	if idx := strings.LastIndex(raw, " • "); idx >= 0 {
		return strings.TrimSpace(raw[idx+len(" • "):])
	}
	return strings.TrimSpace(raw)
}

func normalizeDescription(raw string) string {
	if raw == "" {
		return ""
	}
	out := spacesRe.ReplaceAllString(raw, " ")
	out = newlinesRe.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}

func parseDelivery(shipping string) scrape.DeliveryMode {
	switch {
	case strings.Contains(shipping, "Nur Abholung"):
		return scrape.DeliveryPickup
	case strings.Contains(shipping, "Versand"):
		return scrape.DeliveryShipping
	default:
		return scrape.DeliveryUnknown
	}
}

func parseLocation(raw string) scrape.Location {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return scrape.Location{}
	}
	// State is not reliably present on the page; it stays empty.
	return scrape.Location{
		Zip:  parts[0],
		City: strings.Join(parts[1:], " "),
	}
}

func parseSeller(page *goquery.Document) scrape.Seller {
	seller := scrape.Seller{Type: "private", Badges: []string{}}
	seller.Name = text(page, ".userprofile-vip")

	page.Find(".userprofile-vip-details-text").Each(func(_ int, s *goquery.Selection) {
		detail := clean(s.Text())
		if strings.Contains(detail, "Gewerblicher") {
			seller.Type = "business"
		}
		if strings.Contains(detail, "Aktiv seit") {
			seller.Since = strings.TrimSpace(strings.ReplaceAll(detail, "Aktiv seit", ""))
		}
	})

	page.Find(".userprofile-vip-badges .userbadge-tag").Each(func(_ int, s *goquery.Selection) {
		if badge := clean(s.Text()); badge != "" {
			seller.Badges = append(seller.Badges, badge)
		}
	})
	return seller
}

func parseDetails(page *goquery.Document) scrape.Details {
	details := scrape.Details{}
	page.Find("#viewad-details .addetailslist--detail").Each(func(_ int, s *goquery.Selection) {
		label := clean(s.Find(".addetailslist--detail--label").First().Text())
		value := clean(s.Find(".addetailslist--detail--value").First().Text())
		if label != "" && value != "" {
			details = append(details, scrape.Detail{Label: label, Value: value})
		}
	})
	return details
}

func parseFeatures(page *goquery.Document) []string {
	features := []string{}
	page.Find("#viewad-configuration .checktaglist .checktag").Each(func(_ int, s *goquery.Selection) {
		if feature := clean(s.Text()); feature != "" {
			features = append(features, feature)
		}
	})
	return features
}

func text(page *goquery.Document, selector string) string {
	return clean(page.Find(selector).First().Text())
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
