package avito

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"deal-finder/models"
)

const baseURL = "https://www.avito.ru"

// Page is the result of extracting one rendered search results page.
type Page struct {
	Ads []*models.RawListing

	// Skipped counts blocks that failed the required-field gate (typically
	// promoted ad slots without an id, title or date marker).
	Skipped int

	// HasNext reports whether a pagination control for the following page
	// was present. Its absence is the normal end-of-results signal.
	HasNext bool
}

// ParsePage extracts all listing blocks from a rendered document. Extraction
// order follows document order. Relative dates are resolved against now.
func ParsePage(doc *goquery.Document, pageNum int, now time.Time) *Page {
	page := &Page{}

	doc.Find(`div[data-marker="item"]`).Each(func(_ int, block *goquery.Selection) {
		ad := parseAdBlock(block, now)
		if ad == nil {
			page.Skipped++
			return
		}
		page.Ads = append(page.Ads, ad)
	})

	nextMarker := fmt.Sprintf(`[data-marker="pagination-button/page(%d)"]`, pageNum+1)
	page.HasNext = doc.Find(nextMarker).Length() > 0

	return page
}

// parseAdBlock extracts a single listing block. It returns nil when the block
// lacks an identifier, a title anchor or a date marker. Every optional field
// is guarded independently: a malformed sub-element leaves that field absent
// and never aborts the rest of the record.
func parseAdBlock(block *goquery.Selection, now time.Time) *models.RawListing {
	idRaw, hasID := block.Attr("id")
	titleTag := block.Find(`a[data-marker="item-title"]`).First()
	dateTag := block.Find(`p[data-marker="item-date"]`).First()
	if !hasID || titleTag.Length() == 0 || dateTag.Length() == 0 {
		return nil
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(idRaw, "i"), 10, 64)
	if err != nil {
		return nil
	}
	href, hasHref := titleTag.Attr("href")
	if !hasHref || href == "" {
		return nil
	}

	ad := &models.RawListing{
		AvitoID: id,
		Title:   cleanText(titleTag.Text()),
		URL:     baseURL + href,
	}

	published, ok := ParseRelativeDate(dateTag.Text(), now)
	if !ok {
		published = now
		ad.DateEstimated = true
	}
	ad.PublishedAt = published

	if content, ok := block.Find(`meta[itemprop="price"]`).Attr("content"); ok {
		if v, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64); err == nil {
			ad.Price = &v
		}
	}

	if loc := cleanText(block.Find(`[class*="geo-root-"] span`).First().Text()); loc != "" {
		ad.Location = &loc
	} else if full, ok := titleTag.Attr("title"); ok && strings.Contains(full, " в ") {
		parts := strings.Split(full, " в ")
		if loc := cleanText(parts[len(parts)-1]); loc != "" {
			ad.Location = &loc
		}
	}

	if params := strings.ToLower(block.Find(`p[data-marker="item-specific-params"]`).Text()); params != "" {
		switch {
		case strings.Contains(params, "новый") || strings.Contains(params, "новая"):
			condition := models.ConditionNew
			ad.Condition = &condition
		case strings.Contains(params, "/"):
			condition := models.ConditionUsed
			ad.Condition = &condition
		}
	}

	if desc := cleanText(block.Find(`[class*="styles-module-root_bottom-"]`).First().Text()); desc != "" {
		ad.Description = &desc
	}

	parseSeller(block, ad)

	return ad
}

// parseSeller fills the seller fields from the profile link inside the block,
// tolerating decimal-comma ratings and review counts with embedded words.
func parseSeller(block *goquery.Selection, ad *models.RawListing) {
	sellerLink := block.Find(`a[href*="/profile"], a[href*="/user/"], a[href*="/brands/"]`).First()
	if sellerLink.Length() == 0 {
		return
	}

	if name := cleanText(sellerLink.Find("p").First().Text()); name != "" {
		ad.SellerName = &name
	}

	if raw := cleanText(sellerLink.Find(`[data-marker="seller-rating/score"]`).First().Text()); raw != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			ad.SellerRating = &v
		}
	}

	if raw := cleanText(sellerLink.Find(`[data-marker="seller-info/summary"]`).First().Text()); raw != "" {
		if v, err := strconv.ParseInt(digitsOnly(raw), 10, 64); err == nil {
			ad.SellerReviews = &v
		}
	}
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
