package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

var (
	cocoLinePattern   = regexp.MustCompile(`^(\d{5,8})\s+(.+)`)
	dealPricePattern  = regexp.MustCompile(`\$([\d,]+\.?\d*)`)
	cocoExpiryPattern = regexp.MustCompile(`EXPIRES ON (\d{4}-\d{2}-\d{2})`)
	parenPattern      = regexp.MustCompile(`\(.*?\)`)
	trailingPricing   = regexp.MustCompile(`\$[\d,.]+.*`)
)

// scrapeCocoSite handles cocowest.ca and cocoeast.ca, which publish
// in-store sale posts in the same format: one line per item, item
// number first, then the name, prices and an optional expiry date.
func (s *Scanner) scrapeCocoSite(ctx context.Context, baseURL, sourceName, linkPattern string) ([]models.Deal, error) {
	body, err := s.fetch(ctx, baseURL, "")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// First qualifying link on the index is the latest post.
	var postURL string
	doc.Find(fmt.Sprintf(`a[href*="%s"]`, linkPattern)).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if len(strings.TrimSpace(a.Text())) > 20 && !strings.Contains(href, "/category/") {
			postURL = href
			return false
		}
		return true
	})
	if postURL == "" {
		return nil, nil
	}

	body, err = s.fetch(ctx, postURL, "")
	if err != nil {
		return nil, err
	}
	doc, err = goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	content := doc.Find(".entry-content").First()
	if content.Length() == 0 {
		return nil, nil
	}

	return ParseCocoContent(content.Text(), sourceName, postURL), nil
}

// ParseCocoContent extracts deals from the text of a cocowest/cocoeast
// post. Lines look like:
//
//	1234567 KIRKLAND PAPER TOWELS (INSTANT SAVINGS) $17.99 EXPIRES ON 2025-01-19
func ParseCocoContent(text, source, link string) []models.Deal {
	var deals []models.Deal
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		m := cocoLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		itemNumber := m[1]
		rest := m[2]

		prices := dealPricePattern.FindAllStringSubmatch(rest, -1)
		if len(prices) == 0 {
			continue
		}
		// Last price on the line is the sale price after instant savings.
		salePrice := strings.ReplaceAll(prices[len(prices)-1][1], ",", "")

		promoEnd := ""
		if em := cocoExpiryPattern.FindStringSubmatch(rest); em != nil {
			promoEnd = em[1]
		}

		name := strings.TrimSpace(parenPattern.ReplaceAllString(rest, ""))
		name = strings.TrimSpace(trailingPricing.ReplaceAllString(name, ""))
		if len(name) <= 3 {
			continue
		}
		if len(name) > 100 {
			name = name[:100]
		}

		deals = append(deals, models.Deal{
			ItemName:   name,
			ItemNumber: itemNumber,
			SalePrice:  salePrice,
			PromoEnd:   promoEnd,
			Source:     source,
			Link:       link,
		})
	}
	return deals
}
