package scraper

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

const (
	rfdHotDealsURL  = "https://forums.redflagdeals.com/hot-deals-f9/?c=5"
	rfdClearanceURL = "https://forums.redflagdeals.com/east-gta-clearance-items-ending-97-general-thread-2146900/"
)

// Car dealers, banks and delivery apps drown out the actual Costco
// threads on the hot-deals forum.
var rfdSkipKeywords = []string{
	"nissan", "toyota", "honda", "hyundai", "kia", "bmw", "mercedes",
	"scotiabank", "amex", "visa", "mastercard", "credit card",
	"wine glass", "ajax", "rcss", "walmart", "amazon", "ebay",
	"little caesars", "domino", "skip the dishes", "uber",
	"shell go", "gas station", "car wash", "mortgage",
	"sponsored", "topcashback", "spc x skip",
}

var (
	rfdOrigPricePattern = regexp.MustCompile(`(?i)(?:reg\.?|was|orig)\s*\$?([\d,]+\.?\d*)`)
	clearancePattern    = regexp.MustCompile(`(.+?)\s*\$?([\d,]+\.97)`)
	leadingBulletsPat   = regexp.MustCompile(`^[-•*\d\s]+`)
)

func (s *Scanner) scrapeRFDHotDeals(ctx context.Context) ([]models.Deal, error) {
	body, err := s.fetch(ctx, rfdHotDealsURL, "")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var deals []models.Deal
	doc.Find("[data-thread-id]").Each(func(_ int, el *goquery.Selection) {
		el.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			title := strings.TrimSpace(a.Text())
			href, _ := a.Attr("href")
			if len(title) <= 30 || strings.Contains(title, "[Sponsored]") || strings.Contains(title, "Last Page") {
				return true
			}
			if strings.HasPrefix(href, "/") {
				href = "https://forums.redflagdeals.com" + href
			}
			if d, ok := ParseRFDTitle(title, href); ok {
				deals = append(deals, d)
			}
			return false
		})
	})
	return deals, nil
}

// ParseRFDTitle turns a hot-deals thread title into a deal. Titles put
// the product name before the first $, the sale price first, and often
// a "reg. $X" or second price for the original.
func ParseRFDTitle(title, link string) (models.Deal, bool) {
	lower := strings.ToLower(title)
	for _, skip := range rfdSkipKeywords {
		if strings.Contains(lower, skip) {
			return models.Deal{}, false
		}
	}

	prices := dealPricePattern.FindAllStringSubmatch(title, -1)
	if len(prices) == 0 {
		return models.Deal{}, false
	}

	namePart := title
	if idx := strings.Index(title, "$"); idx >= 0 {
		namePart = title[:idx]
	}
	namePart = strings.TrimRight(strings.TrimSpace(namePart), " -–|")
	if len(namePart) <= 5 {
		return models.Deal{}, false
	}
	if len(namePart) > 100 {
		namePart = namePart[:100]
	}

	sale := strings.ReplaceAll(prices[0][1], ",", "")
	orig := ""
	if m := rfdOrigPricePattern.FindStringSubmatch(title); m != nil {
		orig = strings.ReplaceAll(m[1], ",", "")
	} else if len(prices) > 1 {
		orig = strings.ReplaceAll(prices[1][1], ",", "")
	}

	return models.Deal{
		ItemName:      namePart,
		SalePrice:     sale,
		OriginalPrice: orig,
		Source:        "redflagdeals.com",
		Link:          link,
	}, true
}

func (s *Scanner) scrapeRFDClearance(ctx context.Context) ([]models.Deal, error) {
	body, err := s.fetch(ctx, rfdClearanceURL, "")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var deals []models.Deal
	doc.Find(".post_content").Each(func(_ int, post *goquery.Selection) {
		for _, line := range strings.Split(post.Text(), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if d, ok := ParseClearanceLine(line); ok {
				deals = append(deals, d)
			}
		}
	})
	return deals, nil
}

// ParseClearanceLine extracts ".97 clearance" reports, which members
// post as free text like "- Vitamix blender was $399.97".
func ParseClearanceLine(line string) (models.Deal, bool) {
	if !strings.Contains(line, ".97") || !strings.Contains(line, "$") || len(line) >= 200 {
		return models.Deal{}, false
	}
	m := clearancePattern.FindStringSubmatch(line)
	if m == nil {
		return models.Deal{}, false
	}
	name := strings.TrimSpace(m[1])
	name = strings.Trim(leadingBulletsPat.ReplaceAllString(name, ""), " -:")
	price := strings.ReplaceAll(m[2], ",", "")

	if len(name) <= 5 || len(name) >= 100 {
		return models.Deal{}, false
	}
	skipWords := []string{"thread", "post", "forum", "missing", "updated", "weekly",
		"always", "compiling", "figured", "instead", "making"}
	lower := strings.ToLower(name)
	for _, w := range skipWords {
		if strings.Contains(lower, w) {
			return models.Deal{}, false
		}
	}

	return models.Deal{
		ItemName:  name,
		SalePrice: price,
		Source:    "redflagdeals.com/clearance",
	}, true
}
