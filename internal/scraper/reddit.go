package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

var redditPrefixPattern = regexp.MustCompile(`(?i)^(Found|Spotted|Deal|Sale|Price|Clearance):\s*`)

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// scrapeReddit searches a subreddit for recent posts with a $ in the
// title. The public search.json endpoint needs no auth, just a
// distinctive user agent.
func (s *Scanner) scrapeReddit(ctx context.Context, subreddit string) ([]models.Deal, error) {
	url := fmt.Sprintf(
		"https://www.reddit.com/r/%s/search.json?q=%%24&restrict_sr=on&sort=new&t=month&limit=25",
		subreddit)
	body, err := s.fetch(ctx, url, "CostcoScanner/1.0")
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit r/%s: %w", subreddit, err)
	}

	var deals []models.Deal
	for _, child := range listing.Data.Children {
		title := child.Data.Title
		permalink := child.Data.Permalink

		link := ""
		if permalink != "" {
			link = "https://www.reddit.com" + permalink
		}
		if d, ok := ParseRedditTitle(title, link, subreddit); ok {
			deals = append(deals, d)
		}
	}
	return deals, nil
}

// ParseRedditTitle extracts a deal from a post title. Meta posts
// (megathreads and the like) are skipped.
func ParseRedditTitle(title, link, subreddit string) (models.Deal, bool) {
	lower := strings.ToLower(title)
	for _, skip := range []string{"megathread", "thread", "how costco gets you"} {
		if strings.Contains(lower, skip) {
			return models.Deal{}, false
		}
	}
	if !strings.Contains(title, "$") {
		return models.Deal{}, false
	}

	prices := dealPricePattern.FindAllStringSubmatch(title, -1)
	if len(prices) == 0 {
		return models.Deal{}, false
	}

	namePart := title[:strings.Index(title, "$")]
	namePart = strings.TrimRight(strings.TrimSpace(namePart), " -–|:")
	namePart = strings.TrimSpace(redditPrefixPattern.ReplaceAllString(namePart, ""))
	if len(namePart) <= 5 || len(namePart) >= 80 {
		return models.Deal{}, false
	}

	orig := ""
	if len(prices) > 1 {
		orig = strings.ReplaceAll(prices[1][1], ",", "")
	}

	return models.Deal{
		ItemName:      namePart,
		SalePrice:     strings.ReplaceAll(prices[0][1], ",", ""),
		OriginalPrice: orig,
		Source:        "reddit.com/r/" + subreddit,
		Link:          link,
	}, true
}
