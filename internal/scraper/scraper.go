// Package scraper collects Costco price-drop deals from community sources.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// Scanner runs the deal collectors. Each source is isolated so one
// failing site never aborts the whole scan.
type Scanner struct {
	client *http.Client
	config models.ScraperConfig
}

func New(config models.ScraperConfig) *Scanner {
	return &Scanner{
		client: &http.Client{Timeout: 15 * time.Second},
		config: config,
	}
}

type sourceFunc struct {
	name string
	run  func(ctx context.Context) ([]models.Deal, error)
}

// Scan runs all enabled collectors and returns the combined deal batch.
// Deals are not deduplicated here; callers pass the batch to Dedupe.
func (s *Scanner) Scan(ctx context.Context) []models.Deal {
	sources := []sourceFunc{
		{"RFD Hot Deals", s.scrapeRFDHotDeals},
		{"RFD Clearance", s.scrapeRFDClearance},
		{"Reddit r/Costco", func(ctx context.Context) ([]models.Deal, error) {
			return s.scrapeReddit(ctx, "Costco")
		}},
		{"Reddit r/CostcoCanada", func(ctx context.Context) ([]models.Deal, error) {
			return s.scrapeReddit(ctx, "CostcoCanada")
		}},
		{"CocoWest In-Store", func(ctx context.Context) ([]models.Deal, error) {
			return s.scrapeCocoSite(ctx, "https://cocowest.ca/", "cocowest", "weekend-update-costco")
		}},
		{"CocoEast In-Store", func(ctx context.Context) ([]models.Deal, error) {
			return s.scrapeCocoSite(ctx, "https://cocoeast.ca/", "cocoeast", "costco")
		}},
	}

	pace := time.Duration(s.config.PaceSeconds) * time.Second
	if pace == 0 {
		pace = time.Second
	}

	var all []models.Deal
	for i, src := range sources {
		if !s.enabled(src.name) {
			continue
		}
		if i > 0 {
			select {
			case <-time.After(pace):
			case <-ctx.Done():
				return all
			}
		}
		deals, err := src.run(ctx)
		if err != nil {
			log.Printf("Scraper %s failed: %v", src.name, err)
			continue
		}
		log.Printf("Scraper %s: %d deals", src.name, len(deals))
		all = append(all, deals...)
	}
	return all
}

func (s *Scanner) enabled(name string) bool {
	if len(s.config.Sources) == 0 {
		return true
	}
	for _, src := range s.config.Sources {
		if strings.EqualFold(src, name) {
			return true
		}
	}
	return false
}

// Dedupe filters a scan batch down to the deals worth saving: expired
// deals (promo_end before today) are dropped, in-batch duplicates are
// collapsed by (lowercased name, promo_end), and deals already in the
// store are skipped via the exists callback.
func Dedupe(deals []models.Deal, today string, exists func(itemName, source, promoEnd string) bool) []models.Deal {
	seen := make(map[string]bool)
	var kept []models.Deal
	for _, d := range deals {
		if d.PromoEnd != "" && d.PromoEnd < today {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(d.ItemName)) + "\x00" + d.PromoEnd
		if seen[key] {
			continue
		}
		if exists != nil && exists(d.ItemName, d.Source, d.PromoEnd) {
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}
	return kept
}

func (s *Scanner) fetch(ctx context.Context, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = userAgents[rand.Intn(len(userAgents))]
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
