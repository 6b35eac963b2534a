package matcher

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

// Filter narrows the deal pool before matching. The zero value keeps
// everything. Filters are explicit parameters so matching stays reentrant;
// nothing in this package holds state between calls.
type Filter struct {
	DateFrom string   // inclusive, "YYYY-MM-DD"
	DateTo   string   // inclusive, "YYYY-MM-DD"
	Sources  []string // empty means all sources
}

// stopWords are receipt-name tokens too generic to identify a product.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "pack": true,
	"size": true, "sizes": true, "plus": true, "mens": true, "womens": true,
}

// tierRank orders the match strategies; higher is stronger.
var tierRank = map[string]int{
	models.MatchExactItemNumber:   3,
	models.MatchPartialItemNumber: 2,
	models.MatchNameKeyword:       1,
}

// FilterDeals keeps deals whose source is allowed and whose effective date
// (promo end if present, else the day they were scanned) falls inside the
// requested range.
func FilterDeals(deals []models.Deal, f Filter) []models.Deal {
	srcSet := make(map[string]bool, len(f.Sources))
	for _, s := range f.Sources {
		srcSet[s] = true
	}

	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if len(srcSet) > 0 && !srcSet[d.Source] {
			continue
		}
		eff := effectiveDate(d)
		if f.DateFrom != "" && eff < f.DateFrom {
			continue
		}
		if f.DateTo != "" && eff > f.DateTo {
			continue
		}
		out = append(out, d)
	}
	return out
}

func effectiveDate(d models.Deal) string {
	if d.PromoEnd != "" {
		return d.PromoEnd
	}
	if len(d.ScannedDate) >= 10 {
		return d.ScannedDate[:10]
	}
	return d.ScannedDate
}

// Match finds, for each receipt item independently, the single best deal:
// the one maximizing (savings, tier rank), savings first. A deal only
// qualifies when its sale price is strictly below what was paid; items whose
// price does not parse produce no candidate. The result is ordered by receipt
// date ascending (stable; items without a date sort first).
func Match(items []models.ReceiptItem, deals []models.Deal) []models.MatchCandidate {
	candidates := make([]models.MatchCandidate, 0, len(items))

	for _, ri := range items {
		paid, err := decimal.NewFromString(ri.Price)
		if err != nil {
			continue
		}
		kws := keywords(ri.Name)

		var best *models.MatchCandidate
		var bestSavings decimal.Decimal
		bestRank := 0

		for _, d := range deals {
			tier := classify(ri.ItemNumber, kws, d)
			if tier == "" {
				continue
			}
			sale, err := decimal.NewFromString(d.SalePrice)
			if err != nil || !sale.LessThan(paid) {
				continue
			}
			savings := paid.Sub(sale).Round(2)
			rank := tierRank[tier]

			if best != nil && !savings.GreaterThan(bestSavings) &&
				!(savings.Equal(bestSavings) && rank > bestRank) {
				continue
			}
			best = &models.MatchCandidate{
				ReceiptItem:       ri.Name,
				ReceiptPrice:      ri.Price,
				OriginalPrice:     ri.OriginalPrice,
				ReceiptItemNumber: ri.ItemNumber,
				ReceiptDate:       ri.ReceiptDate,
				TPDAtPurchase:     ri.TPD,
				DealName:          d.ItemName,
				DealPrice:         d.SalePrice,
				DealItemNumber:    d.ItemNumber,
				DealSource:        d.Source,
				DealLink:          d.Link,
				DealExpiry:        d.PromoEnd,
				MatchedBy:         tier,
				Savings:           savings.StringFixed(2),
			}
			bestSavings = savings
			bestRank = rank
		}

		if best != nil {
			candidates = append(candidates, *best)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ReceiptDate < candidates[j].ReceiptDate
	})
	return candidates
}

// classify decides how a deal matches a receipt item, strongest tier first.
// Empty string means no match.
func classify(itemNumber string, kws []string, d models.Deal) string {
	dealName := strings.ToLower(d.ItemName)
	switch {
	case itemNumber != "" && d.ItemNumber != "" && itemNumber == d.ItemNumber:
		return models.MatchExactItemNumber
	case itemNumber != "" && d.ItemNumber != "" &&
		len(itemNumber) >= 5 && len(d.ItemNumber) >= 5 &&
		itemNumber[:5] == d.ItemNumber[:5]:
		return models.MatchPartialItemNumber
	case len(kws) >= 2 && containedCount(kws, dealName) >= 2:
		return models.MatchNameKeyword
	case len(kws) == 1 && len(kws[0]) >= 5 && strings.Contains(dealName, kws[0]):
		return models.MatchNameKeyword
	}
	return ""
}

// keywords extracts the identifying tokens from a receipt item name:
// lowercase, slash treated as a separator, at least 4 characters, stop words
// removed.
func keywords(name string) []string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(name), "/", " "))
	var out []string
	for _, w := range words {
		if len(w) >= 4 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func containedCount(kws []string, dealName string) int {
	n := 0
	for _, w := range kws {
		if strings.Contains(dealName, w) {
			n++
		}
	}
	return n
}
