package normalizer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

// Normalize turns raw extracted receipt lines into clean item records. It
// never fails: malformed numeric fields degrade to the line (or its price)
// being treated as absent.
//
// Two passes over the lines, both order-preserving:
//
//  1. Drop noise lines (age verification, deposits, member numbers) and
//     capture "N @ unit_price" multiplier lines into a pending quantity that
//     is applied to the next real item.
//  2. Fold TPD/negative discount lines into the most recently kept item, then
//     clean the price, sanity-check the quantity and recover item numbers the
//     extraction misread into the name column.
func Normalize(lines []models.RawLine) []models.Item {
	cleaned := make([]models.RawLine, 0, len(lines))
	pendingQty := ""

	for _, line := range lines {
		name := strings.TrimSpace(line.Name)
		price := strings.TrimSpace(line.Price)

		if m := qtyMarkerPattern.FindStringSubmatch(name); m != nil {
			// The multiplier line carries no item by itself.
			pendingQty = m[1]
			continue
		}
		if noisePattern.MatchString(name) {
			continue
		}
		if !isDiscountName(name) && (price == "" || price == "0" || price == "0.00") {
			continue
		}
		if pendingQty != "" && !isDiscountName(name) {
			line.Qty = pendingQty
			pendingQty = ""
		}

		line.Name = name
		line.Price = price
		cleaned = append(cleaned, line)
	}

	items := make([]models.Item, 0, len(cleaned))
	for _, line := range cleaned {
		cleanPrice := strings.TrimRight(line.Price, priceNoiseCutset)

		if (isDiscountName(line.Name) || strings.HasSuffix(cleanPrice, "-")) && len(items) > 0 {
			foldDiscount(&items[len(items)-1], cleanPrice)
			continue
		}

		item := models.Item{
			Name:       line.Name,
			Price:      strings.ReplaceAll(cleanPrice, "-", ""),
			Qty:        line.Qty,
			ItemNumber: line.ItemNumber,
		}
		if item.Qty == "" {
			item.Qty = "1"
		}
		resetUnevenQty(&item)
		recoverItemNumber(&item)
		items = append(items, item)
	}

	return items
}

// foldDiscount merges a discount line's magnitude into the preceding item.
// The fold only happens when the discount is strictly smaller than the item's
// price; otherwise the discount line is dropped with no adjustment.
func foldDiscount(prev *models.Item, cleanPrice string) {
	discount, derr := decimal.NewFromString(strings.ReplaceAll(cleanPrice, "-", ""))
	orig, oerr := decimal.NewFromString(prev.Price)
	if derr != nil || oerr != nil {
		return
	}
	if discount.GreaterThanOrEqual(orig) {
		return
	}
	prev.OriginalPrice = prev.Price
	prev.Price = orig.Sub(discount).StringFixed(2)
	prev.TPD = true
}

// resetUnevenQty resets a multi-unit quantity back to 1 when the total price
// does not divide evenly into it at 2 decimal places.
func resetUnevenQty(item *models.Item) {
	qty, err := strconv.Atoi(item.Qty)
	if err != nil || qty <= 1 {
		return
	}
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		return
	}
	unit := price.Div(decimal.NewFromInt(int64(qty)))
	if unit.Sub(unit.Round(2)).Abs().GreaterThan(qtyTolerance) {
		item.Qty = "1"
	}
}

// recoverItemNumber repairs item numbers the extraction left embedded at the
// start of the name, translating OCR-confusable letters to digits. Anything
// over 8 characters cannot be a real item number and is cleared.
func recoverItemNumber(item *models.Item) {
	if item.ItemNumber == "" {
		if m := itemNumberPattern.FindStringSubmatch(item.Name); m != nil {
			fixed := confusables.Replace(m[1])
			if isDigits(fixed) {
				item.ItemNumber = fixed
				item.Name = strings.TrimSpace(item.Name[len(m[1]):])
			}
		}
	}
	if len(item.ItemNumber) > 8 {
		item.ItemNumber = ""
	}
	if item.ItemNumber != "" && strings.HasPrefix(item.Name, item.ItemNumber) {
		item.Name = strings.TrimSpace(strings.TrimPrefix(item.Name, item.ItemNumber))
	}
}

func isDiscountName(name string) bool {
	return strings.Contains(strings.ToUpper(name), tpdMarker)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
