// Package report renders the two-table markdown savings report consumed by
// the frontend: price adjustment opportunities found by the matcher, and
// discounts that were already applied at checkout.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

// Build renders the report. Candidates feed the opportunities table (rows
// where the item did not already get a TPD at purchase); tpd-flagged receipt
// items feed the second table regardless of whether they matched a deal.
func Build(candidates []models.MatchCandidate, items []models.ReceiptItem) string {
	var b strings.Builder

	b.WriteString("## Price Adjustment Opportunities\n\n")
	b.WriteString("| Item | Item # | Date | Paid | Sale Price | Savings | Source |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")

	potential := decimal.Zero
	rows := 0
	for _, c := range candidates {
		if c.TPDAtPurchase {
			// Already discounted at checkout; belongs in the table below.
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | $%s | $%s | $%s | %s |\n",
			c.ReceiptItem, c.ReceiptItemNumber, c.ReceiptDate,
			c.ReceiptPrice, c.DealPrice, c.Savings, sourceCell(c.DealSource, c.DealLink))
		if s, err := decimal.NewFromString(c.Savings); err == nil {
			potential = potential.Add(s)
		}
		rows++
	}
	if rows == 0 {
		b.WriteString("| _no opportunities found_ | | | | | | |\n")
	}

	fmt.Fprintf(&b, "\n**Potential Savings: $%s**\n\n", potential.StringFixed(2))
	b.WriteString("Request a price adjustment at the membership counter within 30 days of purchase.\n\n")

	b.WriteString("## Already Applied (TPD on Receipt)\n\n")
	b.WriteString("| Item | Item # | Date | Original | Paid (TPD) | TPD Savings |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")

	saved := decimal.Zero
	rows = 0
	for _, it := range items {
		if !it.TPD {
			continue
		}
		savings := tpdSavings(it)
		fmt.Fprintf(&b, "| %s | %s | %s | $%s | $%s | %s |\n",
			it.Name, it.ItemNumber, it.ReceiptDate,
			it.OriginalPrice, it.Price, savings.cell)
		saved = saved.Add(savings.amount)
		rows++
	}
	if rows == 0 {
		b.WriteString("| _no TPD discounts on these receipts_ | | | | | |\n")
	}

	fmt.Fprintf(&b, "\n**Already Saved: $%s**\n\n", saved.StringFixed(2))
	b.WriteString("These items already had a Temporary Price Drop (TPD) applied at checkout.\n")

	return b.String()
}

type savingsCell struct {
	amount decimal.Decimal
	cell   string
}

// tpdSavings is original price minus price paid; a blank cell when either
// side does not parse.
func tpdSavings(it models.ReceiptItem) savingsCell {
	orig, oerr := decimal.NewFromString(it.OriginalPrice)
	paid, perr := decimal.NewFromString(it.Price)
	if oerr != nil || perr != nil {
		return savingsCell{amount: decimal.Zero, cell: ""}
	}
	s := orig.Sub(paid).Round(2)
	return savingsCell{amount: s, cell: "$" + s.StringFixed(2)}
}

// sourceCell renders the deal source as a markdown link when a link is known.
func sourceCell(source, link string) string {
	if source == "" {
		return ""
	}
	if link == "" {
		return source
	}
	return fmt.Sprintf("[%s](%s)", source, link)
}
