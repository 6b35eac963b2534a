package report

import (
	"strings"
	"testing"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

func TestBuild(t *testing.T) {
	candidates := []models.MatchCandidate{
		{
			ReceiptItem:       "WIDGET",
			ReceiptItemNumber: "1234567",
			ReceiptDate:       "2026-08-01",
			ReceiptPrice:      "20.00",
			DealPrice:         "14.00",
			Savings:           "6.00",
			DealSource:        "cocowest",
			DealLink:          "https://cocowest.ca/post",
		},
		{
			ReceiptItem:   "ALREADY DISCOUNTED",
			ReceiptPrice:  "9.00",
			DealPrice:     "8.00",
			Savings:       "1.00",
			TPDAtPurchase: true,
		},
	}
	items := []models.ReceiptItem{
		{
			Item: models.Item{
				Name: "KS SHOES", ItemNumber: "3333332",
				Price: "24.99", OriginalPrice: "29.99", TPD: true,
			},
			ReceiptDate: "2026-08-01",
		},
		{Item: models.Item{Name: "WIDGET", Price: "20.00"}},
	}

	out := Build(candidates, items)

	t.Run("has both table headings", func(t *testing.T) {
		if !strings.Contains(out, "## Price Adjustment Opportunities") {
			t.Error("missing opportunities heading")
		}
		if !strings.Contains(out, "## Already Applied (TPD on Receipt)") {
			t.Error("missing TPD heading")
		}
	})

	t.Run("sums potential savings from non-TPD candidates only", func(t *testing.T) {
		if !strings.Contains(out, "**Potential Savings: $6.00**") {
			t.Errorf("wrong potential savings in:\n%s", out)
		}
		if strings.Contains(out, "ALREADY DISCOUNTED") {
			t.Error("TPD-at-purchase candidate leaked into opportunities table")
		}
	})

	t.Run("lists every TPD item with its savings", func(t *testing.T) {
		if !strings.Contains(out, "| KS SHOES | 3333332 | 2026-08-01 | $29.99 | $24.99 | $5.00 |") {
			t.Errorf("missing TPD row in:\n%s", out)
		}
		if !strings.Contains(out, "**Already Saved: $5.00**") {
			t.Errorf("wrong already-saved sum in:\n%s", out)
		}
	})

	t.Run("renders source as markdown link", func(t *testing.T) {
		if !strings.Contains(out, "[cocowest](https://cocowest.ca/post)") {
			t.Errorf("missing source link in:\n%s", out)
		}
	})
}

func TestBuildEmpty(t *testing.T) {
	out := Build(nil, nil)

	if !strings.Contains(out, "**Potential Savings: $0.00**") {
		t.Error("empty report should sum to $0.00")
	}
	if !strings.Contains(out, "**Already Saved: $0.00**") {
		t.Error("empty TPD table should sum to $0.00")
	}
}

func TestTPDSavingsUnparseable(t *testing.T) {
	it := models.ReceiptItem{
		Item: models.Item{Name: "BROKEN", Price: "24.99", OriginalPrice: "", TPD: true},
	}
	s := tpdSavings(it)
	if s.cell != "" || !s.amount.IsZero() {
		t.Errorf("savings = %+v, want blank cell and zero amount", s)
	}
}
