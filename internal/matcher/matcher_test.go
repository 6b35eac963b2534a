package matcher

import (
	"testing"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

func item(name, price, number string) models.ReceiptItem {
	return models.ReceiptItem{
		Item: models.Item{Name: name, Price: price, Qty: "1", ItemNumber: number},
	}
}

func TestFilterDeals(t *testing.T) {
	deals := []models.Deal{
		{ItemName: "A", Source: "cocowest", PromoEnd: "2026-08-30"},
		{ItemName: "B", Source: "redflagdeals.com", ScannedDate: "2026-08-10T12:00:00Z"},
		{ItemName: "C", Source: "cocowest", PromoEnd: "2026-07-01"},
	}

	t.Run("zero filter keeps everything", func(t *testing.T) {
		got := FilterDeals(deals, Filter{})
		if len(got) != 3 {
			t.Errorf("kept %d deals, want 3", len(got))
		}
	})

	t.Run("filters by source", func(t *testing.T) {
		got := FilterDeals(deals, Filter{Sources: []string{"redflagdeals.com"}})
		if len(got) != 1 || got[0].ItemName != "B" {
			t.Errorf("got %+v, want only B", got)
		}
	})

	t.Run("date_from uses promo end when present", func(t *testing.T) {
		got := FilterDeals(deals, Filter{DateFrom: "2026-08-01"})
		if len(got) != 2 {
			t.Fatalf("kept %d deals, want 2", len(got))
		}
		for _, d := range got {
			if d.ItemName == "C" {
				t.Error("expired deal C kept, want dropped")
			}
		}
	})

	t.Run("date_from falls back to scanned date", func(t *testing.T) {
		got := FilterDeals(deals, Filter{DateFrom: "2026-08-15"})
		if len(got) != 1 || got[0].ItemName != "A" {
			t.Errorf("got %+v, want only A", got)
		}
	})

	t.Run("date_to bounds the window", func(t *testing.T) {
		got := FilterDeals(deals, Filter{DateTo: "2026-08-12"})
		if len(got) != 2 {
			t.Errorf("kept %d deals, want 2 (B and C)", len(got))
		}
	})
}

func TestMatchTiers(t *testing.T) {
	t.Run("exact item number", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("WIDGET", "10.00", "1234567")},
			[]models.Deal{{ItemName: "SOMETHING ELSE", ItemNumber: "1234567", SalePrice: "8.00"}},
		)
		if len(got) != 1 {
			t.Fatalf("candidates = %d, want 1", len(got))
		}
		if got[0].MatchedBy != models.MatchExactItemNumber {
			t.Errorf("MatchedBy = %q, want exact_item_number", got[0].MatchedBy)
		}
		if got[0].Savings != "2.00" {
			t.Errorf("Savings = %q, want 2.00", got[0].Savings)
		}
	})

	t.Run("partial item number needs five shared leading digits", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("WIDGET", "10.00", "1234567")},
			[]models.Deal{{ItemName: "VARIANT", ItemNumber: "1234599", SalePrice: "8.00"}},
		)
		if len(got) != 1 || got[0].MatchedBy != models.MatchPartialItemNumber {
			t.Fatalf("got %+v, want partial_item_number match", got)
		}

		got = Match(
			[]models.ReceiptItem{item("WIDGET", "10.00", "1234")},
			[]models.Deal{{ItemName: "VARIANT", ItemNumber: "1234", SalePrice: "8.00"}},
		)
		if len(got) != 1 || got[0].MatchedBy != models.MatchExactItemNumber {
			t.Errorf("short equal numbers should still match exactly, got %+v", got)
		}
	})

	t.Run("two keywords contained in deal name", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("KS ORGANIC MAPLE SYRUP", "13.99", "")},
			[]models.Deal{{ItemName: "Kirkland Organic Maple Syrup 1L", SalePrice: "10.99"}},
		)
		if len(got) != 1 || got[0].MatchedBy != models.MatchNameKeyword {
			t.Fatalf("got %+v, want name_keyword match", got)
		}
	})

	t.Run("single keyword must be five chars or more", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("VITAMIX", "399.99", "")},
			[]models.Deal{{ItemName: "Vitamix blender clearance", SalePrice: "299.97"}},
		)
		if len(got) != 1 || got[0].MatchedBy != models.MatchNameKeyword {
			t.Fatalf("got %+v, want name_keyword match", got)
		}

		got = Match(
			[]models.ReceiptItem{item("EGGS", "8.99", "")},
			[]models.Deal{{ItemName: "Organic eggs 24 pack", SalePrice: "6.99"}},
		)
		if len(got) != 0 {
			t.Errorf("four-char single keyword matched, want no candidate: %+v", got)
		}
	})

	t.Run("stop words never count as keywords", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("PACK WITH SIZE", "10.00", "")},
			[]models.Deal{{ItemName: "value pack with every size", SalePrice: "5.00"}},
		)
		if len(got) != 0 {
			t.Errorf("stop-word-only name matched, want none: %+v", got)
		}
	})
}

func TestMatchSavings(t *testing.T) {
	t.Run("deal must be strictly cheaper than paid", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("WIDGET", "25.00", "1234567")},
			[]models.Deal{
				{ItemName: "WIDGET", ItemNumber: "1234567", SalePrice: "29.99"},
				{ItemName: "WIDGET", ItemNumber: "1234567", SalePrice: "25.00"},
			},
		)
		if len(got) != 0 {
			t.Errorf("candidates = %+v, want none", got)
		}
	})

	t.Run("savings dominates tier rank", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("DELUXE WIDGET SET", "20.00", "1234567")},
			[]models.Deal{
				{ItemName: "OTHER VARIANT", ItemNumber: "1234599", SalePrice: "15.00"},
				{ItemName: "deluxe widget bundle", ItemNumber: "", SalePrice: "14.00"},
			},
		)
		if len(got) != 1 {
			t.Fatalf("candidates = %d, want 1", len(got))
		}
		if got[0].MatchedBy != models.MatchNameKeyword || got[0].Savings != "6.00" {
			t.Errorf("kept %+v, want $6.00 name_keyword match", got[0])
		}
	})

	t.Run("tier rank breaks savings ties", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("DELUXE WIDGET SET", "20.00", "1234567")},
			[]models.Deal{
				{ItemName: "deluxe widget bundle", ItemNumber: "", SalePrice: "15.00"},
				{ItemName: "WIDGET EXACT", ItemNumber: "1234567", SalePrice: "15.00"},
			},
		)
		if len(got) != 1 || got[0].MatchedBy != models.MatchExactItemNumber {
			t.Errorf("got %+v, want exact match to win the tie", got)
		}
	})

	t.Run("first maximal deal wins a full tie", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("WIDGET", "20.00", "1234567")},
			[]models.Deal{
				{ItemName: "FIRST", ItemNumber: "1234567", SalePrice: "15.00"},
				{ItemName: "SECOND", ItemNumber: "1234567", SalePrice: "15.00"},
			},
		)
		if len(got) != 1 || got[0].DealName != "FIRST" {
			t.Errorf("got %+v, want FIRST kept", got)
		}
	})

	t.Run("unparseable receipt price produces no candidate", func(t *testing.T) {
		got := Match(
			[]models.ReceiptItem{item("WIDGET", "n/a", "1234567")},
			[]models.Deal{{ItemName: "WIDGET", ItemNumber: "1234567", SalePrice: "5.00"}},
		)
		if len(got) != 0 {
			t.Errorf("candidates = %+v, want none", got)
		}
	})
}

func TestMatchOrdering(t *testing.T) {
	older := item("OLD PURCHASE", "20.00", "1111111")
	older.ReceiptDate = "2026-07-01"
	newer := item("NEW PURCHASE", "20.00", "2222222")
	newer.ReceiptDate = "2026-08-15"

	got := Match(
		[]models.ReceiptItem{newer, older},
		[]models.Deal{
			{ItemName: "A", ItemNumber: "1111111", SalePrice: "10.00"},
			{ItemName: "B", ItemNumber: "2222222", SalePrice: "10.00"},
		},
	)
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].ReceiptDate != "2026-07-01" || got[1].ReceiptDate != "2026-08-15" {
		t.Errorf("order = [%s, %s], want ascending by receipt date",
			got[0].ReceiptDate, got[1].ReceiptDate)
	}
}
