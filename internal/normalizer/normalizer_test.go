package normalizer

import (
	"reflect"
	"testing"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

func TestNormalizeFold(t *testing.T) {
	t.Run("folds TPD line into previous item", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "KS SHOES", Price: "29.99", Qty: "1", ItemNumber: "3333332"},
			{Name: "TPD/3333332", Price: "5.00-", Qty: "1"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		got := items[0]
		if got.Price != "24.99" {
			t.Errorf("Price = %q, want 24.99", got.Price)
		}
		if got.OriginalPrice != "29.99" {
			t.Errorf("OriginalPrice = %q, want 29.99", got.OriginalPrice)
		}
		if !got.TPD {
			t.Error("TPD = false, want true")
		}
	})

	t.Run("folds trailing-minus line without TPD marker", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "PAPER TOWELS", Price: "21.49", Qty: "1"},
			{Name: "1234567", Price: "3.50-", Qty: "1"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		if items[0].Price != "17.99" {
			t.Errorf("Price = %q, want 17.99", items[0].Price)
		}
	})

	t.Run("skips fold when discount equals price", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "10.00", Qty: "1"},
			{Name: "TPD/WIDGET", Price: "10.00-", Qty: "1"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		got := items[0]
		if got.Price != "10.00" || got.TPD || got.OriginalPrice != "" {
			t.Errorf("item = %+v, want unchanged", got)
		}
	})

	t.Run("skips fold when discount exceeds price", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "10.00", Qty: "1"},
			{Name: "TPD/WIDGET", Price: "99.00-", Qty: "1"},
		})
		if len(items) != 1 || items[0].Price != "10.00" || items[0].TPD {
			t.Errorf("items = %+v, want single unchanged item", items)
		}
	})
}

func TestNormalizeQuantity(t *testing.T) {
	t.Run("resets qty when price does not divide evenly", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "10.00", Qty: "3"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		if items[0].Qty != "1" {
			t.Errorf("Qty = %q, want 1", items[0].Qty)
		}
	})

	t.Run("keeps qty when price divides cleanly", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "19.98", Qty: "2"},
		})
		if items[0].Qty != "2" {
			t.Errorf("Qty = %q, want 2", items[0].Qty)
		}
	})

	t.Run("applies multiplier line to next item", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "2 @ 9.99", Price: "", Qty: "1"},
			{Name: "ORGANIC EGGS", Price: "19.98", Qty: "1"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		if items[0].Qty != "2" {
			t.Errorf("Qty = %q, want 2", items[0].Qty)
		}
	})

	t.Run("defaults empty qty to 1", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "5.00"},
		})
		if items[0].Qty != "1" {
			t.Errorf("Qty = %q, want 1", items[0].Qty)
		}
	})
}

func TestNormalizeItemNumberRepair(t *testing.T) {
	t.Run("recovers confusable-letter item number from name", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "O123456 WIDGET", Price: "10.00", Qty: "1"},
		})
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		if items[0].ItemNumber != "0123456" {
			t.Errorf("ItemNumber = %q, want 0123456", items[0].ItemNumber)
		}
		if items[0].Name != "WIDGET" {
			t.Errorf("Name = %q, want WIDGET", items[0].Name)
		}
	})

	t.Run("clears implausibly long item number", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "10.00", Qty: "1", ItemNumber: "123456789"},
		})
		if items[0].ItemNumber != "" {
			t.Errorf("ItemNumber = %q, want empty", items[0].ItemNumber)
		}
	})

	t.Run("strips known item number prefix from name", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "1234567 WIDGET", Price: "10.00", Qty: "1", ItemNumber: "1234567"},
		})
		if items[0].Name != "WIDGET" {
			t.Errorf("Name = %q, want WIDGET", items[0].Name)
		}
	})

	t.Run("leaves name alone when leading token is not a code", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "XTRA LARGE EGGS", Price: "8.99", Qty: "1"},
		})
		if items[0].ItemNumber != "" || items[0].Name != "XTRA LARGE EGGS" {
			t.Errorf("item = %+v, want untouched", items[0])
		}
	})
}

func TestNormalizeNoise(t *testing.T) {
	t.Run("drops noise and zero-price lines", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "AGE VERIFIED", Price: "0.00", Qty: "1"},
			{Name: "DEPOSIT", Price: "0.80", Qty: "1"},
			{Name: "N123456 MEMBER", Price: "", Qty: "1"},
			{Name: "FREE SAMPLE", Price: "0.00", Qty: "1"},
			{Name: "WIDGET", Price: "10.00", Qty: "1"},
		})
		if len(items) != 1 || items[0].Name != "WIDGET" {
			t.Fatalf("items = %+v, want only WIDGET", items)
		}
	})

	t.Run("trims trailing noise from price", func(t *testing.T) {
		items := Normalize([]models.RawLine{
			{Name: "WIDGET", Price: "12.99 A", Qty: "1"},
		})
		if items[0].Price != "12.99" {
			t.Errorf("Price = %q, want 12.99", items[0].Price)
		}
	})
}

func TestNormalizeIdempotence(t *testing.T) {
	first := Normalize([]models.RawLine{
		{Name: "1234567 WIDGET", Price: "10.00", Qty: "2"},
		{Name: "ORGANIC EGGS", Price: "8.99", Qty: "1", ItemNumber: "7654321"},
	})

	var again []models.RawLine
	for _, it := range first {
		again = append(again, models.RawLine{
			Name: it.Name, Price: it.Price, Qty: it.Qty, ItemNumber: it.ItemNumber,
		})
	}
	second := Normalize(again)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass = %+v, want %+v", second, first)
	}
}

func TestNormalizeEndToEnd(t *testing.T) {
	items := Normalize([]models.RawLine{
		{Name: "1234567 WIDGET", Price: "10.00", Qty: "1", ItemNumber: ""},
		{Name: "TPD/1234567", Price: "3.00-", Qty: "1", ItemNumber: ""},
	})
	want := models.Item{
		Name:          "WIDGET",
		Price:         "7.00",
		Qty:           "1",
		ItemNumber:    "1234567",
		TPD:           true,
		OriginalPrice: "10.00",
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !reflect.DeepEqual(items[0], want) {
		t.Errorf("item = %+v, want %+v", items[0], want)
	}
}
