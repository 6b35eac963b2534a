package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/costwatch/receipt-scanner-service/internal/db"
	"github.com/costwatch/receipt-scanner-service/internal/models"
	"github.com/costwatch/receipt-scanner-service/internal/scraper"
)

// ScanPrices runs all deal collectors and saves the deduplicated batch.
// Unless force_refresh=true, a scan already done today is reused.
func (h *Handler) ScanPrices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	today := time.Now().Format("2006-01-02")

	if r.URL.Query().Get("force_refresh") != "true" {
		cached, err := db.CountScannedOn(ctx, today)
		if err == nil && cached > 0 {
			deals, err := db.GetAllDeals(ctx)
			if err != nil {
				h.sendError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to load deals: %v", err))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"price_drops": len(deals),
				"items":       deals,
				"cached":      true,
			})
			return
		}
	}

	batch := h.scanner.Scan(ctx)
	fresh := scraper.Dedupe(batch, today, func(itemName, source, promoEnd string) bool {
		exists, err := db.DealExists(ctx, itemName, source, promoEnd)
		return err == nil && exists
	})

	var saved []models.Deal
	for i := range fresh {
		if err := db.SaveDeal(ctx, &fresh[i]); err != nil {
			fmt.Printf("Warning: failed to save deal %q: %v\n", fresh[i].ItemName, err)
			continue
		}
		saved = append(saved, fresh[i])
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"price_drops": len(saved),
		"items":       saved,
	})
}

// ListPriceDrops returns the current deal pool
func (h *Handler) ListPriceDrops(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	deals, err := db.GetAllDeals(r.Context())
	if err != nil {
		h.sendError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to get price drops: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"price_drops": deals,
	})
}

// DeletePriceDrop removes one deal
func (h *Handler) DeletePriceDrop(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := db.DeleteDeal(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete deal")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Deal deleted"})
}

// ClearPriceDrops deletes the whole deal pool
func (h *Handler) ClearPriceDrops(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := db.ClearDeals(r.Context()); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to clear price drops")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "All price drops deleted"})
}
