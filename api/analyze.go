package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/costwatch/receipt-scanner-service/internal/db"
	"github.com/costwatch/receipt-scanner-service/internal/matcher"
	"github.com/costwatch/receipt-scanner-service/internal/models"
	"github.com/costwatch/receipt-scanner-service/internal/report"
)

// Analyze matches receipt items against the deal pool and renders the
// savings report. Query params:
//
//	receipt_id / receipt_ids  limit to specific receipts (default: last 30 days)
//	date_from, date_to        deal date window (yyyy-mm-dd)
//	sources                   comma-separated deal source filter
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()
	q := r.URL.Query()

	var receiptIDs []string
	if ids := q.Get("receipt_ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				receiptIDs = append(receiptIDs, id)
			}
		}
	} else if id := q.Get("receipt_id"); id != "" {
		receiptIDs = []string{id}
	}

	var receipts []models.Receipt
	if len(receiptIDs) > 0 {
		for _, id := range receiptIDs {
			receipt, err := db.GetReceipt(ctx, id)
			if err != nil {
				continue
			}
			receipts = append(receipts, *receipt)
		}
	} else {
		var err error
		receipts, err = db.GetRecentReceipts(ctx, 30)
		if err != nil {
			h.sendError(w, http.StatusServiceUnavailable, "failed to load receipts")
			return
		}
	}

	var items []models.ReceiptItem
	for _, receipt := range receipts {
		for _, item := range receipt.Items {
			items = append(items, models.ReceiptItem{
				Item:        item,
				ReceiptDate: receipt.ReceiptDate,
			})
		}
	}

	deals, err := db.GetAllDeals(ctx)
	if err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "failed to load price drops")
		return
	}

	filter := matcher.Filter{
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if sources := q.Get("sources"); sources != "" {
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Sources = append(filter.Sources, s)
			}
		}
	}

	candidates := matcher.Match(items, matcher.FilterDeals(deals, filter))

	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"report":     report.Build(candidates, items),
	})
}
