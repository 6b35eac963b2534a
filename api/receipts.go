package api

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/costwatch/receipt-scanner-service/internal/db"
	"github.com/costwatch/receipt-scanner-service/internal/models"
	"github.com/costwatch/receipt-scanner-service/internal/storage"
)

// UploadReceipt accepts a PDF, extracts and normalizes its line items,
// and stores the receipt. Re-uploading the same PDF returns the stored
// copy instead of parsing again.
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		h.sendError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	pdfData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	parsed, items, _, err := h.parseReceipt(ctx, pdfData,
		r.FormValue("aiProvider"), r.FormValue("model"))
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse receipt: %v", err))
		return
	}

	receipt := &models.Receipt{
		Items:       items,
		ReceiptDate: parsed.ReceiptDate,
		Store:       parsed.Store,
		UploadDate:  time.Now(),
		PDFHash:     fmt.Sprintf("%x", md5.Sum(pdfData)),
	}

	saved, err := db.SaveReceipt(ctx, receipt)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save receipt: %v", err))
		return
	}

	// Keep the PDF around for reparse and serving. Storage is optional.
	if storage.Client != nil && saved.ObjectKey == "" {
		objectKey, err := storage.UploadReceiptPDF(ctx, saved.ReceiptID, pdfData)
		if err != nil {
			fmt.Printf("Warning: failed to store PDF: %v\n", err)
		} else if err := db.SetReceiptObjectKey(ctx, saved.ReceiptID, objectKey); err != nil {
			fmt.Printf("Warning: failed to record object key: %v\n", err)
		} else {
			saved.ObjectKey = objectKey
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"receipt":      saved,
		"parsed_items": len(saved.Items),
	})
}

// ListReceipts returns all stored receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	receipts, err := db.GetAllReceipts(r.Context())
	if err != nil {
		h.sendError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to get receipts: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"receipts": receipts,
	})
}

// GetReceipt returns a single receipt
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	receipt, err := db.GetReceipt(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusNotFound, "receipt not found")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"receipt": receipt,
	})
}

// DeleteReceipt removes a receipt and its stored PDF
func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()
	receiptID := mux.Vars(r)["id"]

	if storage.Client != nil {
		if receipt, err := db.GetReceipt(ctx, receiptID); err == nil && receipt.ObjectKey != "" {
			_ = storage.DeleteReceiptPDF(ctx, receipt.ObjectKey)
		}
	}

	if err := db.DeleteReceipt(ctx, receiptID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete receipt")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Receipt deleted"})
}

// ClearReceipts deletes every stored receipt
func (h *Handler) ClearReceipts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := db.ClearReceipts(r.Context()); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to clear receipts")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "All receipts deleted"})
}

// GetReceiptPDF serves the original uploaded PDF
func (h *Handler) GetReceiptPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receiptID := mux.Vars(r)["id"]

	receipt, err := db.GetReceipt(ctx, receiptID)
	if err != nil || receipt.ObjectKey == "" || storage.Client == nil {
		w.Header().Set("Content-Type", "application/json")
		h.sendError(w, http.StatusNotFound, "PDF not found")
		return
	}

	pdfData, err := storage.DownloadReceiptPDF(ctx, receipt.ObjectKey)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.sendError(w, http.StatusNotFound, "PDF not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdfData)
}

// UpdateReceiptItem replaces one line item after a manual correction
func (h *Handler) UpdateReceiptItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	vars := mux.Vars(r)
	receiptID := vars["id"]
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid item index")
		return
	}

	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := db.GetReceipt(ctx, receiptID)
	if err != nil || index < 0 || index >= len(receipt.Items) {
		h.sendError(w, http.StatusNotFound, "Item not found")
		return
	}

	if err := db.UpdateReceiptItem(ctx, receiptID, index, item); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ReparseReceipt re-runs extraction on the stored PDF, typically with a
// stronger model after a bad first parse.
func (h *Handler) ReparseReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()
	receiptID := mux.Vars(r)["id"]

	receipt, err := db.GetReceipt(ctx, receiptID)
	if err != nil || receipt.ObjectKey == "" || storage.Client == nil {
		h.sendError(w, http.StatusNotFound, "PDF not found in storage for this receipt")
		return
	}

	pdfData, err := storage.DownloadReceiptPDF(ctx, receipt.ObjectKey)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "PDF not found in storage for this receipt")
		return
	}

	q := r.URL.Query()
	parsed, items, _, err := h.parseReceipt(ctx, pdfData, q.Get("aiProvider"), q.Get("model"))
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Reparse failed: %v", err))
		return
	}

	if err := db.UpdateReceiptItems(ctx, receiptID, items, parsed.Store, parsed.ReceiptDate); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update receipt")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": len(items),
	})
}
