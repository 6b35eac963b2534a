package models

import "time"

// RawLine is one extracted receipt line exactly as the AI read it, before any
// cleanup. Price may carry a trailing minus sign for discount lines, and name
// may still embed the item number or a "N @ unit" multiplier marker.
type RawLine struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Qty        string `json:"qty"`
	ItemNumber string `json:"item_number"`
}

// Item is a normalized receipt line item.
//
// Price is always a clean non-negative decimal string with 2 decimals. When a
// TPD (temporary price drop) line was folded into this item, TPD is true,
// OriginalPrice holds the pre-discount amount and Price holds what was paid.
type Item struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	Qty           string `json:"qty"`
	ItemNumber    string `json:"item_number"`
	TPD           bool   `json:"tpd"`
	OriginalPrice string `json:"original_price"`
}

// ReceiptItem is an Item tagged with the date of the receipt it came from,
// which is what the matcher consumes and sorts candidates by.
type ReceiptItem struct {
	Item
	ReceiptDate string `json:"receipt_date"`
}

// Receipt is a parsed receipt as persisted.
type Receipt struct {
	ReceiptID   string    `json:"receipt_id"`
	Items       []Item    `json:"items"`
	ReceiptDate string    `json:"receipt_date"`
	Store       string    `json:"store"`
	UploadDate  time.Time `json:"upload_date"`
	PDFHash     string    `json:"pdf_hash"`
	ObjectKey   string    `json:"object_key"`
}

// Deal is one scraped or curated discount offer in the deal pool.
type Deal struct {
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	ItemNumber    string `json:"item_number"`
	SalePrice     string `json:"sale_price"`
	OriginalPrice string `json:"original_price"`
	PromoStart    string `json:"promo_start"`
	PromoEnd      string `json:"promo_end"`
	Source        string `json:"source"`
	Link          string `json:"link"`
	ScannedDate   string `json:"scanned_date"`
}

// Match tiers, strongest first.
const (
	MatchExactItemNumber   = "exact_item_number"
	MatchPartialItemNumber = "partial_item_number"
	MatchNameKeyword       = "name_keyword"
)

// MatchCandidate pairs a receipt item with the single best deal found for it.
// Savings is receipt price minus deal price, rounded to 2 decimals, and is
// always strictly positive.
type MatchCandidate struct {
	ReceiptItem       string `json:"receipt_item"`
	ReceiptPrice      string `json:"receipt_price"`
	OriginalPrice     string `json:"original_price"`
	ReceiptItemNumber string `json:"receipt_item_number"`
	ReceiptDate       string `json:"receipt_date"`
	TPDAtPurchase     bool   `json:"tpd_at_purchase"`
	DealName          string `json:"deal_name"`
	DealPrice         string `json:"deal_price"`
	DealItemNumber    string `json:"deal_item_number"`
	DealSource        string `json:"deal_source"`
	DealLink          string `json:"deal_link"`
	DealExpiry        string `json:"deal_expiry"`
	MatchedBy         string `json:"matched_by"`
	Savings           string `json:"savings"`
}

// ParsedReceipt is the raw extraction result for one document before
// normalization.
type ParsedReceipt struct {
	Store       string    `json:"store"`
	ReceiptDate string    `json:"receipt_date"`
	Items       []RawLine `json:"items"`
}
