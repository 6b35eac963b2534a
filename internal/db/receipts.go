package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

const receiptColumns = `receipt_id, items, COALESCE(receipt_date, ''), COALESCE(store, ''),
	       upload_date, COALESCE(pdf_hash, ''), COALESCE(object_key, '')`

// SaveReceipt inserts a parsed receipt. When a receipt with the same PDF hash
// already exists the stored copy is returned instead and nothing is written.
func SaveReceipt(ctx context.Context, r *models.Receipt) (*models.Receipt, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	if r.PDFHash != "" {
		existing, err := GetReceiptByPDFHash(ctx, r.PDFHash)
		if err == nil {
			return existing, nil
		}
		if err != pgx.ErrNoRows {
			return nil, err
		}
	}

	if r.ReceiptID == "" {
		r.ReceiptID = uuid.New().String()
	}
	if r.UploadDate.IsZero() {
		r.UploadDate = time.Now()
	}

	itemsJSON, err := json.Marshal(r.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		INSERT INTO receipts (receipt_id, items, receipt_date, store, upload_date, pdf_hash, object_key)
		VALUES ($1::uuid, $2::jsonb, $3, $4, $5, $6, $7)
	`
	_, err = Pool.Exec(ctx, query,
		r.ReceiptID, string(itemsJSON), r.ReceiptDate, r.Store, r.UploadDate, r.PDFHash, r.ObjectKey,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetReceiptByPDFHash finds a previously uploaded receipt by document hash.
func GetReceiptByPDFHash(ctx context.Context, pdfHash string) (*models.Receipt, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := fmt.Sprintf(`SELECT %s FROM receipts WHERE pdf_hash = $1 LIMIT 1`, receiptColumns)
	return scanReceipt(Pool.QueryRow(ctx, query, pdfHash))
}

// GetReceipt retrieves a single receipt by ID
func GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := fmt.Sprintf(`SELECT %s FROM receipts WHERE receipt_id = $1::uuid`, receiptColumns)
	return scanReceipt(Pool.QueryRow(ctx, query, receiptID))
}

// GetAllReceipts returns every stored receipt, newest upload first.
func GetAllReceipts(ctx context.Context) ([]models.Receipt, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := fmt.Sprintf(`SELECT %s FROM receipts ORDER BY upload_date DESC`, receiptColumns)
	return queryReceipts(ctx, query)
}

// GetRecentReceipts returns receipts uploaded in the last N days.
func GetRecentReceipts(ctx context.Context, days int) ([]models.Receipt, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := fmt.Sprintf(`SELECT %s FROM receipts
		WHERE upload_date >= NOW() - ($1 * INTERVAL '1 day')
		ORDER BY upload_date DESC`, receiptColumns)
	return queryReceipts(ctx, query, days)
}

// UpdateReceiptItem replaces a single item at the given index.
func UpdateReceiptItem(ctx context.Context, receiptID string, index int, item models.Item) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}

	query := `
		UPDATE receipts
		SET items = jsonb_set(items, ARRAY[$2::text], $3::jsonb)
		WHERE receipt_id = $1::uuid
	`
	_, err = Pool.Exec(ctx, query, receiptID, fmt.Sprintf("%d", index), string(itemJSON))
	return err
}

// UpdateReceiptItems replaces the item list and optionally store/date after a
// reparse.
func UpdateReceiptItems(ctx context.Context, receiptID string, items []models.Item, store, receiptDate string) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		UPDATE receipts
		SET items = $2::jsonb,
		    store = CASE WHEN $3 <> '' THEN $3 ELSE store END,
		    receipt_date = CASE WHEN $4 <> '' THEN $4 ELSE receipt_date END
		WHERE receipt_id = $1::uuid
	`
	_, err = Pool.Exec(ctx, query, receiptID, string(itemsJSON), store, receiptDate)
	return err
}

// SetReceiptObjectKey records where the source PDF landed in object storage.
func SetReceiptObjectKey(ctx context.Context, receiptID, objectKey string) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx,
		`UPDATE receipts SET object_key = $2 WHERE receipt_id = $1::uuid`,
		receiptID, objectKey)
	return err
}

// DeleteReceipt removes a receipt
func DeleteReceipt(ctx context.Context, receiptID string) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx, `DELETE FROM receipts WHERE receipt_id = $1::uuid`, receiptID)
	return err
}

// ClearReceipts removes every receipt.
func ClearReceipts(ctx context.Context) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx, `DELETE FROM receipts`)
	return err
}

func queryReceipts(ctx context.Context, query string, args ...interface{}) ([]models.Receipt, error) {
	rows, err := Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *r)
	}
	return receipts, rows.Err()
}

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var r models.Receipt
	var itemsJSON []byte
	err := row.Scan(&r.ReceiptID, &itemsJSON, &r.ReceiptDate, &r.Store, &r.UploadDate, &r.PDFHash, &r.ObjectKey)
	if err != nil {
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &r.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
	}
	return &r, nil
}
