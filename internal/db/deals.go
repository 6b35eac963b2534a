package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

const dealColumns = `item_id, COALESCE(item_name, ''), COALESCE(item_number, ''),
	       COALESCE(sale_price, ''), COALESCE(original_price, ''),
	       COALESCE(promo_start, ''), COALESCE(promo_end, ''),
	       COALESCE(source, ''), COALESCE(link, ''), COALESCE(scanned_date, '')`

// SaveDeal inserts a scraped deal into the pool.
func SaveDeal(ctx context.Context, d *models.Deal) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	if d.ItemID == "" {
		d.ItemID = uuid.New().String()
	}
	if d.ScannedDate == "" {
		d.ScannedDate = time.Now().Format(time.RFC3339)
	}

	query := `
		INSERT INTO price_drops (
			item_id, item_name, item_number, sale_price, original_price,
			promo_start, promo_end, source, link, scanned_date
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := Pool.Exec(ctx, query,
		d.ItemID, d.ItemName, d.ItemNumber, d.SalePrice, d.OriginalPrice,
		d.PromoStart, d.PromoEnd, d.Source, d.Link, d.ScannedDate,
	)
	return err
}

// GetAllDeals returns the full deal pool, newest scan first.
func GetAllDeals(ctx context.Context) ([]models.Deal, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	rows, err := Pool.Query(ctx,
		`SELECT `+dealColumns+` FROM price_drops ORDER BY scanned_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		err := rows.Scan(
			&d.ItemID, &d.ItemName, &d.ItemNumber,
			&d.SalePrice, &d.OriginalPrice,
			&d.PromoStart, &d.PromoEnd,
			&d.Source, &d.Link, &d.ScannedDate,
		)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// DealExists reports whether the pool already holds this deal. The dedupe key
// is (item_name, source, promo_end); promo_end only participates when set.
func DealExists(ctx context.Context, itemName, source, promoEnd string) (bool, error) {
	if Pool == nil {
		return false, ErrNoDatabase
	}

	query := `SELECT COUNT(*) FROM price_drops
		WHERE item_name = $1 AND source = $2 AND ($3 = '' OR promo_end = $3)`

	var count int
	if err := Pool.QueryRow(ctx, query, itemName, source, promoEnd).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountScannedOn returns how many deals were scanned on the given day
// ("YYYY-MM-DD"), used to short-circuit a rescan when today's results are
// already cached.
func CountScannedOn(ctx context.Context, day string) (int, error) {
	if Pool == nil {
		return 0, ErrNoDatabase
	}

	var count int
	err := Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price_drops WHERE LEFT(scanned_date, 10) = $1`, day).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteDeal removes a single deal.
func DeleteDeal(ctx context.Context, itemID string) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx, `DELETE FROM price_drops WHERE item_id = $1::uuid`, itemID)
	return err
}

// ClearDeals removes the whole deal pool.
func ClearDeals(ctx context.Context) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx, `DELETE FROM price_drops`)
	return err
}
