package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/izposoja/internal/model"
)

// CreateItem creates a new catalog item. The on-shelf quantity starts equal
// to the initial quantity: nothing is leased out yet.
func CreateItem(ctx context.Context, db DBTX, name, category string, estimatedPrice float64, initialQuantity int) (*model.Item, error) {
	if initialQuantity < 0 {
		return nil, fmt.Errorf("initial quantity %d: %w", initialQuantity, ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, category, estimated_price, initial_quantity, quantity)
		 VALUES (?, ?, ?, ?, ?)`,
		name, category, estimatedPrice, initialQuantity, initialQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
// A quantity outside [0, initial_quantity] is reported as corruption.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	item := &model.Item{}
	var category, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, category, estimated_price, initial_quantity, quantity,
		        image_mime, created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &category, &item.EstimatedPrice,
		&item.InitialQuantity, &item.Quantity, &imageMime,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Category = category.String
	item.ImageMime = imageMime.String

	if item.Quantity < 0 || item.Quantity > item.InitialQuantity {
		return nil, fmt.Errorf("item %d: quantity %d outside [0, %d]: %w",
			item.ID, item.Quantity, item.InitialQuantity, ErrDataCorruption)
	}

	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by category.
func ListItems(ctx context.Context, db DBTX, category string) ([]model.Item, error) {
	query := `SELECT id, name, category, estimated_price, initial_quantity, quantity,
	                 image_mime, created_at, updated_at, deleted_at
	          FROM items WHERE deleted_at IS NULL`
	var args []any

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var category, imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &category, &item.EstimatedPrice,
			&item.InitialQuantity, &item.Quantity, &imageMime,
			&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Category = category.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata. Quantities are not touched here;
// they only move through the lease engine and RestockItem.
func UpdateItem(ctx context.Context, db DBTX, id int64, name, category string, estimatedPrice float64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, estimated_price = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, category, estimatedPrice, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item. Denied while active leases reference it,
// since deleting the item would orphan the leased units.
func DeleteItem(ctx context.Context, db DBTX, id int64) error {
	var leases int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM active_leases WHERE item_id = ?`, id,
	).Scan(&leases)
	if err != nil {
		return fmt.Errorf("checking active leases: %w", err)
	}
	if leases > 0 {
		return fmt.Errorf("item %d: %w", id, ErrItemLeased)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// RestockItem raises an item's owned and on-shelf quantities by amount.
// This is the only operation that ever raises initial_quantity.
func RestockItem(ctx context.Context, db DBTX, id int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("restock amount %d: %w", amount, ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items
		 SET initial_quantity = initial_quantity + ?, quantity = quantity + ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		amount, amount, id,
	)
	if err != nil {
		return fmt.Errorf("restocking item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("restocking item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	return nil
}

// CompareAndDecrement atomically verifies that at least amount units are on
// the shelf and subtracts them. On insufficient stock nothing is mutated.
// This is the single choke point that prevents overselling under
// concurrent approvals.
func CompareAndDecrement(ctx context.Context, db DBTX, itemID int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("decrement amount %d: %w", amount, ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND quantity >= ?`,
		amount, itemID, amount,
	)
	if err != nil {
		return fmt.Errorf("decrementing quantity: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrementing quantity: %w", err)
	}
	if n > 0 {
		return nil
	}

	// No row matched: distinguish a missing item from insufficient stock.
	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.DeletedAt != nil {
		return fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
	}
	return fmt.Errorf("item %d: have %d, need %d: %w",
		itemID, item.Quantity, amount, ErrInsufficientStock)
}

// IncrementQuantity puts amount units back on the shelf. Returns are always
// legal, but the result exceeding initial_quantity means an earlier
// bookkeeping bug: that is reported as corruption, never silently clamped.
func IncrementQuantity(ctx context.Context, db DBTX, itemID int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("increment amount %d: %w", amount, ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity + ? <= initial_quantity`,
		amount, itemID, amount,
	)
	if err != nil {
		return fmt.Errorf("incrementing quantity: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("incrementing quantity: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE id = ?`, itemID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
	}
	return fmt.Errorf("item %d: increment by %d would exceed initial quantity: %w",
		itemID, amount, ErrDataCorruption)
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
