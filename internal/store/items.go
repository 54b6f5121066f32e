package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lostfound/lostfound/internal/model"
)

const itemColumns = `id, name, email, phone_number, title, description, location, item_type,
	image, loser_phone, loser_email, event_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var date sql.NullTime
	err := row.Scan(&item.ID, &item.Name, &item.Email, &item.PhoneNumber, &item.Title,
		&item.Description, &item.Location, &item.ItemType, &item.Image,
		&item.LoserPhone, &item.LoserEmail, &date, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time
		item.Date = &d
	}
	return item, nil
}

// CreateItem creates a new item.
func (s *SQLStore) CreateItem(ctx context.Context, item *model.Item) error {
	if err := validateItem(item); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	ts := now()
	id := uuid.NewString()
	var date any
	if item.Date != nil {
		date = item.Date.UTC()
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Name, item.Email, item.PhoneNumber, item.Title, item.Description,
		item.Location, item.ItemType, item.Image, item.LoserPhone, item.LoserEmail,
		date, ts, ts,
	)
	if err != nil {
		return checkError("creating item", err)
	}

	item.ID = id
	item.CreatedAt = ts
	item.UpdatedAt = ts
	return nil
}

// GetItem returns an item by ID.
func (s *SQLStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := scanItem(s.DB.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching filter, newest first.
func (s *SQLStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any

	if filter.Type != "" {
		where = append(where, "item_type = ?")
		args = append(args, filter.Type)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0)")
		args = append(args, q, q)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// DeleteItem removes an item.
func (s *SQLStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

// SetLoserContact records how to reach the person who lost an item.
func (s *SQLStore) SetLoserContact(ctx context.Context, id, phone, email string) (*model.Item, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE items SET
		     loser_phone = COALESCE(NULLIF(?, ''), loser_phone),
		     loser_email = COALESCE(NULLIF(?, ''), loser_email),
		     updated_at = ?
		 WHERE id = ?`,
		phone, email, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("setting loser contact: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("setting loser contact: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetItem(ctx, id)
}
