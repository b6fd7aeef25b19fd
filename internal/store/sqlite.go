package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/shoplist/internal/model"
)

// SQLStore keeps lists in SQLite. Each mutation runs in a single
// transaction, and items keep an explicit position for insertion order.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var paid int
	err := scanner.Scan(&item.ItemID, &item.Name, &item.Quantity, &item.Observation, &paid, &item.Price)
	if err != nil {
		return nil, err
	}
	item.Paid = paid != 0
	return &item, nil
}

const itemCols = `item_id, name, quantity, observation, paid, price`

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLStore) CreateList(ctx context.Context) (string, error) {
	id := model.NewListID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO lists (id, created_at) VALUES (?, ?)`, id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert list: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Items(ctx context.Context, listID string) ([]model.Item, error) {
	var items []model.Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireList(ctx, tx, listID); err != nil {
			return err
		}
		var err error
		items, err = listItems(ctx, tx, listID)
		return err
	})
	return items, err
}

func (s *SQLStore) AppendItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error) {
	return s.mutate(ctx, listID, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM list_items WHERE list_id = ?`, listID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		return insertItem(ctx, tx, listID, model.NewItem(draft), next)
	})
}

func (s *SQLStore) UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error) {
	return s.mutate(ctx, listID, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+itemCols+` FROM list_items WHERE list_id = ? AND item_id = ?`, listID, itemID)
		item, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		patch.Apply(item)
		_, err = tx.ExecContext(ctx,
			`UPDATE list_items SET name = ?, quantity = ?, observation = ?, paid = ?, price = ? WHERE list_id = ? AND item_id = ?`,
			item.Name, item.Quantity, item.Observation, boolInt(item.Paid), item.Price, listID, itemID,
		)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error) {
	return s.mutate(ctx, listID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ? AND item_id = ?`, listID, itemID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

func (s *SQLStore) ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error) {
	return s.mutate(ctx, listID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		for i, item := range items {
			if err := insertItem(ctx, tx, listID, item, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) DeleteList(ctx context.Context, listID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, listID)
		if err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrListNotFound
		}
		return nil
	})
}

// mutate runs fn in a transaction after checking the list exists, and
// returns the refreshed collection read inside the same transaction.
func (s *SQLStore) mutate(ctx context.Context, listID string, fn func(tx *sql.Tx) error) ([]model.Item, error) {
	var items []model.Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireList(ctx, tx, listID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		items, err = listItems(ctx, tx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func requireList(ctx context.Context, q queryer, listID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM lists WHERE id = ?`, listID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListNotFound
	}
	if err != nil {
		return fmt.Errorf("get list: %w", err)
	}
	return nil
}

func listItems(ctx context.Context, q queryer, listID string) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemCols+` FROM list_items WHERE list_id = ? ORDER BY position ASC`, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func insertItem(ctx context.Context, q queryer, listID string, item model.Item, position int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO list_items (list_id, item_id, position, name, quantity, observation, paid, price) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listID, item.ItemID, position, item.Name, item.Quantity, item.Observation, boolInt(item.Paid), item.Price,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}
