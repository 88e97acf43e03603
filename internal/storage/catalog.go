package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wbcoef/wbcoef/internal/domain"
)

// UpsertWarehouses inserts new warehouses and renames known ones.
func (s *Store) UpsertWarehouses(ctx context.Context, list []domain.Warehouse) error {
	if len(list) == 0 {
		return nil
	}
	return s.locked(ctx, "store.upsert_warehouses", func() error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			stmt, err := tx.PreparexContext(ctx, `
				INSERT INTO warehouses (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name`)
			if err != nil {
				return err
			}
			defer stmt.Close()
			for _, w := range list {
				if _, err := stmt.ExecContext(ctx, int64(w.ID), w.Name); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// WarehousesPage returns page (zero based) of the name-sorted catalog.
func (s *Store) WarehousesPage(ctx context.Context, page, size int) ([]domain.Warehouse, error) {
	var out []domain.Warehouse
	if page < 0 || size <= 0 {
		return out, nil
	}
	err := s.locked(ctx, "store.warehouses_page", func() error {
		return s.db.SelectContext(ctx, &out,
			`SELECT id, name FROM warehouses ORDER BY name, id LIMIT ? OFFSET ?`, size, page*size)
	})
	return out, err
}

// CountWarehouses returns the catalog size.
func (s *Store) CountWarehouses(ctx context.Context) (int, error) {
	var n int
	err := s.locked(ctx, "store.count_warehouses", func() error {
		return s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM warehouses`)
	})
	return n, err
}

// UpsertCoefficients stores slots keyed by (date, warehouse, box type).
// An existing slot only gets its coefficient replaced.
func (s *Store) UpsertCoefficients(ctx context.Context, list []domain.Coefficient) error {
	if len(list) == 0 {
		return nil
	}
	return s.locked(ctx, "store.upsert_coefficients", func() error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			stmt, err := tx.PreparexContext(ctx, `
				INSERT INTO warehouses_coefficients
					(date, coefficient, warehouse_id, warehouse_name, box_type_name, box_type_id)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(date, warehouse_id, box_type_name) DO UPDATE SET
					coefficient = excluded.coefficient`)
			if err != nil {
				return err
			}
			defer stmt.Close()
			for _, c := range list {
				var boxTypeID sql.NullInt64
				if c.BoxTypeID != nil {
					boxTypeID = sql.NullInt64{Int64: int64(*c.BoxTypeID), Valid: true}
				}
				if _, err := stmt.ExecContext(ctx,
					c.Date.Unix(), c.Coefficient, int64(c.WarehouseID),
					c.WarehouseName, c.BoxTypeName, boxTypeID,
				); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// UniqueBoxTypes lists the box types stored for a warehouse, ordered
// case-insensitively.
func (s *Store) UniqueBoxTypes(ctx context.Context, warehouseID uint32) ([]string, error) {
	var out []string
	err := s.locked(ctx, "store.box_types", func() error {
		return s.db.SelectContext(ctx, &out, `
			SELECT DISTINCT box_type_name FROM warehouses_coefficients
			WHERE warehouse_id = ?
			ORDER BY box_type_name COLLATE NOCASE`, int64(warehouseID))
	})
	return out, err
}

// DeleteExpired removes slots dated before now and reports how many went.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.locked(ctx, "store.delete_expired", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM warehouses_coefficients WHERE date < ?`, now.Unix())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
