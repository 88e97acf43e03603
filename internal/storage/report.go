package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wbcoef/wbcoef/internal/domain"
)

const noSlotsLine = "⛔️Нет доступных поставок"

// WarehouseReport renders the offered slots of one warehouse and box type,
// cheapest first. Slots with coefficient -1 are left out.
func (s *Store) WarehouseReport(ctx context.Context, warehouseID uint32, boxType string) (string, error) {
	var (
		name string
		rows []domain.ReportRow
	)
	err := s.locked(ctx, "store.warehouse_report", func() error {
		err := s.db.GetContext(ctx, &name, `SELECT name FROM warehouses WHERE id = ?`, int64(warehouseID))
		if errors.Is(err, sql.ErrNoRows) {
			// catalog not refreshed yet; the slots carry the name too
			err = s.db.GetContext(ctx, &name,
				`SELECT warehouse_name FROM warehouses_coefficients WHERE warehouse_id = ? LIMIT 1`, int64(warehouseID))
		}
		if err != nil {
			return err
		}
		return s.db.SelectContext(ctx, &rows, `
			SELECT date, coefficient FROM warehouses_coefficients
			WHERE warehouse_id = ? AND box_type_name = ? AND coefficient != ?
			ORDER BY coefficient, id`, int64(warehouseID), boxType, domain.NoSlot)
	})
	if err != nil {
		return "", err
	}
	return FormatReport(name, boxType, rows), nil
}

// FormatReport renders rows in the order given.
func FormatReport(warehouse, boxType string, rows []domain.ReportRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📍Склад: %s\n📦Тип поставки: %s\n\n", warehouse, boxType)
	for _, r := range rows {
		fmt.Fprintf(&b, "⌛️Дата: %s\n📈Коэффициент: %d\n\n", domain.FormatMoscow(r.Date), r.Coefficient)
	}
	if len(rows) == 0 {
		b.WriteString(noSlotsLine)
	}
	return b.String()
}
