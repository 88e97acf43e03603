package domain

import "time"

// NoUsername is stored for users without a Telegram username.
const NoUsername = "no_username"

// NoSlot is the coefficient value meaning the slot is not offered.
const NoSlot = -1

// User is a bot user, created on first /start and never deleted.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

// Warehouse is an acceptance facility from the marketplace catalog.
type Warehouse struct {
	ID   uint32 `db:"id" json:"ID"`
	Name string `db:"name" json:"name"`
}

// Coefficient is one acceptance slot: a warehouse, a box type and a date.
type Coefficient struct {
	Date          time.Time
	Coefficient   int
	WarehouseID   uint32
	WarehouseName string
	BoxTypeName   string
	BoxTypeID     *uint32
}

// ReportRow is a stored coefficient as rendered in a warehouse report.
type ReportRow struct {
	Date        int64 `db:"date"`
	Coefficient int   `db:"coefficient"`
}
