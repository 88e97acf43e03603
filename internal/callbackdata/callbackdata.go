// Package callbackdata parses and prints inline button payloads. The wire
// strings are embedded in keyboards already sent to users and must stay
// byte for byte the same.
package callbackdata

import (
	"strconv"
	"strings"
)

// Fixed payloads and prefixes.
const (
	MainMenu         = "main_menu"
	TokenLifetime    = "token_lifetime_callback"
	WarehousesList   = "warehouses_list_callback"
	AnotherWarehouse = "another_warehouse_callback"

	AnotherBoxTypePrefix = "another_box_type_callback:"
	WarehousePagePrefix  = "w_page:"
	PhonePagePrefix      = "p_page:"
	WarehousePrefix      = "whid:"
	BoxTypePrefix        = "boxtype:"
	PhonePrefix          = "phone:"
)

// QRBoxType is the full name of the box type whose payload is cut at the
// first space.
const (
	QRBoxType      = "QR-поставка с коробами"
	qrBoxTypeShort = "QR-поставка"
)

// Kind tags a Payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindMainMenu
	KindTokenLifetime
	KindWarehousesList
	KindAnotherWarehouse
	KindAnotherBoxType
	KindWarehousePage
	KindPhonePage
	KindWarehouse
	KindBoxType
	KindPhone
)

// Payload is a decoded callback. Only the fields of its Kind are set;
// Raw keeps the original data.
type Payload struct {
	Kind        Kind
	Page        int
	WarehouseID uint32
	BoxType     string
	Phone       string
	Raw         string
}

// Parse decodes data. Numbers that fail to parse read as zero.
func Parse(data string) Payload {
	p := Payload{Raw: data}
	switch data {
	case MainMenu:
		p.Kind = KindMainMenu
		return p
	case TokenLifetime:
		p.Kind = KindTokenLifetime
		return p
	case WarehousesList:
		p.Kind = KindWarehousesList
		return p
	case AnotherWarehouse:
		p.Kind = KindAnotherWarehouse
		return p
	}

	switch {
	case strings.HasPrefix(data, AnotherBoxTypePrefix):
		p.Kind = KindAnotherBoxType
		p.WarehouseID = parseID(strings.TrimSpace(data[len(AnotherBoxTypePrefix):]))
	case strings.HasPrefix(data, WarehousePagePrefix):
		p.Kind = KindWarehousePage
		p.Page = parsePage(data[len(WarehousePagePrefix):])
	case strings.HasPrefix(data, PhonePagePrefix):
		p.Kind = KindPhonePage
		p.Page = parsePage(data[len(PhonePagePrefix):])
	case strings.HasPrefix(data, WarehousePrefix):
		p.Kind = KindWarehouse
		p.WarehouseID = parseID(data[len(WarehousePrefix):])
	case strings.HasPrefix(data, BoxTypePrefix):
		p.BoxType, p.WarehouseID = parseBoxType(data)
		if p.BoxType != "" {
			p.Kind = KindBoxType
		}
	case strings.HasPrefix(data, PhonePrefix):
		p.Kind = KindPhone
		p.Phone = data[len(PhonePrefix):]
	}
	return p
}

// parseBoxType reads "boxtype:<type> whid:<id>". The type is only the
// first word, so multi-word names other than the QR one come back cut.
func parseBoxType(data string) (string, uint32) {
	var (
		boxType string
		whid    uint32
	)
	for _, field := range strings.Fields(data) {
		switch {
		case strings.HasPrefix(field, BoxTypePrefix):
			boxType = strings.TrimPrefix(field, BoxTypePrefix)
			if boxType == qrBoxTypeShort {
				boxType = QRBoxType
			}
		case strings.HasPrefix(field, WarehousePrefix):
			whid = parseID(field[len(WarehousePrefix):])
		}
	}
	return boxType, whid
}

func parseID(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func parsePage(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// String prints p in wire form. Unknown payloads print Raw.
func (p Payload) String() string {
	switch p.Kind {
	case KindMainMenu:
		return MainMenu
	case KindTokenLifetime:
		return TokenLifetime
	case KindWarehousesList:
		return WarehousesList
	case KindAnotherWarehouse:
		return AnotherWarehouse
	case KindAnotherBoxType:
		return AnotherBoxType(p.WarehouseID)
	case KindWarehousePage:
		return WarehousePage(p.Page)
	case KindPhonePage:
		return PhonePage(p.Page)
	case KindWarehouse:
		return Warehouse(p.WarehouseID)
	case KindBoxType:
		return BoxType(p.BoxType, p.WarehouseID)
	case KindPhone:
		return Phone(p.Phone)
	}
	return p.Raw
}

// AnotherBoxType is the "pick another box type" button of a warehouse.
func AnotherBoxType(warehouseID uint32) string {
	return AnotherBoxTypePrefix + strconv.FormatUint(uint64(warehouseID), 10)
}

// WarehousePage opens page of the warehouse list.
func WarehousePage(page int) string { return WarehousePagePrefix + strconv.Itoa(page) }

// PhonePage opens page of the phone-profile list.
func PhonePage(page int) string { return PhonePagePrefix + strconv.Itoa(page) }

// Warehouse selects the warehouse with id.
func Warehouse(id uint32) string { return WarehousePrefix + strconv.FormatUint(uint64(id), 10) }

// BoxType selects boxType at a warehouse. The type name comes first and may
// contain spaces, the warehouse part is always last.
func BoxType(boxType string, warehouseID uint32) string {
	return BoxTypePrefix + boxType + " " + Warehouse(warehouseID)
}

// Phone selects a phone profile.
func Phone(phone string) string { return PhonePrefix + phone }
