package callbackdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		data string
		want Payload
	}{
		{"main_menu", Payload{Kind: KindMainMenu}},
		{"token_lifetime_callback", Payload{Kind: KindTokenLifetime}},
		{"warehouses_list_callback", Payload{Kind: KindWarehousesList}},
		{"another_warehouse_callback", Payload{Kind: KindAnotherWarehouse}},
		{"another_box_type_callback:507", Payload{Kind: KindAnotherBoxType, WarehouseID: 507}},
		{"another_box_type_callback: 507", Payload{Kind: KindAnotherBoxType, WarehouseID: 507}},
		{"w_page:3", Payload{Kind: KindWarehousePage, Page: 3}},
		{"w_page:x", Payload{Kind: KindWarehousePage}},
		{"p_page:1", Payload{Kind: KindPhonePage, Page: 1}},
		{"whid:117986", Payload{Kind: KindWarehouse, WarehouseID: 117986}},
		{"whid:-4", Payload{Kind: KindWarehouse}},
		{"boxtype:Короб whid:507", Payload{Kind: KindBoxType, BoxType: "Короб", WarehouseID: 507}},
		{"boxtype:QR-поставка с коробами whid:507", Payload{Kind: KindBoxType, BoxType: QRBoxType, WarehouseID: 507}},
		{"boxtype:Монопаллета whid:abc", Payload{Kind: KindBoxType, BoxType: "Монопаллета"}},
		{"boxtype: whid:1", Payload{Kind: KindUnknown, WarehouseID: 1}},
		{"phone:9001112233", Payload{Kind: KindPhone, Phone: "9001112233"}},
		{"bogus", Payload{Kind: KindUnknown}},
	}
	for _, tc := range cases {
		tc.want.Raw = tc.data
		assert.Equal(t, tc.want, Parse(tc.data), tc.data)
	}
}

func TestStringIsWireExact(t *testing.T) {
	for _, data := range []string{
		"main_menu",
		"token_lifetime_callback",
		"warehouses_list_callback",
		"another_warehouse_callback",
		"another_box_type_callback:507",
		"w_page:0",
		"p_page:12",
		"whid:117986",
		"boxtype:Короб whid:507",
		"phone:9001112233",
		"something else",
	} {
		assert.Equal(t, data, Parse(data).String())
	}
}

func TestQRBoxTypeSurvivesRoundTrip(t *testing.T) {
	wire := BoxType(QRBoxType, 507)
	assert.Equal(t, "boxtype:QR-поставка с коробами whid:507", wire)
	p := Parse(wire)
	assert.Equal(t, QRBoxType, p.BoxType)
	assert.Equal(t, uint32(507), p.WarehouseID)
}
