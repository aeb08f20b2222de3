package model

import (
	"encoding/json"
	"testing"
)

func TestDecimalCoercion(t *testing.T) {
	tests := []struct {
		json string
		want string
	}{
		{`"12.50"`, "12.5"},
		{`12.5`, "12.5"},
		{`"7"`, "7"},
		{`""`, "0"},
		{`null`, "0"},
		{`"abc"`, "0"},
		{`true`, "0"},
		{`{"x":1}`, "0"},
		{`" 3.25 "`, "3.25"},
		{`-4`, "-4"},
	}

	for _, tt := range tests {
		var d Decimal
		if err := json.Unmarshal([]byte(tt.json), &d); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.json, err)
		}
		if got := d.String(); got != tt.want {
			t.Errorf("Unmarshal(%s) = %s, want %s", tt.json, got, tt.want)
		}
	}
}

func TestQuantityCoercion(t *testing.T) {
	tests := []struct {
		json string
		want Quantity
	}{
		{`"4"`, 4},
		{`10`, 10},
		{`"2.9"`, 2},
		{`"4 pcs"`, 4},
		{`""`, 0},
		{`null`, 0},
		{`"many"`, 0},
		{`"-1"`, -1},
	}

	for _, tt := range tests {
		var q Quantity
		if err := json.Unmarshal([]byte(tt.json), &q); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.json, err)
		}
		if q != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.json, q, tt.want)
		}
	}
}

func TestInventoryItemDecodesMixedPayload(t *testing.T) {
	payload := `[
		{"item_name":"Denim Jacket","category":"Outerwear","size":"M","condition":"Used","cost":"15.00","quantity":"3","description":""},
		{"item_name":"Sneakers","category":"Shoes","size":"42","condition":"New","cost":40,"quantity":1}
	]`

	var items []InventoryItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Cost.Fixed() != "15.00" || items[0].Quantity != 3 {
		t.Errorf("unexpected first item: cost=%s quantity=%d", items[0].Cost, items[0].Quantity)
	}
	if items[1].Cost.String() != "40" || items[1].Quantity != 1 {
		t.Errorf("unexpected second item: cost=%s quantity=%d", items[1].Cost, items[1].Quantity)
	}
}

func TestItemEncodesNumbersAsStrings(t *testing.T) {
	item := InventoryItem{Name: "Scarf", Cost: ParseDecimal("9.5"), Quantity: 2}
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["cost"] != "9.5" {
		t.Errorf("expected cost \"9.5\", got %v", raw["cost"])
	}
	if raw["quantity"] != "2" {
		t.Errorf("expected quantity \"2\", got %v", raw["quantity"])
	}
}

func TestOrderKeyAcceptsNumbers(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`{"order_id":7,"sales_price":"30","total_cost":"12.5"}`), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if o.ID != "7" {
		t.Errorf("expected ID 7, got %q", o.ID)
	}
	if got := o.Profit().String(); got != "17.5" {
		t.Errorf("expected profit 17.5, got %s", got)
	}
}

func TestNewOrderOmitsEmptyID(t *testing.T) {
	data, _ := json.Marshal(Order{BuyerName: "Pending"})
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if _, ok := raw["order_id"]; ok {
		t.Errorf("expected order_id to be omitted, got %v", raw["order_id"])
	}
}

func TestInventoryItemValidate(t *testing.T) {
	tests := []struct {
		item    InventoryItem
		wantErr bool
	}{
		{InventoryItem{Name: "Hat", Condition: ConditionNew, Quantity: 1}, false},
		{InventoryItem{Name: "Hat"}, false},
		{InventoryItem{Name: ""}, true},
		{InventoryItem{Name: "a/b"}, true},
		{InventoryItem{Name: "Hat", Condition: "Broken"}, true},
		{InventoryItem{Name: "Hat", Quantity: -1}, true},
		{InventoryItem{Name: "Hat", Cost: ParseDecimal("-2")}, true},
	}

	for _, tt := range tests {
		err := tt.item.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.item, err, tt.wantErr)
		}
	}
}

func TestStatusTone(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusPending, "warning"},
		{StatusShipped, "info"},
		{StatusDelivered, "success"},
		{"Lost", "default"},
	}

	for _, tt := range tests {
		if got := StatusTone(tt.status); got != tt.want {
			t.Errorf("StatusTone(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
