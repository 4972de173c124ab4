package draft

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"order-service/internal/catalog"

	"github.com/shopspring/decimal"
)

func testHeader() Header {
	return Header{
		OrderNumber:    "SO-0001",
		CounterpartyID: 7,
		EffectiveDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildPayloadDropsDisplayFields(t *testing.T) {
	snap := testSnapshot()
	d := New(Sale)
	d.Header = testHeader()
	if _, _, err := d.AddOrMerge(snap, 1, 11, 2, decimal.Zero); err != nil {
		t.Fatalf("add: %v", err)
	}

	payload, err := BuildPayload(d, snap)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, display := range []string{"Rice", "P-001", "Box"} {
		if strings.Contains(string(raw), display) {
			t.Fatalf("payload leaks display field %q: %s", display, raw)
		}
	}
}

func TestBuildPayloadSaleOmitsUnitPrice(t *testing.T) {
	snap := testSnapshot()
	d := New(Sale)
	d.Header = testHeader()
	d.AddOrMerge(snap, 1, 10, 2, decimal.Zero)

	payload, err := BuildPayload(d, snap)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if payload.Lines[0].UnitPrice != nil {
		t.Fatalf("sale payload must not carry a unit price")
	}

	raw, _ := json.Marshal(payload)
	if strings.Contains(string(raw), "unit_price") {
		t.Fatalf("serialized sale payload must omit unit_price: %s", raw)
	}
}

func TestBuildPayloadPurchaseKeepsUnitPrice(t *testing.T) {
	snap := testSnapshot()
	d := New(Purchase)
	d.Header = testHeader()
	d.AddOrMerge(snap, 1, 11, 5, dec(1000))

	payload, err := BuildPayload(d, snap)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if payload.Lines[0].UnitPrice == nil || !payload.Lines[0].UnitPrice.Equal(dec(1000)) {
		t.Fatalf("purchase payload must carry the entered unit price")
	}
}

func TestBuildPayloadRefusesEmptyDraft(t *testing.T) {
	snap := testSnapshot()
	d := New(Sale)
	d.Header = testHeader()

	if _, err := BuildPayload(d, snap); err == nil {
		t.Fatalf("expected refusal for a draft with no lines")
	}
}

func TestBuildPayloadRequiresHeaderFields(t *testing.T) {
	snap := testSnapshot()

	cases := []struct {
		name   string
		header Header
	}{
		{"missing order number", Header{CounterpartyID: 7, EffectiveDate: time.Now()}},
		{"missing counterparty", Header{OrderNumber: "SO-1", EffectiveDate: time.Now()}},
		{"missing effective date", Header{OrderNumber: "SO-1", CounterpartyID: 7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(Sale)
			d.Header = tc.header
			d.AddOrMerge(snap, 1, 10, 1, decimal.Zero)
			if _, err := BuildPayload(d, snap); err == nil {
				t.Fatalf("expected refusal")
			}
		})
	}
}

func TestBuildPayloadRevalidatesAgainstFreshStock(t *testing.T) {
	snap := testSnapshot()
	d := New(Sale)
	d.Header = testHeader()
	if _, _, err := d.AddOrMerge(snap, 1, 11, 2, decimal.Zero); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Stock shrank to 4 base units since the line was added: 2 boxes of 4
	// no longer fit.
	fresh := catalog.NewSnapshot(
		[]catalog.Product{
			{ID: 1, Name: "Rice", Code: "P-001", UnitPrice: dec(250), StockBaseUnits: dec(4)},
		},
		[]catalog.Presentation{
			{ID: 11, ProductID: 1, Name: "Box", Factor: dec(4)},
		},
	)

	if _, err := BuildPayload(d, fresh); err == nil {
		t.Fatalf("expected stale-stock line to be refused at build time")
	}

	// With the original stock the build still passes.
	if _, err := BuildPayload(d, snap); err != nil {
		t.Fatalf("build against original stock: %v", err)
	}
}
