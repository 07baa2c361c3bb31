package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/totals"
)

func TestRequestBuildersShapePayload(t *testing.T) {
	b := completeBooking()
	b.Items[0].PackageID = "P1"
	b.Items[0].SelectMenu(draft.Menu{CategoryID: "c2", CategoryName: "Main", MenuID: "m5", MenuName: "Dal"})
	b.Items[0].SelectMenu(draft.Menu{CategoryID: "c1", CategoryName: "Starter", MenuID: "m1", MenuName: "Tikka"})
	id := Identity{HotelID: "7", LoginID: "42"}

	p := SaveDraft{}.Build(id, b)
	assert.Equal(t, remote.FlagQuotation, p.InvoiceFlag)
	assert.Equal(t, "0", p.BillID)
	assert.Equal(t, "11", p.PartyID)
	assert.Empty(t, p.CompanyID)
	assert.Equal(t, "Sharma Traders", p.CompanyName)
	assert.InDelta(t, 2000, p.SubTotal, 1e-9)
	assert.InDelta(t, 1900, p.Taxable, 1e-9)
	assert.InDelta(t, 95, p.TaxAmount, 1e-9)
	assert.InDelta(t, 0, p.RoundOff, 1e-9)
	assert.InDelta(t, 2045, p.BillAmount, 1e-9)

	require.Len(t, p.Events, 1)
	ev := p.Events[0]
	assert.Equal(t, "Crystal Hall", ev.VenueName)
	require.Len(t, ev.MenuItems, 1)
	line := ev.MenuItems[0]
	assert.InDelta(t, 2, line.Quantity, 1e-9)
	assert.InDelta(t, 2000, line.Amount, 1e-9)
	assert.InDelta(t, 1995, line.Total, 1e-9)

	require.Len(t, ev.EventMenus, 2)
	assert.Equal(t, "c1", ev.EventMenus[0].CategoryID)
	assert.Equal(t, "c2", ev.EventMenus[1].CategoryID)
	for _, m := range ev.EventMenus {
		assert.Equal(t, 0, m.ItemIndex)
		assert.Equal(t, "P1", m.PackageID)
		assert.Zero(t, m.CGST+m.SGST+m.IGST+m.TaxAmount)
	}

	inv := CreateInvoice{QuotationID: "Q1"}.Build(id, b)
	assert.Equal(t, remote.FlagInvoice, inv.InvoiceFlag)
	assert.Equal(t, "0", inv.BillID)
	assert.Equal(t, "Q1", inv.QuotationID)

	mod := ModifyInvoice{QuotationID: "Q1", BillID: "B1"}.Build(id, b)
	assert.Equal(t, remote.FlagInvoice, mod.InvoiceFlag)
	assert.Equal(t, "B1", mod.BillID)
	assert.Equal(t, ActionInvoice, ModifyInvoice{}.Action())
	assert.Equal(t, ActionSave, SaveDraft{}.Action())
}

func TestSubmittedBookingHydratesBack(t *testing.T) {
	b := completeBooking()
	b.Items[0].PackageID = "P1"
	b.Items[0].SelectMenu(draft.Menu{CategoryID: "c1", CategoryName: "Starter", MenuID: "m1", MenuName: "Tikka"})
	b.Items[0].SelectMenu(draft.Menu{CategoryID: "c2", CategoryName: "Main", MenuID: "m5", MenuName: "Dal"})
	b.Items = append(b.Items, draft.Item{Date: "2026-03-01", Name: "Tea", Unit: "cup", Quantity: "10", Rate: "20.5", Discount: "0", TaxPercent: "0"})

	payload := SaveDraft{QuotationID: "Q5"}.Build(Identity{HotelID: "7", LoginID: "42"}, b)
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Q5", r.URL.Query().Get("quotation_id"))
		_, _ = w.Write([]byte(`{"status":"success","data":` + string(data) + `}`))
	}))
	t.Cleanup(srv.Close)
	client := remote.NewClient(remote.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)

	q, err := client.FetchQuotation(context.Background(), "Q5", "7")
	require.NoError(t, err)

	got := q.Booking
	assert.Equal(t, "Q5", q.QuotationID)
	assert.Equal(t, b.Entry, got.Entry)
	assert.Equal(t, b.From, got.From)
	assert.Equal(t, b.To, got.To)
	assert.Equal(t, b.Customer, got.Customer)
	assert.Equal(t, b.Event, got.Event)
	assert.Equal(t, b.Items, got.Items)
	assert.Equal(t, b.Items[0].SelectedMenus, got.Items[0].SelectedMenus)
	assert.Equal(t, totals.ForBooking(b, nil), totals.ForBooking(got, nil))
}
