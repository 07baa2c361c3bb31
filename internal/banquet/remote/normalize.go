package remote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
)

// Kind selects a catalog searched by the picker screens.
type Kind string

// Catalog kinds.
const (
	KindParty    Kind = "party"
	KindCompany  Kind = "company"
	KindFunction Kind = "function"
	KindVenue    Kind = "venue"
	KindServing  Kind = "serving"
	KindItem     Kind = "item"
	KindMenu     Kind = "menu"
)

// ParseKind validates a catalog kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindParty, KindCompany, KindFunction, KindVenue, KindServing, KindItem, KindMenu:
		return k, true
	}
	return "", false
}

// Record is one loosely shaped object returned by the booking service.
type Record map[string]any

// Str returns the first non-empty value among keys as a string.
func (r Record) Str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			s = strings.TrimSpace(fmt.Sprint(t))
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Num returns the first present value among keys coerced to a number.
func (r Record) Num(keys ...string) float64 {
	return money.Num(r.Str(keys...))
}

// Records returns the first list of objects found among keys.
func (r Record) Records(keys ...string) []Record {
	for _, k := range keys {
		if list := asRecords(r[k]); len(list) > 0 {
			return list
		}
	}
	return nil
}

func asRecords(v any) []Record {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

var (
	commonIDKeys   = []string{"id", "Id", "ID", "LedgerId", "ledger_id", "LedgerID"}
	commonNameKeys = []string{"LedgerName", "ledger_name", "Name", "name", "label", "text"}

	idKeys = map[Kind][]string{
		KindParty:    {"PartyId", "party_id", "partyId", "LedgerId", "ledger_id"},
		KindCompany:  {"CompanyId", "company_id", "companyId"},
		KindFunction: {"FunctionId", "function_id", "functionId"},
		KindVenue:    {"VenueId", "venue_id", "venueId"},
		KindServing:  {"ServingId", "serving_id", "servingId"},
		KindItem:     {"ItemId", "item_id", "PackageId", "package_id"},
		KindMenu:     {"MenuId", "menu_id", "menuId"},
	}
	nameKeys = map[Kind][]string{
		KindParty:    {"PartyName", "party_name", "partyName", "LedgerName", "ledger_name"},
		KindCompany:  {"CompanyName", "company_name", "companyName"},
		KindFunction: {"FunctionName", "function_name", "functionName"},
		KindVenue:    {"VenueName", "venue_name", "venueName"},
		KindServing:  {"ServingName", "serving_name", "servingName"},
		KindItem:     {"ItemName", "item_name", "PackageName", "package_name"},
		KindMenu:     {"MenuName", "menu_name", "menuName"},
	}
)

// NormalizeRef maps any catalog record shape to an id/name pair. A record
// without a recognizable id degrades to a name-only reference.
func NormalizeRef(kind Kind, rec Record) draft.Ref {
	id := rec.Str(append(idKeys[kind], commonIDKeys...)...)
	if id == "0" {
		id = ""
	}
	return draft.Ref{
		ID:   id,
		Name: rec.Str(append(nameKeys[kind], commonNameKeys...)...),
	}
}

// NormalizeRefs maps a list of catalog records, dropping entries with
// neither id nor name.
func NormalizeRefs(kind Kind, recs []Record) []draft.Ref {
	out := make([]draft.Ref, 0, len(recs))
	for _, rec := range recs {
		ref := NormalizeRef(kind, rec)
		if ref.ID == "" && ref.Name == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// NormalizeReceipt maps a receipt record.
func NormalizeReceipt(rec Record) draft.Receipt {
	return draft.Receipt{
		VoucherID: rec.Str("VoucherId", "voucher_id", "voucherId", "VoucherID", "id"),
		Amount:    rec.Num("Amount", "amount", "receipt_amount"),
		Discount:  rec.Num("Discount", "discount"),
		TDS:       rec.Num("TDS", "Tds", "tds"),
		Date:      rec.Str("VoucherDate", "voucher_date", "Date", "date", "receipt_date"),
		PayMode:   rec.Str("PayModeName", "paymode_name", "PayMode", "paymode", "pay_mode"),
		Account:   rec.Str("AccountName", "account_name", "Account", "account"),
		Note:      rec.Str("Narration", "narration", "Note", "note"),
	}
}

// Quotation is a booking fetched from the service in canonical form.
type Quotation struct {
	QuotationID string
	BillID      string
	Booking     draft.Booking
	Receipts    []draft.Receipt
}

// Invoiced reports whether the quotation has been promoted to an invoice.
func (q Quotation) Invoiced() bool {
	return q.BillID != "" && q.BillID != "0"
}

// NormalizeQuotation maps a quotation detail document. Event fields come from
// the first event block; item lines are gathered from every block in order.
func NormalizeQuotation(doc Record) (*Quotation, error) {
	header := doc
	if h, ok := doc["header"].(map[string]any); ok {
		header = Record(h)
	}
	events := doc.Records("events", "event_details", "Events")
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: quotation has no event block", ErrMalformed)
	}
	first := events[0]

	q := &Quotation{
		QuotationID: header.Str("QuotationId", "quotation_id", "quotationId", "id"),
		BillID:      header.Str("BillId", "bill_id", "billId", "invoice_id"),
	}
	if q.BillID == "0" {
		q.BillID = ""
	}

	b := draft.Booking{
		Entry:            datetime.Moment{Date: header.Str("entry_date", "EntryDate"), Time: header.Str("entry_time", "EntryTime")},
		From:             moment(first, header, "from"),
		To:               moment(first, header, "to"),
		BillingCompanyID: header.Str("billing_company_id", "BillingCompanyId"),
		StatusID:         header.Str("status_id", "StatusId", "status"),
		AttendedBy:       header.Str("attended_by", "AttendedBy"),
		Customer: draft.Customer{
			Party:    entityRef(KindParty, header),
			Company:  entityRef(KindCompany, header),
			Function: entityRef(KindFunction, header),
			Phone:    header.Str("phone", "mobile", "Phone"),
			Email:    header.Str("email", "Email"),
		},
		Event: draft.Event{
			Venue:          entityRef(KindVenue, first),
			Serving:        entityRef(KindServing, first),
			ServingAddress: first.Str("serving_address", "ServingAddress"),
			MinPeople:      first.Str("min_pax", "min_people", "MinPax"),
			MaxPeople:      first.Str("max_pax", "max_people", "MaxPax"),
		},
		OtherCharges:       header.Str("other_charges", "OtherCharges"),
		SettlementDiscount: header.Str("settlement_discount", "SettlementDiscount"),
	}
	for _, ev := range events {
		b.Items = append(b.Items, normalizeItems(ev)...)
	}
	q.Booking = b

	for _, rec := range doc.Records("receipts", "receipt_details", "Receipts") {
		q.Receipts = append(q.Receipts, NormalizeReceipt(rec))
	}
	return q, nil
}

func moment(event, header Record, prefix string) datetime.Moment {
	date := event.Str(prefix+"_date", "booking_"+prefix+"_date")
	clock := event.Str(prefix+"_time", "booking_"+prefix+"_time")
	if date == "" {
		date = header.Str("booking_"+prefix+"_date", prefix+"_date")
	}
	if clock == "" {
		clock = header.Str("booking_"+prefix+"_time", prefix+"_time")
	}
	return datetime.Moment{Date: date, Time: clock}
}

// entityRef reads a reference embedded in a larger document using only the
// kind's own keys, so generic keys like "id" do not leak between entities.
func entityRef(kind Kind, rec Record) draft.Ref {
	id := rec.Str(idKeys[kind]...)
	if id == "0" {
		id = ""
	}
	return draft.Ref{ID: id, Name: rec.Str(nameKeys[kind]...)}
}

func normalizeItems(event Record) []draft.Item {
	lines := event.Records("menu_itms_arr", "items", "MenuItems")
	items := make([]draft.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, draft.Item{
			Date:       l.Str("date", "item_date", "Date"),
			Name:       l.Str("name", "item_name", "ItemName"),
			Unit:       l.Str("unit", "Unit"),
			Quantity:   l.Str("quantity", "qty", "Quantity"),
			Rate:       l.Str("rate", "Rate"),
			Discount:   l.Str("discount", "Discount"),
			TaxPercent: l.Str("tax_percent", "tax_per", "TaxPer"),
			TaxName:    l.Str("tax_name", "TaxName"),
			Note:       l.Str("note", "Note"),
			PackageID:  l.Str("package_id", "PackageId"),
		})
	}
	menus := event.Records("event_menus", "EventMenus")
	sort.SliceStable(menus, func(i, j int) bool {
		return menus[i].Num("item_index") < menus[j].Num("item_index")
	})
	for _, m := range menus {
		idx := indexFor(items, m)
		if idx < 0 {
			continue
		}
		items[idx].SelectMenu(draft.Menu{
			CategoryID:   m.Str("category_id", "CategoryId"),
			CategoryName: m.Str("category_name", "CategoryName"),
			MenuID:       m.Str("menu_id", "MenuId"),
			MenuName:     m.Str("menu_name", "MenuName"),
		})
	}
	return items
}

func indexFor(items []draft.Item, menu Record) int {
	if raw := menu.Str("item_index"); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil && i >= 0 && i < len(items) {
			return i
		}
	}
	name := menu.Str("item_name")
	for i, it := range items {
		if name != "" && it.Name == name {
			return i
		}
	}
	return -1
}
