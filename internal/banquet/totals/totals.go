// Package totals derives bill figures from a draft. Every function here is
// pure: equal inputs always produce equal outputs.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
)

// Line holds the derived figures of one item.
type Line struct {
	Amount    float64 `json:"amount"`
	Discount  float64 `json:"discount"`
	Taxable   float64 `json:"taxable"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`
}

// Totals holds the derived figures of a whole bill.
type Totals struct {
	SubTotal           float64 `json:"sub_total"`
	TotalDiscount      float64 `json:"total_discount"`
	Taxable            float64 `json:"taxable"`
	TaxAmount          float64 `json:"tax_amount"`
	OtherCharges       float64 `json:"other_charges"`
	SettlementDiscount float64 `json:"settlement_discount"`
	Gross              float64 `json:"gross"`
	RoundOff           float64 `json:"round_off"`
	BillAmount         float64 `json:"bill_amount"`
	TotalReceived      float64 `json:"total_received"`
	Balance            float64 `json:"balance"`
}

// Settled reports whether no balance remains beyond the receipt tolerance.
func (t Totals) Settled() bool {
	return t.Balance <= money.Epsilon
}

type lineDec struct {
	amount, discount, taxable, tax, total decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func lineOf(it draft.Item) lineDec {
	amount := money.Dec(it.Quantity).Mul(money.Dec(it.Rate))
	discount := money.Dec(it.Discount)
	taxable := decimal.Max(decimal.Zero, amount.Sub(discount))
	tax := taxable.Mul(money.Dec(it.TaxPercent)).Div(hundred)
	return lineDec{
		amount:   amount,
		discount: discount,
		taxable:  taxable,
		tax:      tax,
		total:    taxable.Add(tax),
	}
}

// ForItem derives the figures of a single item.
func ForItem(it draft.Item) Line {
	l := lineOf(it)
	return Line{
		Amount:    l.amount.InexactFloat64(),
		Discount:  l.discount.InexactFloat64(),
		Taxable:   l.taxable.InexactFloat64(),
		TaxAmount: l.tax.InexactFloat64(),
		Total:     l.total.InexactFloat64(),
	}
}

// Compute derives the bill figures. Malformed numeric input counts as zero.
func Compute(items []draft.Item, otherCharges, settlementDiscount string, receipts []draft.Receipt) Totals {
	var sub, disc, tax decimal.Decimal
	for _, it := range items {
		l := lineOf(it)
		sub = sub.Add(l.amount)
		disc = disc.Add(l.discount)
		tax = tax.Add(l.tax)
	}
	other := money.Dec(otherCharges)
	settlement := money.Dec(settlementDiscount)

	taxable := sub.Sub(disc)
	gross := taxable.Add(tax).Add(other).Sub(settlement)
	bill := gross.Round(0)
	roundOff := bill.Sub(gross)

	var received decimal.Decimal
	for _, r := range receipts {
		received = received.Add(decimal.NewFromFloat(r.Amount))
	}
	balance := decimal.Max(decimal.Zero, bill.Sub(received))

	return Totals{
		SubTotal:           sub.InexactFloat64(),
		TotalDiscount:      disc.InexactFloat64(),
		Taxable:            taxable.InexactFloat64(),
		TaxAmount:          tax.InexactFloat64(),
		OtherCharges:       other.InexactFloat64(),
		SettlementDiscount: settlement.InexactFloat64(),
		Gross:              gross.InexactFloat64(),
		RoundOff:           roundOff.InexactFloat64(),
		BillAmount:         bill.InexactFloat64(),
		TotalReceived:      received.InexactFloat64(),
		Balance:            balance.InexactFloat64(),
	}
}

// ForBooking is Compute over a booking's own fields.
func ForBooking(b draft.Booking, receipts []draft.Receipt) Totals {
	return Compute(b.Items, b.OtherCharges, b.SettlementDiscount, receipts)
}
