package totals

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
)

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func TestForItemNeverNegative(t *testing.T) {
	for _, q := range []float64{0, 1, 3, 250} {
		for _, r := range []float64{0, 0.5, 99.99, 1200} {
			for _, frac := range []float64{0, 0.25, 1} {
				for _, tax := range []float64{0, 5, 18, 28} {
					d := q * r * frac
					l := ForItem(draft.Item{Quantity: f(q), Rate: f(r), Discount: f(d), TaxPercent: f(tax)})
					taxable := math.Max(0, q*r-d)
					assert.InDelta(t, taxable, l.Taxable, 1e-6)
					assert.InDelta(t, taxable+taxable*tax/100, l.Total, 1e-6)
					assert.GreaterOrEqual(t, l.Total, 0.0)
				}
			}
		}
	}
}

func TestForItemClampsOverDiscount(t *testing.T) {
	l := ForItem(draft.Item{Quantity: "1", Rate: "100", Discount: "150", TaxPercent: "5"})
	assert.Equal(t, 0.0, l.Taxable)
	assert.Equal(t, 0.0, l.Total)
}

func TestComputeScenario(t *testing.T) {
	items := []draft.Item{{Quantity: "2", Rate: "1000", Discount: "100", TaxPercent: "5"}}

	got := Compute(items, "50", "0", nil)
	assert.Equal(t, 2000.0, got.SubTotal)
	assert.Equal(t, 1900.0, got.Taxable)
	assert.Equal(t, 95.0, got.TaxAmount)
	assert.Equal(t, 2045.0, got.Gross)
	assert.Equal(t, 0.0, got.RoundOff)
	assert.Equal(t, 2045.0, got.BillAmount)
	assert.Equal(t, 2045.0, got.Balance)

	got = Compute(items, "50", "0", []draft.Receipt{{Amount: 1000}})
	assert.Equal(t, 1045.0, got.Balance)
	assert.False(t, got.Settled())
}

func TestRoundOffReconciles(t *testing.T) {
	cases := []struct {
		name  string
		items []draft.Item
		other string
		settl string
	}{
		{"fractional tax", []draft.Item{{Quantity: "3", Rate: "333.33", TaxPercent: "18"}}, "0", "0"},
		{"half up", []draft.Item{{Quantity: "1", Rate: "100.5"}}, "", ""},
		{"settlement", []draft.Item{{Quantity: "7", Rate: "99.99", Discount: "12.34", TaxPercent: "12"}}, "10.2", "5.55"},
		{"empty", nil, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.items, tc.other, tc.settl, nil)
			assert.Less(t, math.Abs(got.RoundOff), 1.0)
			assert.InDelta(t, got.RoundOff, got.BillAmount-got.Gross, 1e-9)
			assert.Equal(t, math.Round(got.BillAmount), got.BillAmount)
		})
	}
	assert.Equal(t, 101.0, Compute([]draft.Item{{Quantity: "1", Rate: "100.5"}}, "", "", nil).BillAmount)
}

func TestBalanceMonotonic(t *testing.T) {
	items := []draft.Item{{Quantity: "10", Rate: "500"}}
	var receipts []draft.Receipt
	prev := Compute(items, "", "", receipts).Balance
	for _, amt := range []float64{1000, 250.5, 3000, 2000} {
		receipts = append(receipts, draft.Receipt{Amount: amt})
		cur := Compute(items, "", "", receipts).Balance
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0.0)
		prev = cur
	}
	require.Equal(t, 0.0, prev)
	assert.True(t, Compute(items, "", "", receipts).Settled())

	for len(receipts) > 0 {
		receipts = receipts[:len(receipts)-1]
		cur := Compute(items, "", "", receipts).Balance
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, 5000.0, prev)
}

func TestMalformedInputCountsAsZero(t *testing.T) {
	got := Compute([]draft.Item{{Quantity: "two", Rate: "1000"}, {Quantity: "1", Rate: "x"}}, "n/a", "??", nil)
	assert.Equal(t, Totals{}, got)
}

func TestComputeIsDeterministic(t *testing.T) {
	items := []draft.Item{{Quantity: "3", Rate: "0.1", TaxPercent: "18"}, {Quantity: "1", Rate: "0.2"}}
	a := Compute(items, "0.3", "", []draft.Receipt{{Amount: 0.1}})
	b := Compute(append([]draft.Item(nil), items...), "0.3", "", []draft.Receipt{{Amount: 0.1}})
	assert.Equal(t, a, b)
	assert.Equal(t, 0.5, a.SubTotal)
}
