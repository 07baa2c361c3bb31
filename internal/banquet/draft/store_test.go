package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
)

func countingStore(t *testing.T) (*Store, *int) {
	t.Helper()
	s := NewStore()
	calls := 0
	s.Subscribe(func(State) { calls++ })
	return s, &calls
}

func TestUpdateNoOpDoesNotNotify(t *testing.T) {
	s, calls := countingStore(t)

	require.True(t, s.Update(func(b *Booking) { b.AttendedBy = "Ravi" }))
	require.Equal(t, 1, *calls)
	version := s.Version()

	changed := s.Update(func(b *Booking) { b.AttendedBy = "Ravi" })
	assert.False(t, changed)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, version, s.Version())

	changed = s.Update(func(b *Booking) {})
	assert.False(t, changed)
	assert.Equal(t, 1, *calls)
}

func TestFromDateCascadesToEnd(t *testing.T) {
	s := NewStore()
	s.SetFrom(datetime.Moment{Date: "2026-03-01", Time: "10:00"})
	s.SetTo(datetime.Moment{Date: "2026-03-02", Time: "09:00"})

	s.SetFromDate("2026-03-05")

	b := s.Draft()
	assert.Equal(t, "2026-03-05", b.From.Date)
	assert.Equal(t, datetime.Moment{Date: "2026-03-05", Time: "10:00"}, b.To)
}

func TestFromTimeCascadesOnSameDay(t *testing.T) {
	s := NewStore()
	s.SetFrom(datetime.Moment{Date: "2026-03-01", Time: "10:00"})
	s.SetTo(datetime.Moment{Date: "2026-03-01", Time: "12:00"})

	s.SetFromTime("13:30")

	assert.Equal(t, "13:30", s.Draft().To.Time)
}

func TestEditingEndNeverMovesStart(t *testing.T) {
	s := NewStore()
	s.SetFrom(datetime.Moment{Date: "2026-03-05", Time: "10:00"})

	s.SetTo(datetime.Moment{Date: "2026-03-01", Time: "08:00"})

	b := s.Draft()
	assert.Equal(t, datetime.Moment{Date: "2026-03-05", Time: "10:00"}, b.From)
	assert.Equal(t, datetime.Moment{Date: "2026-03-01", Time: "08:00"}, b.To)
	assert.False(t, datetime.RangeValid(b.From, b.To))
}

func TestItemDateTracksStartUntilEdited(t *testing.T) {
	s := NewStore()
	s.SetFromDate("2026-04-01")
	require.NoError(t, s.BeginItem(NewItemIndex))

	it, idx := s.CurrentItem()
	assert.Equal(t, NewItemIndex, idx)
	assert.Equal(t, "2026-04-01", it.Date)

	s.SetFromDate("2026-04-03")
	it, _ = s.CurrentItem()
	assert.Equal(t, "2026-04-03", it.Date)

	s.UpdateCurrentItem(func(it *Item) { it.Date = "2026-04-10" })
	s.SetFromDate("2026-04-04")
	it, _ = s.CurrentItem()
	assert.Equal(t, "2026-04-10", it.Date, "sticky override stops tracking")

	s.UpdateCurrentItem(func(it *Item) { it.Date = "2026-04-04" })
	s.SetFromDate("2026-04-06")
	it, _ = s.CurrentItem()
	assert.Equal(t, "2026-04-04", it.Date, "override is one-way")
}

func TestFirstItemDateTracksStart(t *testing.T) {
	s := NewStore()
	s.SetFromDate("2026-04-01")
	require.NoError(t, s.AddOrReplaceItem(NewItemIndex, Item{Name: "Veg Buffet", Date: "2026-04-01"}))
	require.NoError(t, s.AddOrReplaceItem(NewItemIndex, Item{Name: "DJ", Date: "2026-04-02"}))

	s.SetFromDate("2026-04-08")

	items := s.Draft().Items
	assert.Equal(t, "2026-04-08", items[0].Date)
	assert.Equal(t, "2026-04-02", items[1].Date)
}

func TestItemWorkflow(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BeginItem(NewItemIndex))
	s.UpdateCurrentItem(func(it *Item) {
		it.Name = "Veg Buffet"
		it.Quantity = "100"
		it.Rate = "450"
		it.SelectMenu(Menu{CategoryID: "soup", MenuID: "7", MenuName: "Tomato"})
		it.SelectMenu(Menu{CategoryID: "soup", MenuID: "8", MenuName: "Sweet Corn"})
	})
	idx, err := s.CommitCurrentItem()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	items := s.Draft().Items
	require.Len(t, items, 1)
	require.Len(t, items[0].SelectedMenus, 1, "one menu per category")
	assert.Equal(t, "Sweet Corn", items[0].SelectedMenus["soup"].MenuName)

	require.NoError(t, s.BeginItem(0))
	s.UpdateCurrentItem(func(it *Item) { it.Rate = "500" })
	idx, err = s.CommitCurrentItem()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "500", s.Draft().Items[0].Rate)

	_, cur := s.CurrentItem()
	assert.Equal(t, NewItemIndex, cur)
}

func TestReadsAreCopies(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddOrReplaceItem(NewItemIndex, Item{Name: "Hall"}))

	b := s.Draft()
	b.Items[0].Name = "changed"
	assert.Equal(t, "Hall", s.Draft().Items[0].Name)
}

func TestRemoveItem(t *testing.T) {
	s := NewStore()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddOrReplaceItem(NewItemIndex, Item{Name: n}))
	}
	require.NoError(t, s.BeginItem(2))

	require.NoError(t, s.RemoveItem(0))
	items := s.Draft().Items
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Name)
	_, cur := s.CurrentItem()
	assert.Equal(t, 1, cur, "composer follows its item down")

	assert.ErrorIs(t, s.RemoveItem(5), ErrItemIndex)
	assert.ErrorIs(t, s.AddOrReplaceItem(9, Item{}), ErrItemIndex)
	assert.ErrorIs(t, s.BeginItem(9), ErrItemIndex)
}

func TestHydrateKeepsReceiptsAndIsClean(t *testing.T) {
	s := NewStore()
	s.SetReceipts([]Receipt{{VoucherID: "V1", Amount: 500}})
	s.Update(func(b *Booking) { b.AttendedBy = "stale" })

	s.Hydrate(Booking{AttendedBy: "Meena", Items: []Item{{Name: "Hall"}}})

	assert.Equal(t, "Meena", s.Draft().AttendedBy)
	assert.Len(t, s.Receipts(), 1)
	assert.False(t, s.Dirty())

	s.Update(func(b *Booking) { b.AttendedBy = "Arun" })
	assert.True(t, s.Dirty())
	s.MarkSaved()
	assert.False(t, s.Dirty())
}

func TestResetReceipts(t *testing.T) {
	s := NewStore()
	s.SetReceipts([]Receipt{{VoucherID: "V1"}})
	s.Update(func(b *Booking) { b.StatusID = "2" })

	s.Reset(true)
	assert.Equal(t, Booking{}, s.Draft())
	assert.Len(t, s.Receipts(), 1)

	s.Reset(false)
	assert.Empty(t, s.Receipts())
}

func TestRemoveReceipt(t *testing.T) {
	s := NewStore()
	s.SetReceipts([]Receipt{{VoucherID: "V1"}, {VoucherID: "V2"}})

	assert.True(t, s.RemoveReceipt("V1"))
	assert.False(t, s.RemoveReceipt("V1"))
	assert.Equal(t, []Receipt{{VoucherID: "V2"}}, s.Receipts())
}

func TestRestoreDoesNotNotify(t *testing.T) {
	s, calls := countingStore(t)
	s.Restore(State{Booking: Booking{AttendedBy: "Asha"}, CurrentIndex: NewItemIndex})

	assert.Equal(t, 0, *calls)
	assert.Equal(t, "Asha", s.Draft().AttendedBy)
	assert.False(t, s.Dirty())
}

func TestRestoreKeepsUnsavedEditsDirty(t *testing.T) {
	s := NewStore()
	s.Hydrate(Booking{AttendedBy: "Ravi"})
	s.Update(func(b *Booking) { b.AttendedBy = "Meera" })
	st := s.State()
	require.NotNil(t, st.Baseline)
	assert.Equal(t, "Ravi", st.Baseline.AttendedBy)

	back := NewStore()
	back.Restore(st)
	assert.Equal(t, "Meera", back.Draft().AttendedBy)
	assert.True(t, back.Dirty())

	back.Update(func(b *Booking) { b.AttendedBy = "Ravi" })
	assert.False(t, back.Dirty())
	assert.Nil(t, back.State().Baseline)
}

func TestMarkSavedNotifiesOnlyWhenDirty(t *testing.T) {
	s, calls := countingStore(t)
	s.MarkSaved()
	assert.Equal(t, 0, *calls)

	s.Update(func(b *Booking) { b.AttendedBy = "Arun" })
	s.MarkSaved()
	assert.Equal(t, 2, *calls)
	assert.Nil(t, s.State().Baseline)
}

func TestReceiptNet(t *testing.T) {
	r := Receipt{Amount: 1000, Discount: 50, TDS: 20}
	assert.InDelta(t, 930, r.Net(), 1e-9)
}
