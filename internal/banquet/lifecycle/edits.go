package lifecycle

import (
	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
)

// Every edit first applies a queued start-moment change so edits land in the
// order they were made.

// Update applies fn to the draft and reports whether it changed anything.
func (c *Controller) Update(fn func(b *draft.Booking)) bool {
	c.from.Flush()
	return c.store.Update(fn)
}

// SetEntry sets the entry moment.
func (c *Controller) SetEntry(m datetime.Moment) bool {
	c.from.Flush()
	return c.store.SetEntry(m)
}

// SetTo sets the end moment. It never moves the start.
func (c *Controller) SetTo(m datetime.Moment) bool {
	c.from.Flush()
	return c.store.SetTo(m)
}

// SetFrom sets the whole start moment at once.
func (c *Controller) SetFrom(m datetime.Moment) bool {
	c.from.Cancel()
	c.mu.Lock()
	c.pendingFrom = nil
	c.mu.Unlock()
	return c.store.SetFrom(m)
}

// SetFromDate queues a start date change for the end of the frame.
func (c *Controller) SetFromDate(date string) {
	c.queueFrom(func(m *datetime.Moment) { m.Date = date })
}

// SetFromTime queues a start time change for the end of the frame.
func (c *Controller) SetFromTime(clock string) {
	c.queueFrom(func(m *datetime.Moment) { m.Time = clock })
}

func (c *Controller) queueFrom(fn func(m *datetime.Moment)) {
	c.mu.Lock()
	var m datetime.Moment
	if c.pendingFrom != nil {
		m = *c.pendingFrom
	} else {
		m = c.store.Draft().From
	}
	fn(&m)
	c.pendingFrom = &m
	c.mu.Unlock()
	c.from.Call(m)
}

func (c *Controller) applyFrom(m datetime.Moment) {
	c.mu.Lock()
	c.pendingFrom = nil
	c.mu.Unlock()
	c.store.SetFrom(m)
}

// Settle applies a queued date change now and returns the draft.
func (c *Controller) Settle() draft.Booking {
	c.from.Flush()
	return c.store.Draft()
}

// UpdateCurrentItem edits the item being composed.
func (c *Controller) UpdateCurrentItem(fn func(it *draft.Item)) bool {
	c.from.Flush()
	return c.store.UpdateCurrentItem(fn)
}

// BeginItem loads the item at index into the composer, or starts a new one
// for draft.NewItemIndex.
func (c *Controller) BeginItem(index int) error {
	c.from.Flush()
	return c.store.BeginItem(index)
}

// CommitItem validates the composed item and stores it in the draft.
func (c *Controller) CommitItem() (int, error) {
	c.from.Flush()
	if !c.itemFlag.TrySet() {
		return 0, c.refuse("item", ErrBusy)
	}
	defer c.itemFlag.Clear()

	it, index := c.store.CurrentItem()
	at := index
	if at == draft.NewItemIndex {
		at = len(c.store.Draft().Items)
	}
	if res := validation.ValidateItem(at, it); !res.OK() {
		return 0, &ValidationError{Result: res}
	}
	return c.store.CommitCurrentItem()
}

// RemoveItem drops the item at index.
func (c *Controller) RemoveItem(index int) error {
	c.from.Flush()
	return c.store.RemoveItem(index)
}
