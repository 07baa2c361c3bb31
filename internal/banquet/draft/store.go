package draft

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
)

// NewItemIndex selects append rather than replace in item workflows.
const NewItemIndex = -1

var (
	// ErrItemIndex indicates an item index outside the current list.
	ErrItemIndex = errors.New("draft: item index out of range")
)

// State is everything the store needs to rebuild a session.
type State struct {
	Booking        Booking `json:"booking"`
	CurrentItem    Item    `json:"current_item"`
	CurrentIndex   int     `json:"current_index"`
	ItemDateSticky bool    `json:"item_date_sticky"`
	// Baseline is the last loaded or saved booking. Nil means the booking
	// itself is clean.
	Baseline *Booking `json:"baseline,omitempty"`
}

// Listener observes committed changes. It is never invoked for no-op edits.
type Listener func(State)

// Store is the single owner of the active draft. Reads return copies; every
// write goes through a mutation that is dropped when it changes nothing.
type Store struct {
	mu sync.Mutex

	booking      Booking
	baseline     Booking
	current      Item
	currentIndex int
	sticky       bool
	receipts     []Receipt
	version      uint64

	listeners []Listener
}

// NewStore returns a store holding an empty draft.
func NewStore() *Store {
	return &Store{currentIndex: NewItemIndex}
}

// Subscribe registers a listener for committed changes.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Draft returns a copy of the booking.
func (s *Store) Draft() Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booking.Clone()
}

// State returns a copy of the persistable state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Version counts committed changes.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Dirty reports whether the draft differs from the last loaded or saved one.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !reflect.DeepEqual(s.booking, s.baseline)
}

// Update applies fn to a copy of the booking and commits the result unless
// it equals the current draft. It reports whether anything changed.
func (s *Store) Update(fn func(b *Booking)) bool {
	s.mu.Lock()
	next := s.booking.Clone()
	fn(&next)
	if reflect.DeepEqual(next, s.booking) {
		s.mu.Unlock()
		return false
	}
	if next.From != s.booking.From {
		s.cascadeFromLocked(&next)
	}
	s.booking = next
	return s.commitLocked()
}

// cascadeFromLocked carries an edit of the start moment into the dependent
// fields.
func (s *Store) cascadeFromLocked(next *Booking) {
	next.From, next.To = datetime.ReconcileRange(next.From, next.To)
	if s.sticky || next.From.Date == s.booking.From.Date {
		return
	}
	if s.currentIndex == NewItemIndex {
		s.current.Date = next.From.Date
	}
	if len(next.Items) > 0 {
		next.Items[0].Date = next.From.Date
	}
}

// CurrentItem returns the item being composed and the index it will replace,
// or NewItemIndex when it will be appended.
func (s *Store) CurrentItem() (Item, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone(), s.currentIndex
}

// UpdateCurrentItem mutates the item being composed. An explicit change of
// its date stops the item date from following the booking start for the rest
// of the session.
func (s *Store) UpdateCurrentItem(fn func(it *Item)) bool {
	s.mu.Lock()
	next := s.current.Clone()
	fn(&next)
	if reflect.DeepEqual(next, s.current) {
		s.mu.Unlock()
		return false
	}
	if next.Date != s.current.Date {
		s.sticky = true
	}
	s.current = next
	return s.commitLocked()
}

// BeginItem loads the item at index into the composer, or a blank item dated
// to the booking start when index is NewItemIndex.
func (s *Store) BeginItem(index int) error {
	s.mu.Lock()
	var next Item
	switch {
	case index == NewItemIndex:
		next = Item{Date: s.booking.From.Date}
	case index >= 0 && index < len(s.booking.Items):
		next = s.booking.Items[index].Clone()
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	if reflect.DeepEqual(next, s.current) && index == s.currentIndex {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	s.currentIndex = index
	s.commitLocked()
	return nil
}

// AddOrReplaceItem appends it when index is NewItemIndex and replaces the
// item at index otherwise.
func (s *Store) AddOrReplaceItem(index int, it Item) error {
	s.mu.Lock()
	next := slices.Clone(s.booking.Items)
	switch {
	case index == NewItemIndex:
		next = append(next, it.Clone())
	case index >= 0 && index < len(next):
		if reflect.DeepEqual(next[index], it) {
			s.mu.Unlock()
			return nil
		}
		next[index] = it.Clone()
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	s.booking.Items = next
	s.commitLocked()
	return nil
}

// CommitCurrentItem stores the composed item at its index and resets the
// composer to a fresh item. It returns the index the item landed at.
func (s *Store) CommitCurrentItem() (int, error) {
	s.mu.Lock()
	it := s.current.Clone()
	index := s.currentIndex
	next := slices.Clone(s.booking.Items)
	switch {
	case index == NewItemIndex:
		next = append(next, it)
		index = len(next) - 1
	case index >= 0 && index < len(next):
		next[index] = it
	default:
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	s.booking.Items = next
	s.current = Item{Date: s.booking.From.Date}
	s.currentIndex = NewItemIndex
	s.commitLocked()
	return index, nil
}

// RemoveItem drops the item at index. Later items shift down; the index is
// their only identity.
func (s *Store) RemoveItem(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.booking.Items) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	s.booking.Items = slices.Delete(slices.Clone(s.booking.Items), index, index+1)
	switch {
	case s.currentIndex == index:
		s.currentIndex = NewItemIndex
		s.current = Item{Date: s.booking.From.Date}
	case s.currentIndex > index:
		s.currentIndex--
	}
	s.commitLocked()
	return nil
}

// Reset discards the draft. Receipts survive when keepReceipts is set, which
// is the case while an existing quotation is being edited.
func (s *Store) Reset(keepReceipts bool) {
	s.mu.Lock()
	s.booking = Booking{}
	s.baseline = Booking{}
	s.current = Item{}
	s.currentIndex = NewItemIndex
	s.sticky = false
	if !keepReceipts {
		s.receipts = nil
	}
	s.commitLocked()
}

// Restore rebuilds the store from a persisted state. The persisted baseline is
// kept so unsaved edits stay dirty; without one the booking counts as clean.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	s.booking = st.Booking.Clone()
	if st.Baseline != nil {
		s.baseline = st.Baseline.Clone()
	} else {
		s.baseline = st.Booking.Clone()
	}
	s.current = st.CurrentItem.Clone()
	s.currentIndex = st.CurrentIndex
	s.sticky = st.ItemDateSticky
	s.version++
	s.mu.Unlock()
}

// Hydrate replaces the whole draft with one loaded from the booking service.
// Loaded receipts are kept and the hydrated draft counts as clean. Item dates
// come from the service, so they no longer follow the start date.
func (s *Store) Hydrate(b Booking) {
	s.mu.Lock()
	s.booking = b.Clone()
	s.baseline = b.Clone()
	s.current = Item{Date: b.From.Date}
	s.currentIndex = NewItemIndex
	s.sticky = true
	s.commitLocked()
}

// MarkSaved makes the current draft the clean baseline. Listeners hear about
// it when the draft was dirty, since the persisted state changes.
func (s *Store) MarkSaved() {
	s.mu.Lock()
	if reflect.DeepEqual(s.booking, s.baseline) {
		s.mu.Unlock()
		return
	}
	s.baseline = s.booking.Clone()
	s.commitLocked()
}

// Receipts returns a copy of the cached receipt list.
func (s *Store) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.receipts)
}

// SetReceipts replaces the cached receipt list.
func (s *Store) SetReceipts(rs []Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = slices.Clone(rs)
}

// RemoveReceipt drops the receipt with voucherID and reports whether it was
// cached.
func (s *Store) RemoveReceipt(voucherID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.receipts, func(r Receipt) bool { return r.VoucherID == voucherID })
	if i < 0 {
		return false
	}
	s.receipts = slices.Delete(slices.Clone(s.receipts), i, i+1)
	return true
}

func (s *Store) stateLocked() State {
	st := State{
		Booking:        s.booking.Clone(),
		CurrentItem:    s.current.Clone(),
		CurrentIndex:   s.currentIndex,
		ItemDateSticky: s.sticky,
	}
	if !reflect.DeepEqual(s.booking, s.baseline) {
		baseline := s.baseline.Clone()
		st.Baseline = &baseline
	}
	return st
}

// commitLocked bumps the version and notifies listeners after releasing the
// lock. It must be called with s.mu held.
func (s *Store) commitLocked() bool {
	s.version++
	st := s.stateLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
	return true
}
