package draft

import "github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"

// SetEntry updates the entry moment.
func (s *Store) SetEntry(m datetime.Moment) bool {
	return s.Update(func(b *Booking) { b.Entry = m })
}

// SetFromDate updates the start date; the end follows when it would
// otherwise precede the start.
func (s *Store) SetFromDate(date string) bool {
	return s.Update(func(b *Booking) { b.From.Date = date })
}

// SetFromTime updates the start time with the same cascade as SetFromDate.
func (s *Store) SetFromTime(clock string) bool {
	return s.Update(func(b *Booking) { b.From.Time = clock })
}

// SetFrom updates both halves of the start moment.
func (s *Store) SetFrom(m datetime.Moment) bool {
	return s.Update(func(b *Booking) { b.From = m })
}

// SetTo updates the end moment. It never adjusts the start.
func (s *Store) SetTo(m datetime.Moment) bool {
	return s.Update(func(b *Booking) { b.To = m })
}
