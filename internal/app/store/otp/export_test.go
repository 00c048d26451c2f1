package otpstore

import "time"

// SetClock replaces the store's clock in tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }
