package ledger

// SetAfterTally runs fn between the bulk tally and the article scan of
// Reconcile.
func (l *Ledger) SetAfterTally(fn func()) { l.afterTally = fn }
