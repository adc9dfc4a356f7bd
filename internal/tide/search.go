package tide

import "time"

// NextEvent returns the earliest prediction strictly after now.
//
// Upstream ordering is not trusted: every entry is examined. ok is false when
// preds is empty or nothing lies after now.
func NextEvent(preds []Prediction, now time.Time) (next Prediction, ok bool) {
	for _, p := range preds {
		if !p.Time.After(now) {
			continue
		}
		if !ok || p.Time.Before(next.Time) {
			next = p
			ok = true
		}
	}
	return next, ok
}
