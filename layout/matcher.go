package layout

// findCandidate scans blocks in reading order and returns the index of the
// first unconsumed block whose center falls inside the interval, or -1.
// A nil interval or a low-significance one yields no candidate: the learned
// position is too loose to trust a geometric match even if one exists.
// Blocks already attributed to another field in the same partition call are
// skipped via consumed rather than removed from the slice, so the caller's
// iteration stays stable.
func findCandidate(ci *ConfidenceInterval, blocks []Block, consumed map[int]bool) int {
	if ci == nil || ci.Significance == SignificanceLow {
		return -1
	}
	for i, b := range blocks {
		if consumed[i] {
			continue
		}
		if ci.Contains(b.PX, b.PY) {
			return i
		}
	}
	return -1
}
