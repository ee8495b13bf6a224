package numeric

// FindNearestMeasureDayIdx maps day onto the index of the closest entry of
// the ascending, duplicate-free days. Days outside the range clamp to the
// first or last entry; on a tie the later day wins. Returns -1 for an empty
// slice.
func FindNearestMeasureDayIdx(days []int, day int) int {
	if len(days) == 0 {
		return -1
	}
	idx := BinarySearchNumeric(days, day)
	if idx >= 0 {
		return idx
	}
	idx = -idx - 1
	switch {
	case idx == 0:
		return 0
	case idx == len(days):
		return len(days) - 1
	}
	currDiff := days[idx] - day
	prevDiff := day - days[idx-1]
	if prevDiff < currDiff {
		idx--
	}
	return idx
}
