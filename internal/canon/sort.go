package canon

// StableSort sorts items using cmp, breaking ties by original index so that equal
// elements keep their input order — the "comparator + original-index tiebreak"
// stable sort from spec.md §4.2. cmp returns <0, 0, or >0 like sort.Compare-family
// functions.
func StableSort[T any](items []T, cmp func(a, b T) int) {
	type decorated struct {
		val T
		idx int
	}
	decs := make([]decorated, len(items))
	for i, v := range items {
		decs[i] = decorated{val: v, idx: i}
	}
	less := func(a, b decorated) bool {
		if c := cmp(a.val, b.val); c != 0 {
			return c < 0
		}
		return a.idx < b.idx
	}
	mergeSortStable(decs, less)
	for i, d := range decs {
		items[i] = d.val
	}
}

// mergeSortStable is a bottom-up stable merge sort. Used instead of sort.SliceStable
// so the tiebreak rule is explicit in this package rather than relying on the
// standard library's internal stability guarantee.
func mergeSortStable[T any](items []T, less func(a, b T) bool) {
	n := len(items)
	if n < 2 {
		return
	}
	buf := make([]T, n)
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			merge(items, buf, lo, mid, hi, less)
		}
		copy(items, buf[:n])
	}
}

func merge[T any](items, buf []T, lo, mid, hi int, less func(a, b T) bool) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if less(items[j], items[i]) {
			buf[k] = items[j]
			j++
		} else {
			buf[k] = items[i]
			i++
		}
		k++
	}
	for i < mid {
		buf[k] = items[i]
		i++
		k++
	}
	for j < hi {
		buf[k] = items[j]
		j++
		k++
	}
}
