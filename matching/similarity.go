package matching

// Score returns the Jaccard index of the word sets of a and b, in [0,1].
// Empty input on either side scores 0.
func Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	wa, wb := Tokenize(a), Tokenize(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	// iterate the smaller set
	if len(wa) > len(wb) {
		wa, wb = wb, wa
	}
	inter := 0
	for w := range wa {
		if wb.Has(w) {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}
