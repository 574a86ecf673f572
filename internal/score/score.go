package score

// Accuracy returns the fraction of ground-truth words found anywhere in
// the extracted text after normalization, in [0.0, 1.0].
//
// Ground truth is treated as a multiset: a word repeated k times can
// contribute up to k matches even though the predicted side is
// deduplicated. Empty ground truth scores 0.0 by definition so that
// aggregation over a corpus stays total.
func Accuracy(extracted string, groundTruth []string) float64 {
	if len(groundTruth) == 0 {
		return 0.0
	}

	predicted := Normalize(extracted)

	matched := 0
	for _, word := range groundTruth {
		w := NormalizeWord(word)
		if w == "" {
			continue
		}
		if _, ok := predicted[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(groundTruth))
}
