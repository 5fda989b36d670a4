package clone

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// nearMissEditRatio is the maximum fraction of a pair's combined source
// proxy length that may be covered by insert/delete diff ops for the
// pair to still count as a confirmed near-miss. Pairs edited more
// heavily than this are structural coincidences, not clones.
const nearMissEditRatio = 0.4

// confirmNearMiss runs a line-level diff over a and b's source text
// proxies and reports whether the edit distance is small relative to
// their combined length, following the teacher diff pipeline's
// DiffLinesToRunes/DiffMainRunes/DiffCleanupMerge sequence.
func confirmNearMiss(a, b function) bool {
	srcA, srcB := sourceText(a), sourceText(b)
	if srcA == "" || srcB == "" {
		return false
	}

	dmp := diffmatchpatch.New()

	runesA, runesB, lineArray := dmp.DiffLinesToRunes(srcA, srcB)
	_ = lineArray

	diffs := dmp.DiffMainRunes(runesA, runesB, false)
	diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))

	edited := 0
	total := 0

	for _, d := range diffs {
		n := len(d.Text)
		total += n

		if d.Type != diffmatchpatch.DiffEqual {
			edited += n
		}
	}

	if total == 0 {
		return false
	}

	return float64(edited)/float64(total) <= nearMissEditRatio
}
