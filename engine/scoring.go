package engine

// Score increments awarded by accepted transitions. Draws and redraws
// never change the score.
const (
	ScoreToFoundation   = 10
	ScoreDiscardToTable = 5
	ScoreFlipTableau    = 5
)

// moveScore returns the increment for a validated move before any flip
// bonus is applied.
func moveScore(src, dst PileID) int {
	switch dst.Kind() {
	case KindFoundation:
		return ScoreToFoundation
	case KindTableau:
		if src == DiscardPile {
			return ScoreDiscardToTable
		}
	}
	return 0
}
