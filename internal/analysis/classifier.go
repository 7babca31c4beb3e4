package analysis

import "github.com/park285/cheese-overlay/internal/domain"

// Thresholds in centipawns of loss against the engine's best line.
type Thresholds struct {
	Excellent  int
	Good       int
	Inaccuracy int
	Mistake    int
	// GreatGap is the minimum lead of the best line over the second.
	GreatGap int
	// Sacrifice is the material (pawns) given up by a brilliant move.
	Sacrifice int
	// MissWinning is the eval the mover could have had for a miss.
	MissWinning int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent:   20,
		Good:        50,
		Inaccuracy:  100,
		Mistake:     250,
		GreatGap:    150,
		Sacrifice:   2,
		MissWinning: 300,
	}
}

// Verdict is everything the classifier looks at, evals from the mover's side.
type Verdict struct {
	LegalMoves int
	BookMove   bool
	PlayedBest bool

	BestEval   int
	BestMate   int
	SecondEval int
	HasSecond  bool
	PlayedEval int

	// MaterialGiven is the mover's material (pawns) lost along the best
	// line two plies deep.
	MaterialGiven int
}

// Loss is the centipawn drop from the best line, never negative.
func (v Verdict) Loss() int {
	loss := v.BestEval - v.PlayedEval
	if loss < 0 {
		return 0
	}
	return loss
}

func Classify(v Verdict, th Thresholds) domain.MoveQuality {
	if v.LegalMoves == 1 {
		return domain.QualityForced
	}
	if v.BookMove {
		return domain.QualityTheory
	}
	if v.PlayedBest {
		switch {
		case v.MaterialGiven >= th.Sacrifice && v.PlayedEval >= -th.Good:
			return domain.QualityBrilliant
		case v.HasSecond && v.BestEval-v.SecondEval >= th.GreatGap:
			return domain.QualityGreat
		default:
			return domain.QualityBest
		}
	}

	loss := v.Loss()
	winningMissed := v.BestMate > 0 || v.BestEval >= th.MissWinning
	if winningMissed && loss > th.Inaccuracy && v.PlayedEval > -th.Inaccuracy {
		return domain.QualityMiss
	}
	switch {
	case loss <= th.Excellent:
		return domain.QualityExcellent
	case loss <= th.Good:
		return domain.QualityGood
	case loss <= th.Inaccuracy:
		return domain.QualityInaccuracy
	case loss <= th.Mistake:
		return domain.QualityMistake
	default:
		return domain.QualityBlunder
	}
}
