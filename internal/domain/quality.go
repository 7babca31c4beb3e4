package domain

import (
	"errors"
	"strings"
)

// MoveQuality 는 수 품질 라벨입니다.
type MoveQuality string

const (
	QualityBrilliant  MoveQuality = "brilliant"
	QualityGreat      MoveQuality = "great"
	QualityBest       MoveQuality = "best"
	QualityExcellent  MoveQuality = "excellent"
	QualityGood       MoveQuality = "good"
	QualityTheory     MoveQuality = "theory"
	QualityInaccuracy MoveQuality = "inaccuracy"
	QualityMistake    MoveQuality = "mistake"
	QualityMiss       MoveQuality = "miss"
	QualityBlunder    MoveQuality = "blunder"
	QualityForced     MoveQuality = "forced"
)

var ErrInvalidLabel = errors.New("invalid move quality label")

var allQualities = []MoveQuality{
	QualityBrilliant,
	QualityGreat,
	QualityBest,
	QualityExcellent,
	QualityGood,
	QualityTheory,
	QualityInaccuracy,
	QualityMistake,
	QualityMiss,
	QualityBlunder,
	QualityForced,
}

// AllQualities returns the label vocabulary, best to worst with forced last.
func AllQualities() []MoveQuality {
	out := make([]MoveQuality, len(allQualities))
	copy(out, allQualities)
	return out
}

func (q MoveQuality) Valid() bool {
	for _, v := range allQualities {
		if v == q {
			return true
		}
	}
	return false
}

func (q MoveQuality) String() string { return string(q) }

// ParseMoveQuality accepts any letter case and surrounding whitespace.
func ParseMoveQuality(s string) (MoveQuality, error) {
	q := MoveQuality(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", ErrInvalidLabel
	}
	return q, nil
}

// Severe reports labels that signal a lost opportunity or material.
func (q MoveQuality) Severe() bool {
	switch q {
	case QualityMistake, QualityMiss, QualityBlunder:
		return true
	default:
		return false
	}
}
