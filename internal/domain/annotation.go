package domain

import "time"

// Annotation is one rendered update as stored in history.
type Annotation struct {
	ID           int64
	SessionUUID  string
	Ply          int
	Label        MoveQuality
	BestMove     string
	OpponentMove string
	EvalCP       *int
	Depth        *int
	RenderedAt   time.Time
}

func AnnotationFromUpdate(session string, ply int, u MoveUpdate, at time.Time) Annotation {
	a := Annotation{
		SessionUUID: session,
		Ply:         ply,
		Label:       u.Label(),
		BestMove:    u.BestMove(),
		RenderedAt:  at,
	}
	if mv, ok := u.OpponentMove(); ok {
		a.OpponentMove = mv
	}
	if cp, ok := u.EvaluationCP(); ok {
		a.EvalCP = &cp
	}
	if d, ok := u.Depth(); ok {
		a.Depth = &d
	}
	return a
}

// LabelCount aggregates a session's labels.
type LabelCount struct {
	Label MoveQuality
	Count int
}
