package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrUnknownCommand = errors.New("unknown feed command")

// Sink receives finished updates; typically overlay.DispatchData.
type Sink func(domain.MoveUpdate)

// Feed turns a line protocol into annotated moves:
//
//	e4 e5 Nf3        moves in SAN or UCI, analysed in order
//	new | reset      start a new game
//	fen <FEN>        start from a position
//	undo             take back one move
//	show <label> <best> [opponent]   dispatch without analysis
//
// Extra commands can be added with Command.
type Feed struct {
	analyzer *Analyzer
	sink     Sink
	game     *Game
	commands map[string]CommandFunc
	logger   *zap.Logger
}

// CommandFunc handles one extra feed command; args exclude the command word.
type CommandFunc func(ctx context.Context, args []string) error

func NewFeed(a *Analyzer, sink Sink) *Feed {
	return &Feed{analyzer: a, sink: sink, game: NewGame(), commands: map[string]CommandFunc{}, logger: obslog.L().Named("feed")}
}

// Command registers fn under name. Built-in commands take precedence.
func (f *Feed) Command(name string, fn CommandFunc) {
	f.commands[strings.ToLower(name)] = fn
}

func (f *Feed) Game() *Game { return f.game }

// Run consumes r until EOF or ctx ends. Bad lines are logged and skipped.
func (f *Feed) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := f.Handle(ctx, sc.Text()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.logger.Warn("feed_line_rejected", zap.String("line", sc.Text()), zap.Error(err))
		}
	}
	return sc.Err()
}

func (f *Feed) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "new", "reset":
		f.game = NewGame()
		f.logger.Info("feed_new_game")
		return nil
	case "fen":
		g, err := NewGameFromFEN(strings.TrimSpace(line[len(fields[0]):]))
		if err != nil {
			return err
		}
		f.game = g
		f.logger.Info("feed_new_game", zap.String("fen", g.StartFEN()))
		return nil
	case "undo":
		return f.game.Undo()
	case "show":
		return f.show(fields[1:])
	}
	if fn, ok := f.commands[strings.ToLower(fields[0])]; ok {
		return fn(ctx, fields[1:])
	}

	for _, tok := range fields {
		res, err := f.analyzer.AnalyzeMove(ctx, f.game, tok)
		if err != nil {
			return fmt.Errorf("%s: %w", tok, err)
		}
		f.sink(res.Update)
	}
	return nil
}

func (f *Feed) show(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: show needs <label> <best>", ErrUnknownCommand)
	}
	var opts []domain.MoveOption
	if len(args) > 2 && args[2] != "-" {
		opts = append(opts, domain.WithOpponentMove(args[2]))
	}
	u, err := domain.ParseMoveUpdate(args[0], args[1], opts...)
	if err != nil {
		return err
	}
	f.sink(u)
	return nil
}
