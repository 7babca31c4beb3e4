package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrPoolClosed = errors.New("uci: pool closed")

type PoolConfig struct {
	BinaryPath string
	Options    Options
	Capacity   int
	// Dial overrides process spawning (remote engines, tests).
	Dial func(ctx context.Context) (*Session, error)
}

// Pool keeps up to Capacity warm engine sessions with identical options.
type Pool struct {
	dial     func(ctx context.Context) (*Session, error)
	capacity int
	logger   *zap.Logger

	mu     sync.Mutex
	total  int
	closed bool
	idle   chan *Session
	leased map[*Session]struct{}
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	dial := cfg.Dial
	if dial == nil {
		if cfg.BinaryPath == "" {
			return nil, fmt.Errorf("binary path required")
		}
		path, err := resolveBinary(cfg.BinaryPath)
		if err != nil {
			return nil, err
		}
		opt := cfg.Options
		dial = func(ctx context.Context) (*Session, error) {
			// 세션 수명은 요청 ctx 와 분리
			return NewSession(context.WithoutCancel(ctx), path, opt)
		}
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		dial:     dial,
		capacity: capacity,
		logger:   obslog.L().Named("uci_pool"),
		idle:     make(chan *Session, capacity),
		leased:   make(map[*Session]struct{}),
	}, nil
}

func resolveBinary(p string) (string, error) {
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	path, err := exec.LookPath(p)
	if err != nil {
		return "", fmt.Errorf("stockfish binary check: %w", err)
	}
	return path, nil
}

func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		select {
		case s := <-p.idle:
			if s, ok := p.revive(ctx, s); ok {
				return s, nil
			}
			continue
		default:
		}

		s, err := p.create(ctx)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, errAtCapacity) {
			return nil, err
		}

		select {
		case s := <-p.idle:
			if s, ok := p.revive(ctx, s); ok {
				return s, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns s to the pool; a non-nil err discards it.
func (p *Pool) Release(s *Session, err error) {
	if s == nil {
		return
	}
	p.mu.Lock()
	_, ok := p.leased[s]
	delete(p.leased, s)
	closed := p.closed
	p.mu.Unlock()

	if !ok {
		_ = s.Close()
		return
	}
	if err != nil || closed {
		if err != nil {
			p.logger.Debug("uci_session_discarded", zap.Error(err))
		}
		p.drop(s)
		return
	}
	select {
	case p.idle <- s:
	default:
		p.drop(s)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			return errors.Join(errs...)
		}
	}
}

// Size reports live sessions, idle and leased.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

var errAtCapacity = errors.New("uci pool at capacity")

func (p *Pool) create(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.total >= p.capacity {
		p.mu.Unlock()
		return nil, errAtCapacity
	}
	p.total++
	p.mu.Unlock()

	s, err := p.dial(ctx)
	if err != nil {
		p.decrement()
		return nil, err
	}
	p.lease(s)
	return s, nil
}

func (p *Pool) revive(ctx context.Context, s *Session) (*Session, bool) {
	if s == nil {
		return nil, false
	}
	if err := s.EnsureReady(ctx); err != nil {
		p.logger.Warn("uci_session_stale", zap.Error(err))
		p.drop(s)
		return nil, false
	}
	p.lease(s)
	return s, true
}

func (p *Pool) lease(s *Session) {
	p.mu.Lock()
	p.leased[s] = struct{}{}
	p.mu.Unlock()
}

func (p *Pool) drop(s *Session) {
	_ = s.Close()
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
}
