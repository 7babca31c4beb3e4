package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

// fakeEngine answers the uci handshake and replies to "go" with canned lines.
type fakeEngine struct {
	mu       sync.Mutex
	received []string
	infos    []string
	best     string
}

func (f *fakeEngine) serve(in io.Reader, out io.WriteCloser) {
	defer out.Close()
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		f.mu.Lock()
		f.received = append(f.received, line)
		infos, best := f.infos, f.best
		f.mu.Unlock()
		switch {
		case line == "uci":
			fmt.Fprintln(out, "id name fakefish")
			fmt.Fprintln(out, "uciok")
		case line == "isready":
			fmt.Fprintln(out, "readyok")
		case strings.HasPrefix(line, "go"):
			for _, l := range infos {
				fmt.Fprintln(out, l)
			}
			fmt.Fprintf(out, "bestmove %s\n", best)
		case line == "quit":
			return
		}
	}
}

func (f *fakeEngine) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func startFake(t *testing.T, f *fakeEngine) *Session {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	go f.serve(inR, outW)
	s, err := NewSessionFromPipes(context.Background(), inW, outR, Options{Threads: 1, HashMB: 16, MultiPV: 2})
	if err != nil {
		t.Fatalf("NewSessionFromPipes: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
