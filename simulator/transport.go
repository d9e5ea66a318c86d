package simulator

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/go-julabo/protocol"
)

// Transport connects an engine to a Bath in-process. Replies accumulate in
// an input buffer like on a real line, so a reply to a plain write is left
// behind as stale input until drained.
type Transport struct {
	bath  *Bath
	model protocol.ExecModel

	mu     sync.Mutex
	open   bool
	input  bytes.Buffer
	writes []string
}

var (
	_ protocol.Transport = (*Transport)(nil)
	_ protocol.Drainer   = (*Transport)(nil)
)

// NewTransport returns a closed in-memory transport to bath, reporting model
// as its execution model.
func NewTransport(bath *Bath, model protocol.ExecModel) *Transport {
	return &Transport{bath: bath, model: model}
}

func (t *Transport) ExecModel() protocol.ExecModel { return t.model }

func (t *Transport) Open(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = true

	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = false
	t.input.Reset()

	return nil
}

func (t *Transport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.writeLocked(ctx, data)
}

// WriteReadUntil returns protocol.ErrTimeout when the bath has nothing to say.
func (t *Transport) WriteReadUntil(ctx context.Context, data []byte, delim byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.writeLocked(ctx, data); err != nil {
		return nil, err
	}

	line, err := t.input.ReadBytes(delim)
	if err != nil {
		// put the partial line back for a later drain
		t.input.Write(line)
		return nil, fmt.Errorf("%w: no reply from %s to %q", protocol.ErrTimeout, t.bath.Name(), bytes.TrimSpace(data))
	}

	return line, nil
}

// Drain returns and discards pending input.
func (t *Transport) Drain(_ context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return nil, protocol.ErrClosed
	}
	if t.input.Len() == 0 {
		return nil, nil
	}

	garbage := bytes.Clone(t.input.Bytes())
	t.input.Reset()

	return garbage, nil
}

// Writes returns every request line received so far, terminators included.
func (t *Transport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.writes...)
}

func (t *Transport) writeLocked(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.open {
		return protocol.ErrClosed
	}

	t.writes = append(t.writes, string(data))

	// the bath answers each CR-terminated line separately
	for _, line := range bytes.SplitAfter(data, []byte{protocol.CommandTerminator}) {
		if len(line) == 0 {
			continue
		}
		if reply := t.bath.HandleLine(line); reply != nil {
			t.input.Write(reply)
		}
	}

	return nil
}
