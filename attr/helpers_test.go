package attr

import (
	"context"
	"sync"

	"github.com/arloliu/go-julabo/protocol"
)

// recordingEngine is a protocol.Engine answering queries from a table.
type recordingEngine struct {
	mu      sync.Mutex
	replies map[string]string
	sent    []string
	queried []string
	err     error
}

var _ protocol.Engine = (*recordingEngine)(nil)

func newRecordingEngine(replies map[string]string) *recordingEngine {
	if replies == nil {
		replies = map[string]string{}
	}

	return &recordingEngine{replies: replies}
}

func (r *recordingEngine) Send(_ context.Context, command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, command)

	return r.err
}

func (r *recordingEngine) Query(_ context.Context, command string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queried = append(r.queried, command)
	if r.err != nil {
		return "", r.err
	}

	return r.replies[command], nil
}

func (r *recordingEngine) ExecModel() protocol.ExecModel { return protocol.Blocking }

func (r *recordingEngine) Metrics() *protocol.Metrics { return &protocol.Metrics{} }

type mode int

const (
	modeOff mode = iota
	modeOnce
	modeAlways
)

var modes = NewEnumeration("SelfTuning",
	Variant[mode]{"Off", modeOff},
	Variant[mode]{"Once", modeOnce},
	Variant[mode]{"Always", modeAlways},
)
