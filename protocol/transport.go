package protocol

import "context"

// ExecModel tells which execution model a Transport implements.
type ExecModel int

const (
	// Blocking transports ignore context cancellation once an operation started.
	Blocking ExecModel = iota
	// Cooperative transports abort I/O when the context is done.
	Cooperative
)

func (m ExecModel) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case Cooperative:
		return "cooperative"
	default:
		return "unknown"
	}
}

// Transport is the byte channel an engine drives.
//
// The engine does not own the transport: it never opens or closes it.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
	// Write sends data as is.
	Write(ctx context.Context, data []byte) error
	// WriteReadUntil sends data and returns everything read up to and including delim.
	WriteReadUntil(ctx context.Context, data []byte, delim byte) ([]byte, error)
	// ExecModel reports whether the operations above are blocking or cooperative.
	ExecModel() ExecModel
}

// Drainer is implemented by transports able to discard input received
// outside of a query, such as leftovers of a timed out reply.
type Drainer interface {
	Drain(ctx context.Context) ([]byte, error)
}
