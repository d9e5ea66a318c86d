package device

import (
	"context"
	"testing"

	"github.com/arloliu/go-julabo/protocol"
	"github.com/arloliu/go-julabo/simulator"
	"github.com/stretchr/testify/require"
)

// newSimDevice returns a device on an in-memory simulated CF bath. Without
// engine options the back-pressure floors are disabled to keep tests fast.
func newSimDevice(t *testing.T, model protocol.ExecModel, opts ...protocol.Option) (*Device, *simulator.Bath) {
	t.Helper()

	bath, err := simulator.NewBath("test", simulator.JulaboCF)
	require.NoError(t, err)

	tr := simulator.NewTransport(bath, model)
	require.NoError(t, tr.Open(context.Background()))
	t.Cleanup(func() { _ = tr.Close() })

	if len(opts) == 0 {
		opts = []protocol.Option{protocol.WithCommandLatency(0), protocol.WithQueryLatency(0)}
	}

	e, err := protocol.New(tr, opts...)
	require.NoError(t, err)

	return New(e, CF), bath
}
