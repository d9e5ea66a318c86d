package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/go-julabo/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var models = []ExecModel{Blocking, Cooperative}

func TestNew_SelectsEngineByExecModel(t *testing.T) {
	clock := newFakeClock()

	e := newTestEngine(t, newFakeTransport(clock, Blocking))
	_, ok := e.(*BlockingEngine)
	assert.True(t, ok)
	assert.Equal(t, Blocking, e.ExecModel())

	e = newTestEngine(t, newFakeTransport(clock, Cooperative))
	_, ok = e.(*CooperativeEngine)
	assert.True(t, ok)
	assert.Equal(t, Cooperative, e.ExecModel())

	_, err := New(nil)
	require.ErrorIs(t, err, ErrTransportNil)
}

func TestQuery_FramesAndDecodes(t *testing.T) {
	for _, model := range models {
		t.Run(model.String(), func(t *testing.T) {
			clock := newFakeClock()
			tr := newFakeTransport(clock, model)
			tr.replies["IN_PV_00\r"] = "23\x11.45\r\n"
			e := newTestEngine(t, tr, WithClock(clock))

			got, err := e.Query(context.Background(), "IN_PV_00")
			require.NoError(t, err)
			assert.Equal(t, "23.45", got)

			events := tr.Events()
			require.Len(t, events, 2)
			assert.Equal(t, "query-start", events[0].kind)
			assert.Equal(t, "IN_PV_00\r", events[0].data)
			assert.Equal(t, uint64(1), e.Metrics().QueryCount.Load())
		})
	}
}

func TestSend_Frames(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Blocking)
	e := newTestEngine(t, tr, WithClock(clock))

	require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))

	events := tr.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "write", events[0].kind)
	assert.Equal(t, "OUT_MODE_05 1\r", events[0].data)
	assert.Equal(t, uint64(1), e.Metrics().CommandCount.Load())
}

func TestBackPressure(t *testing.T) {
	type op func(e Engine) error
	send := func(e Engine) error { return e.Send(context.Background(), "OUT_SP_00 20.00") }
	query := func(e Engine) error {
		_, err := e.Query(context.Background(), "IN_SP_00")
		return err
	}

	tests := []struct {
		name   string
		first  op
		second op
		gap    time.Duration
	}{
		{"command then command", send, send, DefaultCommandLatency},
		{"command then query", send, query, DefaultCommandLatency},
		{"query then query", query, query, DefaultQueryLatency},
		{"query then command", query, send, DefaultQueryLatency},
	}

	for _, model := range models {
		for _, tt := range tests {
			t.Run(model.String()+"/"+tt.name, func(t *testing.T) {
				clock := newFakeClock()
				tr := newFakeTransport(clock, model)
				e := newTestEngine(t, tr, WithClock(clock))

				require.NoError(t, tt.first(e))
				first := tr.Events()[0].at

				require.NoError(t, tt.second(e))
				events := tr.Events()
				second := events[len(events)-1].at
				if events[len(events)-1].kind == "query-end" {
					second = events[len(events)-2].at
				}

				assert.Equal(t, tt.gap, second.Sub(first))
				assert.Equal(t, uint64(1), e.Metrics().BackPressureWaits.Load())
			})
		}
	}
}

func TestBackPressure_SharedFloor(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Blocking)
	e := newTestEngine(t, tr, WithClock(clock))
	ctx := context.Background()

	// A query right after a command still honours the 250ms command floor,
	// even though the query floor alone would only require 10ms.
	require.NoError(t, e.Send(ctx, "OUT_MODE_05 1"))
	t0 := clock.Now()
	clock.Advance(100 * time.Millisecond)

	_, err := e.Query(ctx, "IN_MODE_05")
	require.NoError(t, err)

	events := tr.Events()
	assert.Equal(t, t0.Add(DefaultCommandLatency), events[1].at)
	assert.Equal(t, []time.Duration{150 * time.Millisecond}, clock.Sleeps())
}

func TestBackPressure_NoWaitWhenIdle(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Cooperative)
	e := newTestEngine(t, tr, WithClock(clock))

	require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 0"))
	clock.Advance(time.Second)
	require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))

	assert.Empty(t, clock.Sleeps())
}

func TestBackPressure_ConcurrentOperations(t *testing.T) {
	const (
		cmdLatency = 40 * time.Millisecond
		qryLatency = 15 * time.Millisecond
		// slack between claiming the slot and recording the event
		slack = 2 * time.Millisecond
	)

	for _, model := range models {
		t.Run(model.String(), func(t *testing.T) {
			tr := newFakeTransport(SystemClock(), model)
			e := newTestEngine(t, tr, WithCommandLatency(cmdLatency), WithQueryLatency(qryLatency))

			var wg sync.WaitGroup
			for i := range 6 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if i%2 == 0 {
						assert.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))
						return
					}
					_, err := e.Query(context.Background(), "IN_PV_00")
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			var wire []wireEvent
			for _, ev := range tr.Events() {
				if ev.kind != "query-end" {
					wire = append(wire, ev)
				}
			}
			require.Len(t, wire, 6)

			for i := 1; i < len(wire); i++ {
				want := qryLatency
				if wire[i-1].kind == "write" {
					want = cmdLatency
				}
				gap := wire[i].at.Sub(wire[i-1].at)
				assert.GreaterOrEqual(t, gap, want-slack, "%s after %s", wire[i].kind, wire[i-1].kind)
			}
		})
	}
}

func TestSend_WriteFailureKeepsFloor(t *testing.T) {
	for _, model := range models {
		t.Run(model.String(), func(t *testing.T) {
			clock := newFakeClock()
			tr := newFakeTransport(clock, model)
			tr.writeErr = io.ErrClosedPipe
			e := newTestEngine(t, tr, WithClock(clock))

			err := e.Send(context.Background(), "OUT_MODE_05 1")
			require.ErrorIs(t, err, ErrTransport)
			require.ErrorIs(t, err, io.ErrClosedPipe)
			t0 := clock.Now()

			tr.writeErr = nil
			require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))

			events := tr.Events()
			require.Len(t, events, 2)
			assert.Equal(t, t0.Add(DefaultCommandLatency), events[1].at)
			assert.Equal(t, uint64(1), e.Metrics().ErrCount.Load())
		})
	}
}

func TestQuery_FailureKeepsFloor(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Blocking)
	tr.readErr = ErrTimeout
	e := newTestEngine(t, tr, WithClock(clock))

	_, err := e.Query(context.Background(), "IN_PV_00")
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, ErrTransport)

	tr.readErr = nil
	_, err = e.Query(context.Background(), "IN_PV_00")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultQueryLatency}, clock.Sleeps())
}

func TestQuery_MalformedReply(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Cooperative)
	tr.replies["VERSION\r"] = "\xff\xfe\r\n"
	e := newTestEngine(t, tr, WithClock(clock))

	_, err := e.Query(context.Background(), "VERSION")
	require.ErrorIs(t, err, ErrMalformedReply)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestQuery_MutualExclusion(t *testing.T) {
	for _, model := range models {
		t.Run(model.String(), func(t *testing.T) {
			tr := newFakeTransport(SystemClock(), model)
			tr.queryHook = func() { time.Sleep(20 * time.Millisecond) }
			e := newTestEngine(t, tr, WithQueryLatency(0))

			const n = 4
			var wg sync.WaitGroup
			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := e.Query(context.Background(), "IN_PV_00")
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			events := tr.Events()
			require.Len(t, events, 2*n)
			for i := 0; i < len(events); i += 2 {
				assert.Equal(t, "query-start", events[i].kind, "event %d", i)
				assert.Equal(t, "query-end", events[i+1].kind, "event %d", i+1)
				if i > 0 {
					assert.False(t, events[i].at.Before(events[i-1].at))
				}
			}
		})
	}
}

func TestSend_NotSerializedByDefault(t *testing.T) {
	tr := newFakeTransport(SystemClock(), Blocking)
	inQuery := make(chan struct{})
	releaseQuery := make(chan struct{})
	tr.queryHook = func() {
		close(inQuery)
		<-releaseQuery
	}
	e := newTestEngine(t, tr, WithQueryLatency(0), WithCommandLatency(0))

	done := make(chan error, 1)
	go func() {
		_, err := e.Query(context.Background(), "IN_PV_00")
		done <- err
	}()
	<-inQuery

	// The command goes through while the query is still waiting for its reply.
	require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))
	close(releaseQuery)
	require.NoError(t, <-done)

	kinds := []string{}
	for _, ev := range tr.Events() {
		kinds = append(kinds, ev.kind)
	}
	assert.Equal(t, []string{"query-start", "write", "query-end"}, kinds)
}

func TestSend_SerializedCommands(t *testing.T) {
	for _, model := range models {
		t.Run(model.String(), func(t *testing.T) {
			tr := newFakeTransport(SystemClock(), model)
			inQuery := make(chan struct{})
			tr.queryHook = func() {
				close(inQuery)
				time.Sleep(30 * time.Millisecond)
			}
			e := newTestEngine(t, tr, WithQueryLatency(0), WithCommandLatency(0), WithSerializedCommands(true))

			done := make(chan error, 1)
			go func() {
				_, err := e.Query(context.Background(), "IN_PV_00")
				done <- err
			}()
			<-inQuery

			require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))
			require.NoError(t, <-done)

			kinds := []string{}
			for _, ev := range tr.Events() {
				kinds = append(kinds, ev.kind)
			}
			assert.Equal(t, []string{"query-start", "query-end", "write"}, kinds)
		})
	}
}

func TestCooperative_CancelDuringBackPressure(t *testing.T) {
	tr := newFakeTransport(SystemClock(), Cooperative)
	e := newTestEngine(t, tr, WithCommandLatency(5*time.Second))

	require.NoError(t, e.Send(context.Background(), "OUT_MODE_05 1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.Send(ctx, "OUT_MODE_05 0")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, tr.Events(), 1)
}

func TestCooperative_CancelWhileLocked(t *testing.T) {
	tr := newFakeTransport(SystemClock(), Cooperative)
	inQuery := make(chan struct{})
	release := make(chan struct{})
	tr.queryHook = func() {
		close(inQuery)
		<-release
	}
	e := newTestEngine(t, tr, WithQueryLatency(0))

	done := make(chan error, 1)
	go func() {
		_, err := e.Query(context.Background(), "STATUS")
		done <- err
	}()
	<-inQuery

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Query(ctx, "VERSION")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
}

func TestBlocking_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Blocking)
	e := newTestEngine(t, tr, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Query(ctx, "VERSION")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.Events())
}

func TestQuery_DrainsGarbage(t *testing.T) {
	clock := newFakeClock()
	tr := &drainingTransport{fakeTransport: newFakeTransport(clock, Blocking)}
	tr.garbage = []byte("29.45\r\n")
	tr.replies["IN_PV_00\r"] = "30.00\r\n"

	ml := logger.NewMockLogger()
	ml.On("With", "engine", "blocking").Return(ml)
	ml.On("Debug", mock.Anything, mock.Anything).Maybe()
	ml.On("Warn", "disposed of garbage", []any{"data", "29.45\r\n"}).Once()

	e := newTestEngine(t, tr, WithClock(clock), WithLogger(ml))

	got, err := e.Query(context.Background(), "IN_PV_00")
	require.NoError(t, err)
	assert.Equal(t, "30.00", got)
	assert.Equal(t, 1, tr.drained)
	assert.Equal(t, uint64(7), e.Metrics().DrainedBytes.Load())
	ml.AssertExpectations(t)

	// Drain is skipped when disabled.
	e = newTestEngine(t, tr, WithClock(clock), WithDrain(false))
	_, err = e.Query(context.Background(), "IN_PV_00")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.drained)
}

func TestQuery_TransportErrorWrapping(t *testing.T) {
	clock := newFakeClock()
	tr := newFakeTransport(clock, Cooperative)
	tr.readErr = errors.New("boom")
	e := newTestEngine(t, tr, WithClock(clock))

	_, err := e.Query(context.Background(), "STATUS")
	require.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, uint64(1), e.Metrics().ErrCount.Load())
	assert.Equal(t, int64(0), e.Metrics().InflightQueries.Load())
}
