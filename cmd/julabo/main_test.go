package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arloliu/go-julabo/device"
	"github.com/arloliu/go-julabo/metrics"
	"github.com/arloliu/go-julabo/simulator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSim(t *testing.T) (*simulator.Bath, string) {
	t.Helper()

	bath, err := simulator.NewBath("cf", simulator.JulaboCF)
	require.NoError(t, err)

	srv := simulator.NewServer(bath, "127.0.0.1:0")
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })

	return bath, "tcp://" + srv.Addr()
}

func runCmd(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(ctx, args, &out, io.Discard)

	return out.String(), err
}

func TestRun_List(t *testing.T) {
	out, err := runCmd(t, context.Background(), "-model", "FC", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "working_temperature")
	assert.Contains(t, out, "OUT_SP_00")
	assert.NotContains(t, out, "bath_temperature")

	_, err = runCmd(t, context.Background(), "-model", "XX", "list")
	require.ErrorIs(t, err, device.ErrUnknownModel)
}

func TestRun_NoURL(t *testing.T) {
	_, err := runCmd(t, context.Background(), "snapshot")
	require.Error(t, err)
}

func TestRun_DeviceCommands(t *testing.T) {
	ctx := context.Background()
	bath, url := startSim(t)
	fast := []string{"-url", url, "-command-latency", "0s", "-query-latency", "0s"}

	out, err := runCmd(t, ctx, append(fast, "get", "bath_temperature")...)
	require.NoError(t, err)
	assert.Equal(t, "29.45\n", out)

	out, err = runCmd(t, ctx, append(fast, "get", "self_tuning", "is_started")...)
	require.NoError(t, err)
	assert.Equal(t, "self_tuning: Off\nis_started: false\n", out)

	// Commands get no reply, so the bath may see them after run returns.
	_, err = runCmd(t, ctx, append(fast, "set", "set_point_1", "37.5")...)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		v, _ := bath.Register("SP_00")
		return v == "37.50"
	}, time.Second, 10*time.Millisecond)

	out, err = runCmd(t, ctx, append(fast, "get", "set_point_1")...)
	require.NoError(t, err)
	assert.Equal(t, "37.5\n", out)

	_, err = runCmd(t, ctx, append(fast, "call", "start")...)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		v, _ := bath.Register("STATUS")
		return v == "03 REMOTE START"
	}, time.Second, 10*time.Millisecond)

	out, err = runCmd(t, ctx, append(fast, "snapshot")...)
	require.NoError(t, err)
	assert.Contains(t, out, "identification")
	assert.Contains(t, out, "set_point_1")

	_, err = runCmd(t, ctx, append(fast, "set", "set_point_1")...)
	require.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, ctx, append(fast, "frobnicate")...)
	require.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, ctx, append(fast, "get", "nope")...)
	require.ErrorIs(t, err, device.ErrUnknownAttribute)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer

	report(&buf, errUsage)
	report(&buf, flag.ErrHelp)
	assert.Empty(t, buf.String())

	report(&buf, fmt.Errorf("%w: set NAME VALUE", errUsage))
	assert.Equal(t, "julabo: usage: set NAME VALUE\n", buf.String())

	buf.Reset()
	report(&buf, fmt.Errorf("%w: unknown command %q", errUsage, "frobnicate"))
	assert.Equal(t, "julabo: usage: unknown command \"frobnicate\"\n", buf.String())
}

func TestRun_Monitor(t *testing.T) {
	_, url := startSim(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := runCmd(t, ctx, "-url", url, "-command-latency", "0s", "-query-latency", "0s",
		"-interval", "50ms", "monitor")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, strings.Count(out, "--- "), 2)
	assert.Contains(t, out, "bath_temperature")
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	readings := newTestReadings(t, reg)
	readings.Observe([]device.Reading{{Name: "bath_temperature", Value: 21.5}}, time.Now())

	srv := httptest.NewServer(metricsMux(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `julabo_device_attribute_value{attribute="bath_temperature",device="test"} 21.5`)
}

func newTestReadings(t *testing.T, reg *prometheus.Registry) *metrics.Readings {
	t.Helper()

	r := metrics.NewReadings("test")
	require.NoError(t, reg.Register(r))

	return r
}
