package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/telemetry"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

func TestRunIndicatorMockStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Indicators.LampTest = time.Millisecond
	cfg.Sensor.SampleInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	require.NoError(t, RunIndicator(ctx, cfg))
}

func TestRunIndicatorRejectsUnknownAxis(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sensor.Axis = "w"

	require.Error(t, RunIndicator(context.Background(), cfg))
}

func TestSubscribersNeedBroker(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.ErrorIs(t, RunConsole(context.Background(), cfg, io.Discard), errNoBroker)
	require.ErrorIs(t, RunWeb(context.Background(), cfg), errNoBroker)
}

func TestFormatReading(t *testing.T) {
	t.Parallel()

	p := telemetry.NewPayload(tilt.Reading{Raw: -1000, Angle: -90, State: tilt.IndicatorState{Left: true}})
	require.Equal(t, "[TILT] raw= -1000 angle= -90  L(*) C( ) R( )  left", formatReading(p))
}

func TestLatestEndpoint(t *testing.T) {
	t.Parallel()

	h := newHub(context.Background())
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tilt")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	want := telemetry.NewPayload(tilt.Reading{Raw: 123, Angle: 11, State: tilt.IndicatorState{Right: true}})
	h.update(want)

	resp, err = http.Get(srv.URL + "/api/tilt")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got telemetry.Payload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, want, got)
}

func TestStatusPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newHub(context.Background()).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `new WebSocket(`)

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketStreamsReadings(t *testing.T) {
	t.Parallel()

	h := newHub(context.Background())
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	first := telemetry.NewPayload(tilt.Reading{Raw: 0, Angle: 0, State: tilt.IndicatorState{Center: true}})
	h.update(first)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var got telemetry.Payload
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, first, got)

	next := telemetry.NewPayload(tilt.Reading{Raw: -1000, Angle: -90, State: tilt.IndicatorState{Left: true}})
	h.update(next)

	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, next, got)
}
