// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/telemetry"
)

const (
	wsWriteTimeout  = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

var errNoBroker = errors.New("mqtt.broker is not configured")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status page is served on the local network
	},
}

// hub keeps the latest reading and fans it out to websocket clients.
type hub struct {
	ctx context.Context

	mu      sync.RWMutex
	last    telemetry.Payload
	have    bool
	clients map[*websocket.Conn]*sync.Mutex
}

func newHub(ctx context.Context) *hub {
	return &hub{ctx: ctx, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// update stores p and pushes it to every connected client. Clients that
// cannot keep up are dropped.
func (h *hub) update(p telemetry.Payload) {
	h.mu.Lock()
	h.last, h.have = p, true
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, m := range h.clients {
		clients[c] = m
	}
	h.mu.Unlock()

	for c, m := range clients {
		if err := writeJSON(c, m, p); err != nil {
			logger.WarnKV(h.ctx, "dropping websocket client", "remote", c.RemoteAddr().String(), "error", err)
			h.remove(c)
		}
	}
}

func (h *hub) latest() (telemetry.Payload, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.Close()
	}
}

func writeJSON(c *websocket.Conn, m *sync.Mutex, v any) error {
	m.Lock()
	defer m.Unlock()
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(v)
}

// handleLatest serves the latest reading as JSON.
func (h *hub) handleLatest(w http.ResponseWriter, _ *http.Request) {
	p, ok := h.latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		logger.WarnKV(h.ctx, "json encode error", "error", err)
	}
}

// handleWS streams readings to a websocket client, starting with the
// latest one if any.
func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(h.ctx, "websocket upgrade error", "error", err)
		return
	}

	m := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = m
	last, have := h.last, h.have
	h.mu.Unlock()

	if have {
		if err := writeJSON(conn, m, last); err != nil {
			h.remove(conn)
			return
		}
	}

	// Drain reads so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnKV(h.ctx, "websocket error", "error", err)
			}
			h.remove(conn)
			return
		}
	}
}

func (h *hub) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tilt", h.handleLatest)
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, statusPage)
	})
	return mux
}

// RunWeb serves the status page fed by the indicator's MQTT readings.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	ctx = logger.WithName(ctx, "web")

	if cfg.MQTT.Broker == "" {
		return errNoBroker
	}

	client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.WebClientID)
	if err != nil {
		return err
	}
	defer telemetry.Disconnect(client)
	logger.InfoKV(ctx, "connected", "broker", cfg.MQTT.Broker)

	h := newHub(ctx)
	if err := telemetry.Subscribe(ctx, client, cfg.MQTT.Topic, h.update); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           h.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "web shutdown", "error", err)
		}
	}()

	logger.InfoKV(ctx, "web server listening", "addr", cfg.Web.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

const statusPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Tilt indicator</title>
<style>
body { font-family: sans-serif; text-align: center; margin-top: 3em; }
.lamp { display: inline-block; width: 4em; height: 4em; margin: 1em; border-radius: 50%; background: #333; }
.on { background: #3c3; }
</style>
</head>
<body>
<div><span id="left" class="lamp"></span><span id="center" class="lamp"></span><span id="right" class="lamp"></span></div>
<p>raw <b id="raw">-</b> angle <b id="angle">-</b></p>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (ev) => {
  const r = JSON.parse(ev.data);
  for (const k of ["left", "center", "right"]) {
    document.getElementById(k).classList.toggle("on", r.state[k]);
  }
  document.getElementById("raw").textContent = r.raw;
  document.getElementById("angle").textContent = r.angle;
};
</script>
</body>
</html>
`
