package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"blockfund/internal/metrics"
	"blockfund/internal/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var realtimeTables = []string{
	realtime.TableCampaigns,
	realtime.TableDonations,
	realtime.TableVerificationVotes,
}

// Realtime streams row change events over a websocket. The optional "table"
// and "id" query parameters narrow the subscription to one table or row.
func (a *App) Realtime(w http.ResponseWriter, r *http.Request) {
	filter := realtime.Filter{
		Table: r.URL.Query().Get("table"),
		RowID: r.URL.Query().Get("id"),
	}
	if filter.Table != "" && !slices.Contains(realtimeTables, filter.Table) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown table")
		return
	}
	if filter.RowID != "" && filter.Table == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id requires table")
		return
	}
	if a.Broker == nil {
		a.error(w, http.StatusServiceUnavailable, "realtime_unavailable", "realtime feed not configured")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		a.Logger.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events, err := a.Broker.Subscribe(ctx, filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("realtime subscribe")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(wsWriteWait))
		return
	}
	metrics.RealtimeSubscribers.Inc()
	defer metrics.RealtimeSubscribers.Dec()

	go readUntilClosed(conn, cancel)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream once the peer goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(a.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range a.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
