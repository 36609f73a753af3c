package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oakdb/oakdb/internal/engine"
	"github.com/oakdb/oakdb/internal/oaklog"
)

// ServeCmd exposes the engine over a single-connection websocket: each
// inbound text message is one SQL statement, each reply is its CSV
// result or an `ERROR: ...` line. Peripheral to the core (§1); grounded
// on the teacher's own gorilla/websocket upgrade-and-pump pattern, cut
// down from its multi-client broadcast hub to one request per message.
// While one connection is open, further upgrade requests are refused
// with 503 Service Unavailable.
type ServeCmd struct {
	Addr string `default:":8080" help:"Address to listen on"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (c *ServeCmd) Run(eng *engine.Engine) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleConn(eng, w, r)
	})
	oaklog.ServerStartup("websocket", c.Addr)
	return http.ListenAndServe(c.Addr, mux)
}

// connMu holds the single websocket connection slot.
var connMu sync.Mutex

func handleConn(eng *engine.Engine, w http.ResponseWriter, r *http.Request) {
	if !connMu.TryLock() {
		http.Error(w, "another connection is active", http.StatusServiceUnavailable)
		return
	}
	defer connMu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		oaklog.WebSocketEvent("upgrade_failed", r.RemoteAddr, "error", err.Error())
		return
	}
	defer conn.Close()
	oaklog.WebSocketEvent("connected", r.RemoteAddr)

	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				oaklog.WebSocketEvent("read_error", r.RemoteAddr, "error", err.Error())
			}
			return
		}

		reply := respond(eng, string(msg))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			oaklog.WebSocketEvent("write_error", r.RemoteAddr, "error", err.Error())
			return
		}
	}
}

func respond(eng *engine.Engine, sql string) string {
	res, err := runOne(eng, sql)
	if err != nil {
		return "ERROR: " + err.Error()
	}
	if res == nil {
		return "OK"
	}
	return engine.RenderCSV(*res)
}
