package dash

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/bot"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
)

const eventBuffer = 200

// Store keeps the most recent loop events for the JSON endpoint and fans
// them out to websocket subscribers.
type Store struct {
	mu     sync.RWMutex
	events []bot.Event

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

func NewStore() *Store {
	return &Store{clients: make(map[*websocket.Conn]struct{})}
}

// Add records an event and pushes it to connected viewers.
func (s *Store) Add(ev bot.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > eventBuffer {
		s.events = s.events[len(s.events)-eventBuffer:]
	}
	s.mu.Unlock()

	s.clientsMu.Lock()
	for c := range s.clients {
		if err := c.WriteJSON(ev); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
	s.clientsMu.Unlock()
}

func (s *Store) List() []bot.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bot.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) subscribe(c *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Store) unsubscribe(c *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StartHTTP serves the event log, the current risk summary and a live
// websocket feed.
func StartHTTP(ctx context.Context, s *Store, summary func() risk.Summary, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.List())
	})
	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary())
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[dash] ws upgrade failed: %v", err)
			return
		}
		defer func() {
			s.unsubscribe(conn)
			conn.Close()
		}()
		// replay the buffer before subscribing, so the fan-out never
		// writes concurrently with the replay
		for _, ev := range s.List() {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		s.subscribe(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexHTML)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() { <-ctx.Done(); _ = srv.Close() }()

	log.Printf("[dash] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !strings.Contains(err.Error(), "Server closed") {
		log.Printf("[dash] http server error: %v", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Arbitrage Engine</title>
  <style>
    body{margin:0;background:#f8fafc;font:14px/1.4 ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Ubuntu;color:#111827;}
    .wrap{max-width:900px;margin:24px auto;padding:0 16px;}
    .hdr{display:flex;align-items:flex-end;justify-content:space-between;margin-bottom:12px;}
    .state{font-size:12px;padding:2px 8px;border-radius:999px;background:#d1fae5;color:#065f46;}
    .card{background:#fff;border-radius:16px;box-shadow:0 10px 30px rgba(0,0,0,.06);padding:14px;margin-bottom:14px;}
    .chip{display:inline-block;font-size:12px;padding:2px 8px;background:#e5e7eb;border-radius:999px;color:#374151;margin-right:6px;}
    #log{font:12px/1.6 ui-monospace,SFMono-Regular,Menlo,monospace;max-height:480px;overflow:auto;white-space:pre-wrap;}
  </style>
</head>
<body>
<div class="wrap">
  <div class="hdr">
    <h1 style="margin:0;font-size:22px;font-weight:600">Arbitrage Engine</h1>
    <div id="state" class="state">live</div>
  </div>
  <div class="card" id="summary"></div>
  <div class="card"><div id="log"></div></div>
</div>
<script>
  function line(ev){ return new Date(ev.ts).toLocaleTimeString()+' ['+ev.state+'] '+ev.message+(ev.pair?(' '+ev.pair):''); }
  function append(ev){
    var el = document.getElementById('log');
    el.textContent += line(ev)+'\n';
    el.scrollTop = el.scrollHeight;
  }
  async function refreshSummary(){
    try{
      var res = await fetch('/api/summary', {cache:'no-store'});
      var s = await res.json();
      document.getElementById('summary').innerHTML =
        '<span class="chip">daily pnl '+Number(s.daily_pnl).toFixed(2)+'</span>'
        + '<span class="chip">active '+s.active_trades+'/'+s.max_concurrent_trades+'</span>'
        + '<span class="chip">loss capacity '+Number(s.remaining_loss_capacity).toFixed(2)+'</span>'
        + (s.in_cooldown ? '<span class="chip">cooldown</span>' : '');
      document.getElementById('state').textContent = 'live';
    }catch(e){
      document.getElementById('state').textContent = 'offline';
    }
  }
  var ws = new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
  ws.onmessage = function(m){ append(JSON.parse(m.data)); };
  refreshSummary(); setInterval(refreshSummary, 2000);
</script>
</body>
</html>`
