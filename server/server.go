package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/invopop/jsonschema"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes. adminKey guards the feed intake
// and claim-code issuing; an empty key disables those endpoints.
func SetupRoutes(hub *Hub, clientDir, adminKey, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve the viewer client with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		bubbles, _, tick := hub.sim.Counts()
		client.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{Tick: tick, Bubbles: bubbles}})
	})

	requireAdmin := func(w http.ResponseWriter, r *http.Request) bool {
		if adminKey == "" || r.Header.Get("X-Admin-Key") != adminKey {
			http.Error(w, "forbidden", http.StatusForbidden)
			return false
		}
		return true
	}

	// Population intake: the external holder poller POSTs refreshes here.
	mux.HandleFunc("/api/holders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !requireAdmin(w, r) {
			return
		}
		var holders []Holder
		if err := json.NewDecoder(r.Body).Decode(&holders); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		hub.sim.SubmitHolders(holders)
		writeJSON(w, http.StatusAccepted, map[string]int{"holders": len(holders)})
	})

	// Claim-code issuing (admin; code delivery happens out of band).
	mux.HandleFunc("/api/claim/new", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !requireAdmin(w, r) {
			return
		}
		var req struct {
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		code, err := hub.claims.IssueCode(req.Address)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"address": req.Address, "code": code})
	})

	// Claim: exchange a one-time code for a token.
	mux.HandleFunc("/api/claim", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Address string `json:"address"`
			Code    string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		token, err := hub.claims.Claim(req.Address, req.Code, extractIP(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	// QR code for an address's claim page, for on-stream display.
	mux.HandleFunc("/api/qr", func(w http.ResponseWriter, r *http.Request) {
		addr := r.URL.Query().Get("addr")
		if addr == "" {
			http.Error(w, "missing addr", http.StatusBadRequest)
			return
		}
		link := publicURL + "/claim?addr=" + url.QueryEscape(addr)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Leaderboard from the durable ledger.
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, http.StatusOK, []LeaderboardEntry{})
			return
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 100 {
			limit = 20
		}
		entries, err := hub.db.GetLeaderboard(r.URL.Query().Get("by"), limit)
		if err != nil {
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []LeaderboardEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	// Live metrics.
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		bubbles, projectiles, tick := hub.sim.Counts()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tick":        tick,
			"bubbles":     bubbles,
			"projectiles": projectiles,
			"viewers":     hub.ClientCount(),
		})
	})

	// Talent catalog, and its reflected JSON schema for client codegen.
	mux.HandleFunc("/api/talents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, TalentCatalog)
	})
	mux.HandleFunc("/api/schema/talents", func(w http.ResponseWriter, r *http.Request) {
		schema := jsonschema.Reflect(&TalentDef{})
		writeJSON(w, http.StatusOK, schema)
	})

	return mux
}
