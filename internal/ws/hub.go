package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"unicode/utf8"

	"github.com/coder/websocket"

	"github.com/vladimirvolkov/cannonball/internal/middleware"
)

const (
	maxNickname        = 12
	readLimit          = 1024 // client frames are tiny
	defaultName        = "Gunner"
	defaultMaxSessions = 100
)

// sanitizeNickname keeps letters, digits, underscore, dash, space and
// cyrillic, and enforces a 2-12 rune length.
func sanitizeNickname(raw string) string {
	if !utf8.ValidString(raw) {
		return defaultName
	}
	cleaned := []rune{}
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' || r == ' ' ||
			(r >= 0x0400 && r <= 0x04FF) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) < 2 {
		return defaultName
	}
	if len(cleaned) > maxNickname {
		cleaned = cleaned[:maxNickname]
	}
	return string(cleaned)
}

// SessionCreator starts a game for a freshly accepted connection.
type SessionCreator interface {
	CreateSession(c *Conn)
}

// HubStats holds live server metrics.
type HubStats struct {
	ActiveSessions   int64  `json:"activeSessions"`
	TotalConnections uint64 `json:"totalConnections"`
	Rejected         uint64 `json:"rejected"`
}

type Hub struct {
	creator     SessionCreator
	nextID      atomic.Uint64
	maxSessions int64

	activeSessions   atomic.Int64
	totalConnections atomic.Uint64
	rejected         atomic.Uint64

	limiter        *middleware.IPRateLimiter
	originPatterns []string
}

func NewHub(creator SessionCreator, limiter *middleware.IPRateLimiter, originPatterns []string, maxSessions int) *Hub {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Hub{
		creator:        creator,
		maxSessions:    int64(maxSessions),
		limiter:        limiter,
		originPatterns: originPatterns,
	}
}

// Stats returns a snapshot of current server metrics.
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveSessions:   h.activeSessions.Load(),
		TotalConnections: h.totalConnections.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// SessionEnded decrements the active session counter. Call when a session
// goroutine exits.
func (h *Hub) SessionEnded() {
	h.activeSessions.Add(-1)
}

// reserve claims a session slot, failing once maxSessions are live.
func (h *Hub) reserve() bool {
	for {
		n := h.activeSessions.Load()
		if n >= h.maxSessions {
			return false
		}
		if h.activeSessions.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)
	if h.limiter != nil && !h.limiter.ConnectAllowed(ip) {
		h.rejected.Add(1)
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	release := func() {
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
	}

	if !h.reserve() {
		h.rejected.Add(1)
		release()
		log.Printf("max sessions reached, rejecting %s", ip)
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}
	c, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		h.SessionEnded()
		release()
		log.Printf("ws accept error: %v", err)
		return
	}
	c.SetReadLimit(readLimit)

	h.totalConnections.Add(1)
	id := fmt.Sprintf("gunner-%d", h.nextID.Add(1))
	var limiter MessageLimiter
	if h.limiter != nil {
		limiter = h.limiter
	}
	conn := NewConn(c, id, ip, limiter)
	conn.Nickname = sanitizeNickname(r.URL.Query().Get("name"))
	log.Printf("new connection: %s [%s] from %s (total: %d)", id, conn.Nickname, ip, h.totalConnections.Load())

	// The connection outlives the request context.
	go conn.WriteLoop(context.Background())
	go func() {
		<-conn.Done()
		release()
	}()

	h.creator.CreateSession(conn)

	// Hold the handler open for as long as the socket lives.
	<-conn.Done()
	log.Printf("connection closed: %s", id)
}
