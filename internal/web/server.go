// Package web serves the calculator keypad to a browser.
//
// The page forwards key presses over a WebSocket; each connection owns one
// calculator session and receives the rendered display after every key.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sivchari/gocalc/internal/config"
	"github.com/sivchari/gocalc/internal/history"
	"github.com/sivchari/gocalc/pkg/gocalc"
)

//go:embed static/index.html
var indexHTML []byte

// Message types exchanged over the WebSocket.
const (
	MessageKey     = "key"
	MessagePing    = "ping"
	MessagePong    = "pong"
	MessageDisplay = "display"
	MessageError   = "error"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

// DisplayMessage carries everything the page needs to render the calculator.
type DisplayMessage struct {
	Type           string `json:"type"`
	Display        string `json:"display"`
	DecimalAllowed bool   `json:"decimalAllowed"`
	FontSize       int    `json:"fontSize"`
	Phase          string `json:"phase"`
	Alert          string `json:"alert,omitempty"`
}

// StatusMessage answers pings and reports protocol errors.
type StatusMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// Server is the browser presentation adapter.
type Server struct {
	config   *config.Config
	tape     *history.Store
	upgrader websocket.Upgrader
}

// New creates a server whose sessions all record into tape.
func New(cfg *config.Config, tape *history.Store) *Server {
	s := &Server{
		config: cfg,
		tape:   tape,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/healthz", JSON(http.HandlerFunc(s.handleHealth)))
	mux.HandleFunc("/ws", s.handleWebSocket)

	middlewares := []Middleware{Security}
	if s.config.Verbose {
		middlewares = append([]Middleware{Logger}, middlewares...)
	}

	return Chain(mux, middlewares...)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		timeout := time.Duration(s.config.Server.ShutdownTimeout) * time.Second

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)

		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.tape.GetStats()

	response := map[string]interface{}{
		"status":       "ok",
		"computations": stats.Total,
		"timestamp":    time.Now(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil && s.config.Verbose {
		log.Printf("Warning: failed to write health response: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		if s.config.Verbose {
			log.Printf("WebSocket upgrade failed: %v", err)
		}

		return
	}
	defer conn.Close()

	session := gocalc.NewSessionWithTape(s.config, s.tape)

	if err := conn.WriteJSON(displayMessage(gocalc.Update{State: session.State()})); err != nil {
		return
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Warning: WebSocket closed unexpectedly: %v", err)
			}

			return
		}

		if err := conn.WriteJSON(s.reply(session, msg)); err != nil {
			return
		}
	}
}

// reply handles one client message.
func (s *Server) reply(session *gocalc.Session, msg ClientMessage) interface{} {
	switch msg.Type {
	case MessagePing:
		return StatusMessage{Type: MessagePong}
	case MessageKey:
		update, err := session.Press(msg.Key)
		if err != nil {
			return StatusMessage{Type: MessageError, Error: err.Error()}
		}

		return displayMessage(update)
	default:
		return StatusMessage{Type: MessageError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

// checkOrigin accepts same-host origins and any listed in the configuration.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, r.Host)
}

func displayMessage(update gocalc.Update) DisplayMessage {
	return DisplayMessage{
		Type:           MessageDisplay,
		Display:        update.Display,
		DecimalAllowed: update.DecimalAllowed,
		FontSize:       FontSize(len(update.Display)),
		Phase:          string(update.Phase),
		Alert:          update.Alert,
	}
}

// FontSize returns the display font size in pixels for a display of n characters.
func FontSize(n int) int {
	switch {
	case n > 20:
		return 15
	case n > 15:
		return 20
	case n > 10:
		return 30
	default:
		return 50
	}
}
