// Package wsapi serves the interactive lookup session over a WebSocket: one
// connection is one client with its own run session and autocomplete state.
package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/i474232898/weather-lookup/internal/present"
	"github.com/i474232898/weather-lookup/internal/suggest"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Client message types.
const (
	msgQuery  = "query"
	msgSearch = "search"
	msgLocate = "locate"
	msgRecent = "recent"

	geoUnsupported = "unsupported"
)

// Server message types.
const (
	msgSuggestions = "suggestions"
	msgStage       = "stage"
	msgReport      = "report"
	msgError       = "error"
)

type clientMessage struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
	City  string `json:"city,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	// Error is set by a client whose geolocation request failed; the value
	// "unsupported" means the client has no geolocation.
	Error string `json:"error,omitempty"`
}

type serverMessage struct {
	Type       string          `json:"type"`
	Generation uint64          `json:"generation,omitempty"`
	Query      string          `json:"query,omitempty"`
	Places     []suggestion    `json:"suggestions,omitempty"`
	Recent     []string        `json:"recent,omitempty"`
	RunID      string          `json:"runId,omitempty"`
	State      string          `json:"state,omitempty"`
	Report     *weather.Report `json:"report,omitempty"`
	View       *present.View   `json:"view,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type suggestion struct {
	weather.Place
	Label string `json:"label"`
}

// Options configures a Server.
type Options struct {
	Runner    weather.Runner
	Suggester suggest.Suggester
	Recent    suggest.RecentLister
	Debounce  time.Duration
	Logger    *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*conn
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*conn),
	}
}

// Router returns the HTTP routes of the WebSocket listener.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	return r
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ServeWS upgrades the request and runs the connection until the client leaves.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	netConn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &conn{
		id:  uuid.NewString(),
		raw: netConn,
	}
	c.logger = s.logger.With(zap.String("session_id", c.id))
	c.session = weather.NewSession(s.opts.Runner)
	c.suggest = suggest.NewController(s.opts.Suggester, s.opts.Recent, s.opts.Debounce, c.deliverSuggestions, c.logger)

	s.mu.Lock()
	s.sessions[c.id] = c
	s.mu.Unlock()
	c.logger.Debug("websocket session opened")

	defer func() {
		s.mu.Lock()
		delete(s.sessions, c.id)
		s.mu.Unlock()
		c.close()
		c.logger.Debug("websocket session closed")
	}()

	c.readLoop()
}

type conn struct {
	id      string
	raw     net.Conn
	logger  *zap.Logger
	session *weather.Session
	suggest *suggest.Controller

	writeMu sync.Mutex
	closed  bool
}

func (c *conn) readLoop() {
	for {
		data, op, err := wsutil.ReadClientData(c.raw)
		if err != nil {
			if !isClosed(err) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if op == ws.OpClose {
			return
		}
		if op != ws.OpText && op != ws.OpBinary {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(serverMessage{Type: msgError, Message: "invalid message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *conn) handle(msg clientMessage) {
	switch msg.Type {
	case msgQuery:
		c.suggest.OnQueryChanged(msg.Query)
	case msgSearch:
		ticket := c.begin()
		go c.finish(ticket, weather.UserMessage, func() (weather.Report, error) {
			return ticket.ByName(msg.City)
		})
	case msgLocate:
		if err := locateError(msg); err != nil {
			c.sendError(err)
			return
		}
		lat, lon := *msg.Lat, *msg.Lon
		ticket := c.begin()
		go c.finish(ticket, weather.CoordsUserMessage, func() (weather.Report, error) {
			return ticket.ByCoords(lat, lon)
		})
	case msgRecent:
		c.suggest.OnQueryChanged("")
	default:
		c.send(serverMessage{Type: msgError, Message: "unknown message type"})
	}
}

func locateError(msg clientMessage) error {
	switch {
	case msg.Error == geoUnsupported:
		return weather.ErrGeolocationUnsupported
	case msg.Error != "" || msg.Lat == nil || msg.Lon == nil:
		return weather.ErrGeolocationUnavailable
	}
	return nil
}

// begin claims the session's next generation in message order. Stage frames
// stop once a newer run has been claimed.
func (c *conn) begin() *weather.Ticket {
	var ticket *weather.Ticket
	ctx := weather.WithObserver(context.Background(), func(runID string, state weather.RunState, _ error) {
		if !ticket.Current() {
			return
		}
		c.send(serverMessage{Type: msgStage, RunID: runID, State: state.String()})
	})
	ticket = c.session.Begin(ctx)
	return ticket
}

func (c *conn) finish(ticket *weather.Ticket, message func(error) string, run func() (weather.Report, error)) {
	report, err := run()
	if errors.Is(err, weather.ErrSuperseded) {
		return
	}
	if err != nil {
		c.send(serverMessage{Type: msgError, Message: message(err)})
		return
	}
	if !ticket.Current() {
		return
	}

	view := present.NewView(report)
	c.send(serverMessage{Type: msgReport, Report: &report, View: &view})
}

func (c *conn) deliverSuggestions(res suggest.Result) {
	if res.Recent != nil {
		c.send(serverMessage{Type: msgRecent, Generation: res.Generation, Recent: res.Recent})
		return
	}
	if res.Err != nil {
		c.send(serverMessage{Type: msgError, Generation: res.Generation, Message: weather.UserMessage(res.Err)})
		return
	}

	places := make([]suggestion, 0, len(res.Places))
	for _, p := range res.Places {
		places = append(places, suggestion{Place: p, Label: present.SuggestionLabel(p)})
	}
	c.send(serverMessage{Type: msgSuggestions, Generation: res.Generation, Query: res.Query, Places: places})
}

func (c *conn) sendError(err error) {
	c.send(serverMessage{Type: msgError, Message: weather.UserMessage(err)})
}

func (c *conn) send(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	if err := wsutil.WriteServerMessage(c.raw, ws.OpText, data); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (c *conn) close() {
	c.suggest.Close()
	c.session.Close()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.closed {
		c.closed = true
		_ = c.raw.Close()
	}
}

func isClosed(err error) bool {
	var closed wsutil.ClosedError
	return errors.As(err, &closed)
}
