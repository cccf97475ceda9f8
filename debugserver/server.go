package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/parameter"
)

// Config for the introspection server. It should stay bound to localhost.
type Config struct {
	Enabled        bool     `yaml:"enabled"`
	Addr           string   `yaml:"addr"`
	RateLimit      float64  `yaml:"rate_limit"` // requests per second per IP
	Burst          int      `yaml:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	CellPixels     int      `yaml:"cell_pixels"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Addr:           parameter.DebugListenAddr,
		RateLimit:      parameter.DebugRateLimitPerSec,
		Burst:          parameter.DebugRateLimitBurst,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		CellPixels:     parameter.DebugRenderCellPixels,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("debug addr %q: %w", c.Addr, err)
	}
	if c.RateLimit <= 0 || c.Burst <= 0 {
		return fmt.Errorf("debug rate limit must be positive")
	}
	if c.CellPixels <= 0 {
		return fmt.Errorf("debug cell_pixels must be positive")
	}
	return nil
}

// Server exposes read-only debug endpoints over the published view
type Server struct {
	cfg      Config
	hub      *Hub
	log      *slog.Logger
	gatherer prometheus.Gatherer
	limiter  *ipLimiter
	upgrader websocket.Upgrader
	router   chi.Router
}

func New(cfg Config, hub *Hub, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		hub:      hub,
		log:      log,
		gatherer: gatherer,
		limiter:  newIPLimiter(cfg.RateLimit, cfg.Burst, 5*time.Minute),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/debug", func(r chi.Router) {
		r.Get("/nav", s.handleNav)
		r.Get("/nav/{profile}", s.handleField)
		r.Get("/blocked", s.handleBlocked)
		r.Get("/entities", s.handleEntities)
		r.Get("/checksums", s.handleChecksums)
	})
	return r
}

// Handler returns the router for httptest
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.limiter.sweep(now)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("debug server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("debug server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), parameter.DebugShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("debug server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if matchOrigin(allowed, origin) {
			return true
		}
	}
	s.log.Warn("websocket origin rejected", "origin", origin)
	return false
}

// matchOrigin supports a single * wildcard, as the CORS options do
func matchOrigin(pattern, origin string) bool {
	prefix, suffix, wild := strings.Cut(pattern, "*")
	if !wild {
		return pattern == origin
	}
	return len(origin) >= len(prefix)+len(suffix) && strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) currentView(w http.ResponseWriter) *View {
	v := s.hub.View()
	if v == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame published yet")
	}
	return v
}

type fieldSummary struct {
	Profile      string             `json:"profile"`
	Target       navigation.GridPos `json:"target"`
	Radius       int32              `json:"radius"`
	Cells        int                `json:"cells"`
	DiagonalCost int32              `json:"diagonal_cost"`
}

type navSummary struct {
	Frame     uint32             `json:"frame"`
	Confirmed uint32             `json:"confirmed"`
	Target    navigation.GridPos `json:"target"`
	Rebuilds  uint32             `json:"rebuilds"`
	Fields    []fieldSummary     `json:"fields"`
	Blocked   map[string]int     `json:"blocked"`
}

func (s *Server) handleNav(w http.ResponseWriter, _ *http.Request) {
	v := s.currentView(w)
	if v == nil {
		return
	}
	out := navSummary{
		Frame:     v.Frame,
		Confirmed: v.Confirmed,
		Target:    v.Target,
		Rebuilds:  v.Rebuilds,
		Fields:    make([]fieldSummary, 0, len(v.Fields)),
		Blocked:   map[string]int{"wall": v.Blocked.Walls.Len()},
	}
	for _, f := range v.Fields {
		out.Fields = append(out.Fields, fieldSummary{
			Profile:      f.Profile.String(),
			Target:       f.Target,
			Radius:       f.Radius,
			Cells:        f.Len(),
			DiagonalCost: f.DiagonalCost,
		})
	}
	for _, t := range navigation.ObstacleTypes {
		if n := v.Blocked.Of(t).Len(); n > 0 {
			out.Blocked[t.String()] += n
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type fieldDump struct {
	Frame        uint32             `json:"frame"`
	Profile      string             `json:"profile"`
	Target       navigation.GridPos `json:"target"`
	Radius       int32              `json:"radius"`
	DiagonalCost int32              `json:"diagonal_cost"`
	Entries      []navigation.Entry `json:"entries"`
}

// handleField serves the sorted entries, or a PNG when the profile ends in .png
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "profile")
	name, png := strings.CutSuffix(name, ".png")
	profile, err := navigation.ParseProfile(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	v := s.currentView(w)
	if v == nil {
		return
	}
	f := v.Field(profile)
	if f == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no field for profile %s", profile))
		return
	}

	if png {
		w.Header().Set("Content-Type", "image/png")
		if err := WriteFieldPNG(w, f, &v.Blocked, s.cfg.CellPixels); err != nil {
			s.log.Warn("encoding flow field png", "profile", profile.String(), "err", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, fieldDump{
		Frame:        v.Frame,
		Profile:      profile.String(),
		Target:       f.Target,
		Radius:       f.Radius,
		DiagonalCost: f.DiagonalCost,
		Entries:      f.Entries(),
	})
}

func (s *Server) handleBlocked(w http.ResponseWriter, _ *http.Request) {
	v := s.currentView(w)
	if v == nil {
		return
	}
	out := map[string][]navigation.GridPos{"wall": v.Blocked.Walls.Cells()}
	for _, t := range navigation.ObstacleTypes {
		if cells := v.Blocked.Of(t).Cells(); len(cells) > 0 {
			out[t.String()] = append(out[t.String()], cells...)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	v := s.currentView(w)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, v.Entities)
}

// handleChecksums streams confirmed frame checksums as JSON text messages
func (s *Server) handleChecksums(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	feed, leave := s.hub.Subscribe(64)
	defer leave()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case c := <-feed:
			msg, err := json.Marshal(c)
			if err != nil {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(parameter.DebugWSWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
