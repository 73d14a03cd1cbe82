package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/hub"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
)

// CvarStore is the cvar registry as seen by viewers.
type CvarStore interface {
	hub.CvarSetter
	Snapshot() []cvar.Cvar
}

// Server serves the viewer frontend, the websocket feed and the cvar API.
type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	cvars       CvarStore
	frontendFS  fs.FS
	addr        string
	httpServer  *http.Server
}

// New creates a server listening on addr once ListenAndServe is called.
func New(h *hub.Hub, b *hub.Broadcaster, cvars CvarStore, frontendFS fs.FS, addr string) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		cvars:       cvars,
		frontendFS:  frontendFS,
		addr:        addr,
	}
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`[/+]json$`), json.Minify)
	return m
}

// Handler returns the HTTP routes of the viewer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.broadcaster, s.cvars))
	mux.HandleFunc("GET /api/cvars", handleListCvars(s.cvars))
	mux.HandleFunc("POST /api/cvars", handleSetCvar(s.cvars))

	// Static files (frontend), minified on the way out
	fileServer := http.FileServer(http.FS(s.frontendFS))
	mux.Handle("/", newMinifier().Middleware(fileServer))

	return mux
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("HTTP server listening", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("Shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
