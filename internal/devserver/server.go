// Package devserver serves the build output directory during development:
// static files with single-page-app fallback routing and live-reload pushes
// to connected browsers after each successful rebuild.
package devserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Options configures the development server.
type Options struct {
	Port        int  // listen port
	SPAFallback bool // rewrite unmatched paths to the root document
	LiveReload  bool // push reload notifications to connected clients
}

// Server serves a build output directory over HTTP.
type Server struct {
	root string
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	clients map[chan struct{}]struct{}

	httpSrv *http.Server
}

// New creates a Server for the given output directory.
func New(root string, opts Options, log zerolog.Logger) *Server {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	return &Server{
		root:    root,
		opts:    opts,
		log:     log,
		clients: make(map[chan struct{}]struct{}),
	}
}

// Handler builds the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.opts.LiveReload {
		r.Get("/__livereload", s.handleEventStream)
		r.Get("/__livereload.js", s.handleClientScript)
	}
	r.Get("/*", s.handleStatic)

	return r
}

// Start listens until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.opts.Port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Int("port", s.opts.Port).Str("root", s.root).Msg("dev server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Notify pushes a reload notification to every connected client. Called
// after each successful rebuild. Non-blocking.
func (s *Server) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	reqPath := path.Clean("/" + r.URL.Path)
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	full := filepath.Join(s.root, filepath.FromSlash(reqPath))
	fi, err := os.Stat(full)
	switch {
	case err == nil && !fi.IsDir():
		s.serveFile(w, r, full)
	case s.opts.SPAFallback && path.Ext(reqPath) == "":
		// Client-side routes have no extension; hand them the root document.
		s.serveFile(w, r, filepath.Join(s.root, "index.html"))
	default:
		http.NotFound(w, r)
	}
}

// serveFile serves a single artifact. HTML documents get the live-reload
// client injected when enabled.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, full string) {
	if s.opts.LiveReload && filepath.Ext(full) == ".html" {
		data, err := os.ReadFile(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data = injectReloadScript(data)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
		return
	}
	http.ServeFile(w, r, full)
}

const reloadScriptTag = `<script src="/__livereload.js"></script>`

// injectReloadScript inserts the live-reload client before </body>, or
// appends it when the document has no closing body tag.
func injectReloadScript(doc []byte) []byte {
	marker := []byte("</body>")
	if i := bytes.LastIndex(doc, marker); i >= 0 {
		var out bytes.Buffer
		out.Grow(len(doc) + len(reloadScriptTag))
		out.Write(doc[:i])
		out.WriteString(reloadScriptTag)
		out.Write(doc[i:])
		return out.Bytes()
	}
	return append(doc, []byte(reloadScriptTag)...)
}

const clientScript = `(() => {
  const source = new EventSource("/__livereload");
  source.addEventListener("reload", () => location.reload());
})();
`

func (s *Server) handleClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Write([]byte(clientScript))
}

// handleEventStream holds a server-sent-events connection open and emits a
// reload event whenever Notify is called.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, ch)
		s.mu.Unlock()
	}()

	fmt.Fprint(w, "retry: 1000\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			fmt.Fprint(w, "event: reload\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
