package bridgeserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Options configures New. Meta, Blobs and a non-empty Secret are required.
type Options struct {
	// Users maps account names to plaintext passwords.
	Users    map[string]string
	Secret   []byte
	TokenTTL time.Duration

	Meta   *MetaStore
	Blobs  BlobStore
	Logger *zap.Logger
}

// Server serves the bridge HTTP API.
type Server struct {
	meta   *MetaStore
	blobs  BlobStore
	tokens *TokenIssuer
	log    *zap.Logger
	router chi.Router
}

// New wires the routes.
func New(opts Options) (*Server, error) {
	if opts.Meta == nil || opts.Blobs == nil {
		return nil, errors.New("bridgeserver: meta and blob stores are required")
	}
	if len(opts.Users) == 0 {
		return nil, errors.New("bridgeserver: at least one user is required")
	}
	tokens, err := NewTokenIssuer(opts.Secret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		meta:   opts.Meta,
		blobs:  opts.Blobs,
		tokens: tokens,
		log:    log.Named("bridgeserver"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLogging(s.log))

	r.Get("/health", s.health)

	r.Group(func(r chi.Router) {
		r.Use(withBasicAuth(opts.Users))

		r.Get("/buckets", s.listBuckets)
		r.Post("/buckets", s.createBucket)
		r.Delete("/buckets/{bucketID}", s.deleteBucket)

		r.Get("/buckets/{bucketID}/files", s.listFiles)
		r.Put("/buckets/{bucketID}/files", s.storeFile)
		r.Get("/buckets/{bucketID}/files/{fileID}", s.getFile)
		r.Delete("/buckets/{bucketID}/files/{fileID}", s.deleteFile)

		r.Post("/buckets/{bucketID}/tokens", s.createToken)
	})

	s.router = r
	return s, nil
}

// Handler returns the root handler, for httptest or a custom http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
