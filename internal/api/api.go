// Package api provides the HTTP server for Healthbot.
//
// It exposes the chat backend endpoints (/api/chat, /api/chatlog) backed by
// the GenAI client and the store, plus the session endpoints
// (/api/session/...) backed by the conversation engine.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/capshealth/healthbot/internal/chatservice"
	"github.com/capshealth/healthbot/internal/conversation"
	"github.com/capshealth/healthbot/internal/genai"
	"github.com/capshealth/healthbot/internal/store"
)

// Default configuration constants
const (
	// DefaultAddr is the default API server listen address.
	DefaultAddr = ":8080"
	// DefaultReadHeaderTimeout bounds how long the server waits for request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Opts holds API server configuration options.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server bundles the modules the handlers depend on.
type Server struct {
	addr   string
	st     store.Store
	ga     genai.ClientInterface
	engine *conversation.Engine
}

// NewServer creates an API server over the given modules. The GenAI client
// may be nil; the chat endpoint then reports the service as unconfigured.
func NewServer(st store.Store, ga genai.ClientInterface, engine *conversation.Engine, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		addr:   cfg.Addr,
		st:     st,
		ga:     ga,
		engine: engine,
	}
}

// Handler returns the routing table for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.chatHandler)
	mux.HandleFunc("/api/chatlog", s.chatlogHandler)
	mux.HandleFunc("/api/session", s.sessionHandler)
	mux.HandleFunc("/api/session/register", s.registerHandler)
	mux.HandleFunc("/api/session/message", s.messageHandler)
	mux.HandleFunc("/api/session/privacy", s.privacyHandler)
	mux.HandleFunc("/api/session/reset", s.resetHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run assembles all modules from the given options and serves until the
// listener fails. The conversation engine reaches the chat endpoints through
// the chat service client; when no base URL is configured it loops back to
// this server's own address.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, chatOpts []chatservice.Option, convOpts []conversation.Option, apiOpts []Option) error {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	st, err := store.NewStore(storeOpts...)
	if err != nil {
		slog.Error("api.Run: failed to initialize store", "error", err)
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var ga genai.ClientInterface
	if client, err := genai.NewClient(genaiOpts...); err != nil {
		// The session endpoints still work without a GenAI client; only the
		// chat endpoint degrades.
		slog.Warn("api.Run: GenAI client unavailable, chat endpoint disabled", "error", err)
	} else {
		ga = client
	}

	chatCfg := chatservice.Opts{}
	for _, opt := range chatOpts {
		opt(&chatCfg)
	}
	if chatCfg.BaseURL == "" {
		chatOpts = append(chatOpts, chatservice.WithBaseURL(loopbackBaseURL(cfg.Addr)))
	}
	chatClient, err := chatservice.NewClient(chatOpts...)
	if err != nil {
		slog.Error("api.Run: failed to initialize chat service client", "error", err)
		return fmt.Errorf("failed to initialize chat service client: %w", err)
	}

	engine, err := conversation.NewEngine(st, chatClient, convOpts...)
	if err != nil {
		slog.Error("api.Run: failed to initialize conversation engine", "error", err)
		return fmt.Errorf("failed to initialize conversation engine: %w", err)
	}

	srv := NewServer(st, ga, engine, apiOpts...)
	httpServer := &http.Server{
		Addr:              srv.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	slog.Info("api.Run: Healthbot API listening", "addr", srv.addr)
	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("api.Run: server terminated", "error", err)
		return err
	}
	return nil
}

// loopbackBaseURL maps a listen address to a base URL for the in-process
// chat service client.
func loopbackBaseURL(addr string) string {
	if addr == "" {
		addr = DefaultAddr
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
