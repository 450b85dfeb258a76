// Package mcp exposes the fragment registry as a Model Context Protocol
// server over stdio: tools for composing, listing, recommending and
// resolving fragments, one resource per fragment, and one prompt per persona.
package mcp

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/metrics"
	"github.com/mimic-ai/mimic/pkg/registry"
	"github.com/mimic-ai/mimic/pkg/version"
)

const serverName = "mimic"

const instructions = `mimic composes system prompts from reusable fragments: personas, skills, contexts, tones and constraints.

Recommended workflow:
1. Call "recommend" with a persona to see which skills, contexts, tones and constraints fit it.
2. Pick from the recommendations (or call "list" to browse everything).
3. Call "compose" with the persona and your selections to get the assembled prompt.

Use "resolve" to inspect how fragments relate to each other through skill groups and shared tags.`

// SnapshotSource hands out the registry snapshot to serve a request from.
type SnapshotSource interface {
	Current() *registry.Snapshot
}

// Server wraps an MCP server whose tools, resources and prompts read from
// the current registry snapshot.
type Server struct {
	store   SnapshotSource
	checker *version.Checker
	metrics *metrics.Metrics
	mcp     *server.MCPServer

	mu        sync.Mutex
	resources map[string]struct{}
	prompts   map[string]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithUpdateChecker enables the check_update tool and the update notice
// appended by compose.
func WithUpdateChecker(c *version.Checker) Option {
	return func(s *Server) {
		s.checker = c
	}
}

// WithMetrics records per-tool request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates the server and registers everything derived from the
// store's current snapshot.
func New(store SnapshotSource, opts ...Option) *Server {
	s := &Server{
		store:     store,
		resources: map[string]struct{}{},
		prompts:   map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		serverName,
		version.Get().Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.registerTools()
	s.Refresh(store.Current())
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Refresh re-registers the per-fragment resources and per-persona prompts
// from snap. Call it after every registry rebuild.
func (s *Server) Refresh(snap *registry.Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resources := s.fragmentResources(snap)
	next := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		next[r.Resource.URI] = struct{}{}
	}
	for uri := range s.resources {
		if _, ok := next[uri]; !ok {
			s.mcp.RemoveResource(uri)
		}
	}
	if len(resources) > 0 {
		s.mcp.AddResources(resources...)
	}
	s.resources = next

	prompts := s.personaPrompts(snap)
	nextPrompts := make(map[string]struct{}, len(prompts))
	for _, p := range prompts {
		nextPrompts[p.Prompt.Name] = struct{}{}
	}
	var stale []string
	for name := range s.prompts {
		if _, ok := nextPrompts[name]; !ok {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		s.mcp.DeletePrompts(stale...)
	}
	if len(prompts) > 0 {
		s.mcp.AddPrompts(prompts...)
	}
	s.prompts = nextPrompts
}

// ServeStdio serves the protocol on in/out until ctx is cancelled or the
// input is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	w := logger.G(ctx).WithField("component", "mcp").WriterLevel(logrus.ErrorLevel)
	defer w.Close()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(w, "", 0))

	logger.G(ctx).Info("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "mcp stdio server failed")
	}
	return nil
}
