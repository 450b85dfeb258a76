package mcp

import (
	"context"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/registry"
)

const (
	resourcePrefix = "mimic://fragments/"
	markdownMIME   = "text/markdown"
)

// ResourceURI is the address a fragment is published under.
func ResourceURI(f *fragments.Fragment) string {
	return resourcePrefix + f.Category.DirName() + "/" + f.Name
}

// parseResourceURI splits "mimic://fragments/<dir>/<name>".
func parseResourceURI(uri string) (fragments.Category, string, error) {
	rest, ok := strings.CutPrefix(uri, resourcePrefix)
	if !ok {
		return "", "", errors.Errorf("unknown resource '%s'", uri)
	}
	dir, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		return "", "", errors.Errorf("unknown resource '%s'", uri)
	}
	cat, ok := fragments.CategoryFromDir(dir)
	if !ok {
		return "", "", errors.Errorf("unknown resource '%s'", uri)
	}
	return cat, name, nil
}

func (s *Server) fragmentResources(snap *registry.Snapshot) []server.ServerResource {
	frags := snap.List(registry.Filter{})
	out := make([]server.ServerResource, 0, len(frags))
	for _, f := range frags {
		out = append(out, server.ServerResource{
			Resource: mcpgo.NewResource(ResourceURI(f), f.ID(),
				mcpgo.WithResourceDescription(f.Description),
				mcpgo.WithMIMEType(markdownMIME),
			),
			Handler: s.readResource,
		})
	}
	return out
}

func (s *Server) readResource(_ context.Context, req mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
	cat, name, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	f, err := s.store.Current().MustGet(cat, name)
	if err != nil {
		return nil, err
	}

	return []mcpgo.ResourceContents{
		mcpgo.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: markdownMIME,
			Text:     f.Body,
		},
	}, nil
}
