package mcp

import (
	"context"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/registry"
)

const (
	promptPrefix = "mimic-"
	defaultTone  = "concise"
)

func (s *Server) personaPrompts(snap *registry.Snapshot) []server.ServerPrompt {
	personas := snap.List(registry.Filter{Category: fragments.CategoryPersona})
	out := make([]server.ServerPrompt, 0, len(personas))
	for _, p := range personas {
		out = append(out, server.ServerPrompt{
			Prompt: mcpgo.NewPrompt(promptPrefix+p.Name,
				mcpgo.WithPromptDescription(p.Description),
				mcpgo.WithArgument("skills", mcpgo.ArgumentDescription("Comma-separated skill names to include")),
				mcpgo.WithArgument("tone", mcpgo.ArgumentDescription("Tone to use (default: concise)")),
			),
			Handler: s.getPrompt,
		})
	}
	return out
}

func (s *Server) getPrompt(_ context.Context, req mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
	snap := s.store.Current()
	persona := strings.TrimPrefix(req.Params.Name, promptPrefix)

	p, err := snap.MustGet(fragments.CategoryPersona, persona)
	if err != nil {
		return nil, err
	}

	creq := compose.Request{Persona: persona, Skills: splitList(req.Params.Arguments["skills"])}
	tone := strings.TrimSpace(req.Params.Arguments["tone"])
	switch {
	case tone != "":
		creq.Tones = []string{tone}
	default:
		if _, ok := snap.Get(fragments.CategoryTone, defaultTone); ok {
			creq.Tones = []string{defaultTone}
		}
	}

	text, err := compose.Compose(snap, creq)
	if err != nil {
		return nil, err
	}

	return mcpgo.NewGetPromptResult(p.Description, []mcpgo.PromptMessage{
		mcpgo.NewPromptMessage(mcpgo.RoleUser, mcpgo.NewTextContent(text)),
	}), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
