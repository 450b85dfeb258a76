package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/graph"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/registry"
)

const surface = "mcp"

// toolFunc is the domain side of a tool: it returns the text to send back
// or an error that is reported as a tool error result.
type toolFunc func(ctx context.Context, args map[string]any) (string, error)

var stringItems = map[string]any{"type": "string"}

func (s *Server) registerTools() {
	s.mcp.AddTools(
		server.ServerTool{Tool: composeTool(), Handler: s.instrument("compose", s.compose)},
		server.ServerTool{Tool: listTool(), Handler: s.instrument("list", s.list)},
		server.ServerTool{Tool: recommendTool(), Handler: s.instrument("recommend", s.recommend)},
		server.ServerTool{Tool: resolveTool(), Handler: s.instrument("resolve", s.resolve)},
		server.ServerTool{Tool: checkUpdateTool(), Handler: s.instrument("check_update", s.checkUpdate)},
	)
}

func composeTool() mcpgo.Tool {
	return mcpgo.NewTool("compose",
		mcpgo.WithDescription("Compose a system prompt from a persona and optional skills, contexts, tones and constraints."),
		mcpgo.WithString("persona", mcpgo.Required(), mcpgo.Description("Persona name (e.g. backend-engineer)")),
		mcpgo.WithArray("skills", mcpgo.Description("Skill fragments to include"), mcpgo.Items(stringItems)),
		mcpgo.WithArray("contexts", mcpgo.Description("Context fragments to include"), mcpgo.Items(stringItems)),
		mcpgo.WithArray("tones", mcpgo.Description("Tone fragments to include"), mcpgo.Items(stringItems)),
		mcpgo.WithArray("constraints", mcpgo.Description("Constraint fragments to include"), mcpgo.Items(stringItems)),
		mcpgo.WithReadOnlyHintAnnotation(true),
	)
}

func listTool() mcpgo.Tool {
	return mcpgo.NewTool("list",
		mcpgo.WithDescription("List available fragments, optionally filtered by category, tag or group."),
		mcpgo.WithString("category", mcpgo.Description("Category to list"),
			mcpgo.Enum("persona", "personas", "skill", "skills", "context", "contexts", "tone", "tones", "constraint", "constraints")),
		mcpgo.WithString("tag", mcpgo.Description("Only fragments carrying this tag")),
		mcpgo.WithString("group", mcpgo.Description("Only fragments in this group")),
		mcpgo.WithReadOnlyHintAnnotation(true),
	)
}

func recommendTool() mcpgo.Tool {
	return mcpgo.NewTool("recommend",
		mcpgo.WithDescription("Recommend skills, contexts, tones and constraints for a persona based on its skill groups."),
		mcpgo.WithString("persona", mcpgo.Required(), mcpgo.Description("The persona to get recommendations for (e.g. backend-engineer)")),
		mcpgo.WithArray("groups", mcpgo.Description("Override the persona's skill_groups"), mcpgo.Items(stringItems)),
		mcpgo.WithArray("tags", mcpgo.Description("Filter recommendations by tags"), mcpgo.Items(stringItems)),
		mcpgo.WithReadOnlyHintAnnotation(true),
	)
}

func resolveTool() mcpgo.Tool {
	return mcpgo.NewTool("resolve",
		mcpgo.WithDescription("Resolve the relationship graph around a persona: selected fragments as nodes, shared groups and tags as edges."),
		mcpgo.WithString("persona", mcpgo.Description("Persona to seed the graph with")),
		mcpgo.WithArray("groups", mcpgo.Description("Skill groups to include; defaults to the persona's skill_groups"), mcpgo.Items(stringItems)),
		mcpgo.WithArray("tags", mcpgo.Description("Only include fragments sharing at least one of these tags"), mcpgo.Items(stringItems)),
		mcpgo.WithBoolean("include_edges", mcpgo.Description("Compute edges (default true)")),
		mcpgo.WithReadOnlyHintAnnotation(true),
	)
}

func checkUpdateTool() mcpgo.Tool {
	return mcpgo.NewTool("check_update",
		mcpgo.WithDescription("Check whether a newer version of mimic has been released."),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithOpenWorldHintAnnotation(true),
	)
}

// instrument adapts a toolFunc to the protocol: it tags the context logger
// with a request id, records metrics, and turns errors into tool errors.
func (s *Server) instrument(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		ctx = logger.WithFields(ctx, map[string]interface{}{
			"tool":       name,
			"request_id": uuid.NewString(),
		})
		log := logger.G(ctx)
		log.Debug("tool call started")

		start := time.Now()
		text, err := fn(ctx, req.GetArguments())
		s.metrics.ObserveRequest(surface, name, err, time.Since(start).Seconds())

		if err != nil {
			log.WithError(err).Warn("tool call failed")
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		log.Debug("tool call finished")
		return mcpgo.NewToolResultText(text), nil
	}
}

func decodeArgs(args map[string]any, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create argument decoder")
	}
	if err := dec.Decode(args); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

func toJSON(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode result")
	}
	return string(out), nil
}

func (s *Server) compose(ctx context.Context, args map[string]any) (string, error) {
	var req compose.Request
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	if req.Persona == "" {
		return "", errors.New("persona is required")
	}

	prompt, err := compose.Compose(s.store.Current(), req)
	if err != nil {
		return "", err
	}

	if s.checker != nil {
		if info, ok := s.checker.Cached(); ok {
			prompt += info.Notice()
		}
	}
	return prompt, nil
}

// listEntry is the per-fragment shape returned by the list tool.
type listEntry struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Group       string   `json:"group,omitempty"`
	Level       string   `json:"level,omitempty"`
	SkillGroups []string `json:"skill_groups,omitempty"`
}

type listArgs struct {
	Category string `mapstructure:"category"`
	Tag      string `mapstructure:"tag"`
	Group    string `mapstructure:"group"`
}

func (s *Server) list(ctx context.Context, args map[string]any) (string, error) {
	var la listArgs
	if err := decodeArgs(args, &la); err != nil {
		return "", err
	}

	filter := registry.Filter{Tag: la.Tag, Group: la.Group}
	if la.Category != "" {
		cat, ok := fragments.ParseCategory(la.Category)
		if !ok {
			return "", errors.Errorf("unknown category '%s'", la.Category)
		}
		filter.Category = cat
	}

	frags := s.store.Current().List(filter)
	entries := make([]listEntry, 0, len(frags))
	for _, f := range frags {
		entries = append(entries, listEntry{
			Name:        f.Name,
			Category:    string(f.Category),
			Description: f.Description,
			Tags:        f.Tags,
			Group:       f.Group,
			Level:       f.Level,
			SkillGroups: f.SkillGroups,
		})
	}
	logger.G(ctx).WithField("count", len(entries)).Debug("listed fragments")
	return toJSON(entries)
}

func (s *Server) recommend(_ context.Context, args map[string]any) (string, error) {
	var q graph.RecommendQuery
	if err := decodeArgs(args, &q); err != nil {
		return "", err
	}

	recs, err := graph.Recommend(s.store.Current(), q)
	if err != nil {
		return "", err
	}
	return toJSON(recs)
}

func (s *Server) resolve(ctx context.Context, args map[string]any) (string, error) {
	var q graph.Query
	if err := decodeArgs(args, &q); err != nil {
		return "", err
	}

	result, err := graph.Resolve(ctx, s.store.Current(), q)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (s *Server) checkUpdate(ctx context.Context, _ map[string]any) (string, error) {
	if s.checker == nil {
		return "", errors.New("update checks are disabled")
	}
	return toJSON(s.checker.Check(ctx))
}
