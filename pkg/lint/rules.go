// Package lint checks fragment documents for problems the registry would
// silently tolerate: undecodable metadata, empty bodies, missing fields and
// misfiled root-level documents.
package lint

import (
	"fmt"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

// Severity of a diagnostic. Errors fail the lint run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Rule, d.Path, d.Message)
}

// Context is everything a rule may look at for one document.
type Context struct {
	Path      string
	Name      string
	Category  fragments.Category
	Origin    fragments.Origin
	RootLevel bool

	// Metadata is nil when the metadata block failed to decode.
	Metadata    *fragments.Metadata
	DecodeError error
	UnknownKeys []string
	Body        string
}

// NewContext parses raw with the strict parser. A document whose metadata
// cannot be decoded keeps its whole raw text as body.
func NewContext(raw, path string, category fragments.Category, origin fragments.Origin, rootLevel bool) *Context {
	ctx := &Context{
		Path:      path,
		Name:      fragments.NameFromFile(path),
		Category:  category,
		Origin:    origin,
		RootLevel: rootLevel,
	}

	doc, err := fragments.ParseStrict(raw)
	if err != nil {
		ctx.DecodeError = err
		ctx.Body = raw
		return ctx
	}

	meta := doc.Metadata
	ctx.Metadata = &meta
	ctx.UnknownKeys = doc.UnknownKeys
	ctx.Body = doc.Body
	return ctx
}

// Rule inspects one document.
type Rule struct {
	Name  string
	Check func(ctx *Context) []string
	// Severity applies to every message the rule returns.
	Severity Severity
}

// DefaultRules in reporting order.
var DefaultRules = []Rule{
	{"valid-yaml", checkValidYAML, SeverityError},
	{"non-empty-body", checkNonEmptyBody, SeverityError},
	{"has-description", checkHasDescription, SeverityWarning},
	{"has-tags", checkHasTags, SeverityWarning},
	{"unknown-fields", checkUnknownFields, SeverityWarning},
	{"skill-has-group", checkSkillHasGroup, SeverityWarning},
	{"persona-has-level", checkPersonaHasLevel, SeverityWarning},
	{"persona-has-skill-groups", checkPersonaHasSkillGroups, SeverityWarning},
	{"root-file-has-category", checkRootFileHasCategory, SeverityError},
	{"category-conflict", checkCategoryConflict, SeverityWarning},
}

func checkValidYAML(ctx *Context) []string {
	if ctx.DecodeError == nil {
		return nil
	}
	return []string{fmt.Sprintf("invalid YAML frontmatter: %v", ctx.DecodeError)}
}

func checkNonEmptyBody(ctx *Context) []string {
	if isBlank(ctx.Body) {
		return []string{"body is empty"}
	}
	return nil
}

func checkHasDescription(ctx *Context) []string {
	if ctx.Metadata != nil && ctx.Metadata.Description == nil {
		return []string{"missing `description` field in frontmatter"}
	}
	return nil
}

func checkHasTags(ctx *Context) []string {
	if ctx.Metadata != nil && len(ctx.Metadata.Tags) == 0 {
		return []string{"missing or empty `tags` field"}
	}
	return nil
}

func checkUnknownFields(ctx *Context) []string {
	var out []string
	for _, k := range ctx.UnknownKeys {
		out = append(out, fmt.Sprintf("unknown frontmatter field `%s`", k))
	}
	return out
}

func checkSkillHasGroup(ctx *Context) []string {
	if ctx.Category == fragments.CategorySkill && ctx.Metadata != nil && ctx.Metadata.Group == "" {
		return []string{"skill is missing `group` field"}
	}
	return nil
}

func checkPersonaHasLevel(ctx *Context) []string {
	if ctx.Category == fragments.CategoryPersona && ctx.Metadata != nil && ctx.Metadata.Level == "" {
		return []string{"persona is missing `level` field"}
	}
	return nil
}

func checkPersonaHasSkillGroups(ctx *Context) []string {
	if ctx.Category == fragments.CategoryPersona && ctx.Metadata != nil && len(ctx.Metadata.SkillGroups) == 0 {
		return []string{"persona is missing `skill_groups` field"}
	}
	return nil
}

func checkRootFileHasCategory(ctx *Context) []string {
	if !ctx.RootLevel || ctx.Metadata == nil {
		return nil
	}
	if ctx.Metadata.Category == "" {
		return []string{"root-level file is missing `category` in frontmatter"}
	}
	if _, ok := fragments.ParseCategory(ctx.Metadata.Category); !ok {
		return []string{fmt.Sprintf("unknown category `%s` in frontmatter", ctx.Metadata.Category)}
	}
	return nil
}

func checkCategoryConflict(ctx *Context) []string {
	if ctx.RootLevel || ctx.Metadata == nil || ctx.Metadata.Category == "" {
		return nil
	}
	declared, ok := fragments.ParseCategory(ctx.Metadata.Category)
	if !ok || declared == ctx.Category {
		return nil
	}
	return []string{fmt.Sprintf("frontmatter `category: %s` conflicts with subdirectory `%s`",
		ctx.Metadata.Category, ctx.Category.DirName())}
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
