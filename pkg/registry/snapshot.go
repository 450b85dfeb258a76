// Package registry loads fragments from the built-in, global and project
// layers into an immutable Snapshot, and keeps the current snapshot in a
// Store that can be rebuilt while readers continue to use the old one.
package registry

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

type key struct {
	category fragments.Category
	name     string
}

// Snapshot is the result of one registry build. It is never modified after
// Build returns; callers must treat returned fragments as read-only.
type Snapshot struct {
	fragments map[fragments.Category]map[string]*fragments.Fragment
	names     map[fragments.Category][]string
	tags      []string
	groups    []string
	shadowed  map[key][]*fragments.Fragment
	layers    []Layer
	watched   []string
	problems  *multierror.Error

	generation uint64
}

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	Category fragments.Category
	Tag      string
	Group    string
}

func newSnapshot() *Snapshot {
	s := &Snapshot{
		fragments: make(map[fragments.Category]map[string]*fragments.Fragment),
		names:     make(map[fragments.Category][]string),
		shadowed:  make(map[key][]*fragments.Fragment),
	}
	for _, c := range fragments.Categories() {
		s.fragments[c] = make(map[string]*fragments.Fragment)
	}
	return s
}

// insert stores f. With replace false an existing entry wins; with replace
// true f replaces it and the old record is kept in the shadow list.
func (s *Snapshot) insert(f *fragments.Fragment, replace bool) bool {
	byName := s.fragments[f.Category]
	existing, ok := byName[f.Name]
	if ok && !replace {
		return false
	}
	if ok {
		k := key{f.Category, f.Name}
		s.shadowed[k] = append(s.shadowed[k], existing)
	}
	byName[f.Name] = f
	return true
}

// index computes the derived name, tag and group lists.
func (s *Snapshot) index() {
	tags := map[string]struct{}{}
	groups := map[string]struct{}{}

	for _, c := range fragments.Categories() {
		names := make([]string, 0, len(s.fragments[c]))
		for name, f := range s.fragments[c] {
			names = append(names, name)
			for _, t := range f.Tags {
				tags[t] = struct{}{}
			}
			if f.Group != "" {
				groups[f.Group] = struct{}{}
			}
		}
		sort.Strings(names)
		s.names[c] = names
	}

	s.tags = sortedKeys(tags)
	s.groups = sortedKeys(groups)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the fragment for (category, name).
func (s *Snapshot) Get(category fragments.Category, name string) (*fragments.Fragment, bool) {
	f, ok := s.fragments[category][name]
	return f, ok
}

// MustGet is Get returning a NotFoundError when the fragment is missing.
func (s *Snapshot) MustGet(category fragments.Category, name string) (*fragments.Fragment, error) {
	if f, ok := s.Get(category, name); ok {
		return f, nil
	}
	return nil, fragments.NewNotFoundError(category, name)
}

// List returns the fragments matching filter, sorted by category directory
// name and then fragment name.
func (s *Snapshot) List(filter Filter) []*fragments.Fragment {
	cats := fragments.Categories()
	if filter.Category != "" {
		cats = []fragments.Category{filter.Category}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].DirName() < cats[j].DirName() })

	var out []*fragments.Fragment
	for _, c := range cats {
		for _, name := range s.names[c] {
			f := s.fragments[c][name]
			if filter.Tag != "" && !f.HasTag(filter.Tag) {
				continue
			}
			if filter.Group != "" && f.Group != filter.Group {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

// NamesForCategory returns the sorted fragment names of a category.
func (s *Snapshot) NamesForCategory(category fragments.Category) []string {
	return append([]string{}, s.names[category]...)
}

// AllTags returns every tag used by any fragment, sorted and deduplicated.
func (s *Snapshot) AllTags() []string {
	return append([]string{}, s.tags...)
}

// AllGroups returns every group used by any fragment, sorted and deduplicated.
func (s *Snapshot) AllGroups() []string {
	return append([]string{}, s.groups...)
}

// WatchedDirectories returns the project directory then the global
// directory, skipping whichever is not configured.
func (s *Snapshot) WatchedDirectories() []string {
	return append([]string{}, s.watched...)
}

// Shadowed returns the records replaced by the current (category, name)
// winner, oldest first.
func (s *Snapshot) Shadowed(category fragments.Category, name string) []*fragments.Fragment {
	return append([]*fragments.Fragment{}, s.shadowed[key{category, name}]...)
}

// Layers returns the layers the snapshot was built from, lowest priority first.
func (s *Snapshot) Layers() []Layer {
	return append([]Layer{}, s.layers...)
}

// Problems returns the per-document problems met during the build, or nil.
func (s *Snapshot) Problems() error {
	return s.problems.ErrorOrNil()
}

// Len is the total number of fragments.
func (s *Snapshot) Len() int {
	n := 0
	for _, m := range s.fragments {
		n += len(m)
	}
	return n
}

// CountByCategory returns the number of fragments per category.
func (s *Snapshot) CountByCategory() map[fragments.Category]int {
	out := make(map[fragments.Category]int, len(s.fragments))
	for c, m := range s.fragments {
		out[c] = len(m)
	}
	return out
}

// Generation is the Store generation that produced the snapshot; zero for
// snapshots built outside a Store.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}
