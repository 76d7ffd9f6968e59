package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fontogether/fontogether/internal/clock"
	"github.com/fontogether/fontogether/outline"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	clock clock.Clock

	mu       sync.Mutex
	nextID   int64
	projects map[int64]*memProject
}

type memProject struct {
	project       Project
	glyphs        map[string]*outline.Glyph
	collaborators map[string]Collaborator
	nextOrder     int
}

// NewMemory returns an empty store. A nil clock uses the wall clock.
func NewMemory(c clock.Clock) *Memory {
	if c == nil {
		c = clock.Real()
	}
	return &Memory{clock: c, projects: make(map[int64]*memProject)}
}

func (m *Memory) get(id int64) (*memProject, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	return p, nil
}

func (m *Memory) CreateProject(_ context.Context, name string, owner Collaborator) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	owner.Role = RoleOwner
	p := &memProject{
		project: Project{
			ID:        m.nextID,
			Name:      name,
			OwnerID:   owner.UserID,
			CreatedAt: m.clock.Now(),
			Details:   map[DetailKind]string{},
		},
		glyphs:        map[string]*outline.Glyph{},
		collaborators: map[string]Collaborator{owner.UserID: owner},
	}
	m.projects[p.project.ID] = p
	return p.copyProject(), nil
}

func (p *memProject) copyProject() *Project {
	c := p.project
	c.Details = maps.Clone(p.project.Details)
	return &c
}

func (m *Memory) Project(_ context.Context, id int64) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return p.copyProject(), nil
}

func (p *memProject) ordered() []*outline.Glyph {
	gs := slices.Collect(maps.Values(p.glyphs))
	slices.SortFunc(gs, func(a, b *outline.Glyph) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.Name, b.Name))
	})
	return gs
}

func (m *Memory) Glyphs(_ context.Context, projectID int64) ([]*outline.Glyph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	gs := p.ordered()
	for i, g := range gs {
		gs[i] = g.Clone()
	}
	return gs, nil
}

func (m *Memory) Glyph(_ context.Context, projectID int64, name string) (*outline.Glyph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	g, ok := p.glyphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: glyph %q", ErrNotFound, name)
	}
	return g.Clone(), nil
}

func (m *Memory) CreateGlyph(_ context.Context, projectID int64, g *outline.Glyph) (*outline.Glyph, error) {
	if err := outline.ValidateName(g.Name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	if _, ok := p.glyphs[g.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, g.Name)
	}
	c := g.Clone()
	c.SortOrder = p.nextOrder
	p.nextOrder++
	c.UpdatedAt = m.clock.Now()
	p.glyphs[c.Name] = c
	return c.Clone(), nil
}

func (m *Memory) SaveGlyph(_ context.Context, projectID int64, w GlyphWrite) (*outline.Glyph, error) {
	if err := outline.ValidateName(w.Name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	g, ok := p.glyphs[w.Name]
	if !ok {
		g = outline.NewGlyph(w.Name)
		g.SortOrder = p.nextOrder
		p.nextOrder++
		p.glyphs[w.Name] = g
	}
	if w.Outline != nil {
		g.Outline = w.Outline.Clone()
	}
	g.AdvanceWidth = w.AdvanceWidth
	if w.Unicodes != nil {
		g.Unicodes = slices.Clone(w.Unicodes)
	}
	g.UpdatedAt = m.clock.Now()
	g.LastModifiedBy = w.UserID
	return g.Clone(), nil
}

func (m *Memory) RenameGlyph(_ context.Context, projectID int64, oldName, newName string) error {
	if err := outline.ValidateName(newName); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	g, ok := p.glyphs[oldName]
	if !ok {
		return fmt.Errorf("%w: glyph %q", ErrNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, ok := p.glyphs[newName]; ok {
		return fmt.Errorf("%w: %q", ErrNameTaken, newName)
	}
	delete(p.glyphs, oldName)
	g.Name = newName
	g.UpdatedAt = m.clock.Now()
	p.glyphs[newName] = g
	return nil
}

func (m *Memory) DeleteGlyph(_ context.Context, projectID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	if _, ok := p.glyphs[name]; !ok {
		return fmt.Errorf("%w: glyph %q", ErrNotFound, name)
	}
	delete(p.glyphs, name)
	return nil
}

func (m *Memory) SetGlyphOrder(_ context.Context, projectID int64, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	var current []string
	for _, g := range p.ordered() {
		current = append(current, g.Name)
	}
	for i, n := range reorder(current, names) {
		p.glyphs[n].SortOrder = i
	}
	p.nextOrder = len(current)
	return nil
}

func (m *Memory) UpdateDetail(_ context.Context, projectID int64, kind DetailKind, data string) error {
	if !kind.Valid() {
		return fmt.Errorf("store: unknown detail kind %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	p.project.Details[kind] = data
	return nil
}

func (m *Memory) Collaborators(_ context.Context, projectID int64) ([]Collaborator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	cs := slices.Collect(maps.Values(p.collaborators))
	slices.SortFunc(cs, func(a, b Collaborator) int { return cmp.Compare(a.UserID, b.UserID) })
	return cs, nil
}

func (m *Memory) AddCollaborator(_ context.Context, projectID int64, c Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	if c.UserID == p.project.OwnerID {
		c.Role = RoleOwner
	} else if c.Role == "" {
		c.Role = RoleEditor
	}
	p.collaborators[c.UserID] = c
	return nil
}

func (m *Memory) RemoveCollaborator(_ context.Context, projectID int64, actorID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return err
	}
	if err := checkRemoval(p.project.OwnerID, actorID, userID); err != nil {
		return err
	}
	if _, ok := p.collaborators[userID]; !ok {
		return fmt.Errorf("%w: collaborator %q", ErrNotFound, userID)
	}
	delete(p.collaborators, userID)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) GlyphOrder(_ context.Context, projectID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(projectID)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(p.glyphs))
	for _, g := range p.ordered() {
		order = append(order, g.Name)
	}
	return order, nil
}
