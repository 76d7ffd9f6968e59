// Package store is the authoritative glyph store behind the collaboration
// hub: projects, their glyphs, project details and collaborators.
//
// Glyph saves are upserts keyed by project and glyph name; the last save to
// arrive wins. Two implementations are provided: Memory for tests and
// single-process use, and SQLite for a persistent server.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fontogether/fontogether/outline"
)

// Errors returned by stores.
var (
	ErrNotFound  = errors.New("store: not found")
	ErrNameTaken = errors.New("store: glyph name already in use")
	ErrForbidden = errors.New("store: not allowed")
)

// DetailKind names one category of project details.
type DetailKind string

// Project detail kinds, as carried by project-detail updates.
const (
	MetaInfo    DetailKind = "META_INFO"
	FontInfo    DetailKind = "FONT_INFO"
	Groups      DetailKind = "GROUPS"
	Kerning     DetailKind = "KERNING"
	Features    DetailKind = "FEATURES"
	LayerConfig DetailKind = "LAYER_CONFIG"
	Lib         DetailKind = "LIB"
)

// Valid reports whether k is a known detail kind.
func (k DetailKind) Valid() bool {
	switch k {
	case MetaInfo, FontInfo, Groups, Kerning, Features, LayerConfig, Lib:
		return true
	}
	return false
}

// Role is a collaborator's role in a project.
type Role string

// Roles.
const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
)

// Project is a font project.
type Project struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
	// Details holds the JSON documents of each detail kind that has been set.
	Details map[DetailKind]string
}

// Collaborator is a user with access to a project.
type Collaborator struct {
	UserID   string
	Nickname string
	Role     Role
}

// GlyphWrite is an outline update to persist.
type GlyphWrite struct {
	Name         string
	Outline      *outline.Outline
	AdvanceWidth float64
	// Unicodes replaces the glyph's code points when non-nil.
	Unicodes []int
	UserID   string
}

// Store is the interface the collaboration hub and the CLI use. All
// returned glyphs are copies owned by the caller.
type Store interface {
	CreateProject(ctx context.Context, name string, owner Collaborator) (*Project, error)
	Project(ctx context.Context, id int64) (*Project, error)

	// Glyphs returns every glyph of the project in glyph order.
	Glyphs(ctx context.Context, projectID int64) ([]*outline.Glyph, error)
	Glyph(ctx context.Context, projectID int64, name string) (*outline.Glyph, error)
	// CreateGlyph adds g at the end of the glyph order. It fails with
	// ErrNameTaken when the name exists.
	CreateGlyph(ctx context.Context, projectID int64, g *outline.Glyph) (*outline.Glyph, error)
	// SaveGlyph upserts the outline of the named glyph, creating the glyph
	// with default metrics when it does not exist.
	SaveGlyph(ctx context.Context, projectID int64, w GlyphWrite) (*outline.Glyph, error)
	RenameGlyph(ctx context.Context, projectID int64, oldName, newName string) error
	DeleteGlyph(ctx context.Context, projectID int64, name string) error
	// GlyphOrder returns the glyph names in glyph order.
	GlyphOrder(ctx context.Context, projectID int64) ([]string, error)
	// SetGlyphOrder reorders the named glyphs; glyphs not listed keep their
	// relative order after the listed ones.
	SetGlyphOrder(ctx context.Context, projectID int64, names []string) error

	UpdateDetail(ctx context.Context, projectID int64, kind DetailKind, data string) error

	Collaborators(ctx context.Context, projectID int64) ([]Collaborator, error)
	AddCollaborator(ctx context.Context, projectID int64, c Collaborator) error
	// RemoveCollaborator removes userID on behalf of actorID. Only the owner
	// may remove others; anyone may remove themselves; the owner cannot be
	// removed.
	RemoveCollaborator(ctx context.Context, projectID int64, actorID, userID string) error

	Close() error
}

// checkRemoval applies the collaborator removal rules.
func checkRemoval(ownerID, actorID, userID string) error {
	if userID == ownerID {
		return errors.Join(ErrForbidden, errors.New("store: the owner cannot be removed"))
	}
	if actorID != ownerID && actorID != userID {
		return ErrForbidden
	}
	return nil
}

// reorder returns names in the order given by order followed by the
// remaining names in their existing order.
func reorder(current, order []string) []string {
	seen := make(map[string]bool, len(order))
	exists := make(map[string]bool, len(current))
	for _, n := range current {
		exists[n] = true
	}
	out := make([]string, 0, len(current))
	for _, n := range order {
		if exists[n] && !seen[n] {
			out = append(out, n)
			seen[n] = true
		}
	}
	for _, n := range current {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
