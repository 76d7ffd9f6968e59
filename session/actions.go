package session

import (
	"context"

	"github.com/fontogether/fontogether/collab"
	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/store"
)

// Structural changes are requested here and applied locally when the
// hub broadcasts them back.

// AddGlyph asks for a new glyph.
func (w *Workspace) AddGlyph(ctx context.Context, name string, unicodes ...int) error {
	if err := outline.ValidateName(name); err != nil {
		return err
	}
	return w.action(ctx, collab.GlyphAction{Kind: collab.ActionAdd, GlyphName: name, Unicodes: unicodes})
}

// DeleteGlyph asks for a glyph to be removed.
func (w *Workspace) DeleteGlyph(ctx context.Context, name string) error {
	return w.action(ctx, collab.GlyphAction{Kind: collab.ActionDelete, GlyphName: name})
}

// RenameGlyph asks for a glyph to be renamed. Its uuid is kept.
func (w *Workspace) RenameGlyph(ctx context.Context, oldName, newName string) error {
	if err := outline.ValidateName(newName); err != nil {
		return err
	}
	return w.action(ctx, collab.GlyphAction{Kind: collab.ActionRename, GlyphName: oldName, NewName: newName})
}

// MoveGlyph asks for a glyph to be moved to index in the glyph order.
func (w *Workspace) MoveGlyph(ctx context.Context, name string, index int) error {
	return w.action(ctx, collab.GlyphAction{Kind: collab.ActionMove, GlyphName: name, Index: index})
}

// ReorderGlyphs asks for the glyph order to start with names.
func (w *Workspace) ReorderGlyphs(ctx context.Context, names []string) error {
	return w.action(ctx, collab.GlyphAction{Kind: collab.ActionReorder, Order: names})
}

func (w *Workspace) action(ctx context.Context, a collab.GlyphAction) error {
	if w.evicted {
		return ErrEvicted
	}
	return w.cfg.Channel.Publish(ctx, collab.Envelope{Topic: collab.TopicAction, Action: &a})
}

// UpdateDetail publishes a project detail document.
func (w *Workspace) UpdateDetail(ctx context.Context, kind store.DetailKind, data string) error {
	if w.evicted {
		return ErrEvicted
	}
	return w.cfg.Channel.Publish(ctx, collab.Envelope{
		Topic:  collab.TopicDetail,
		Detail: &collab.DetailUpdate{UpdateType: kind, Data: data},
	})
}

// Kick removes a collaborator from the project. Only the owner may remove
// others.
func (w *Workspace) Kick(ctx context.Context, userID string) error {
	if w.evicted {
		return ErrEvicted
	}
	return w.cfg.Channel.Publish(ctx, collab.Envelope{
		Topic: collab.TopicKick,
		Kick:  &collab.Kick{KickedUserID: userID},
	})
}
