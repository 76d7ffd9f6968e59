// Package session binds live editing to the collaboration channel.
//
// A [Session] owns the live scene of one open glyph. Every committed
// mutation is encoded back to an outline and, when it differs from what
// was last broadcast, published and applied to the local copy of the glyph
// optimistically. Remote updates replace the scene wholesale.
//
// A [Workspace] is one user's attachment to a project: the local copy of
// every glyph, the open tabs, presence and project details. It processes
// input and network arrivals on a single goroutine.
package session

import (
	"context"
	"log/slog"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/codec"
	"github.com/fontogether/fontogether/edit"
	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/scene"
)

// PublishFunc sends a committed glyph to the other collaborators.
type PublishFunc func(ctx context.Context, g *outline.Glyph) error

// Session is the editing state of one open glyph. It is not safe for
// concurrent use.
type Session struct {
	glyph   *outline.Glyph
	engine  *edit.Engine
	tool    edit.Tool
	publish PublishFunc
	logger  *slog.Logger

	lastOutline *outline.Outline
	lastAdvance float64
	dirty       bool

	// sent is the last version this session published, until its echo
	// comes back.
	sent        *outline.Outline
	sentAdvance float64
}

// Open starts editing g. g is the caller's authoritative copy and is
// updated in place by commits and remote updates.
func Open(g *outline.Glyph, publish PublishFunc, logger *slog.Logger, opts ...edit.Option) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		glyph:   g,
		publish: publish,
		logger:  logger.With("glyph", g.Name),
	}
	s.engine = edit.New(s.decode(g.Outline), g.AdvanceWidth, opts...)
	s.remember(g)
	return s
}

func (s *Session) decode(o *outline.Outline) *scene.Scene {
	sc, err := codec.Decode(o)
	if err != nil {
		s.logger.Warn("glyph opened with unusable contours", "error", err)
	}
	return sc
}

func (s *Session) remember(g *outline.Glyph) {
	if g.Outline != nil {
		s.lastOutline = g.Outline.Clone()
	} else {
		s.lastOutline = &outline.Outline{}
	}
	s.lastAdvance = g.AdvanceWidth
}

// Name returns the name of the glyph being edited.
func (s *Session) Name() string { return s.glyph.Name }

// Glyph returns the local copy of the glyph.
func (s *Session) Glyph() *outline.Glyph { return s.glyph }

// Engine returns the interaction engine.
func (s *Session) Engine() *edit.Engine { return s.engine }

// Tool returns the active tool.
func (s *Session) Tool() edit.Tool { return s.tool }

// Dirty reports whether a commit failed to publish and is waiting for a
// retry.
func (s *Session) Dirty() bool { return s.dirty }

// SetTool switches the active tool, cancelling the outgoing tool's work in
// progress. Closing an open pen path commits it.
func (s *Session) SetTool(ctx context.Context, t edit.Tool) error {
	if t == s.tool {
		return nil
	}
	r := s.engine.SwitchTool(s.tool, t)
	s.tool = t
	return s.handle(ctx, r)
}

// Pointer forwards a pointer event to the active tool.
func (s *Session) Pointer(ctx context.Context, ev edit.PointerEvent) (edit.Result, error) {
	r := s.engine.Pointer(s.tool, ev)
	return r, s.handle(ctx, r)
}

// Key forwards a key event. Unmodified character keys select tools.
func (s *Session) Key(ctx context.Context, ev edit.KeyEvent) (edit.Result, error) {
	if ev.Key == edit.KeyRune && !ev.Release && ev.Mods == 0 {
		if t, ok := edit.ToolForKey(ev.Rune); ok {
			return edit.Result{}, s.SetTool(ctx, t)
		}
	}
	r := s.engine.Key(s.tool, ev)
	return r, s.handle(ctx, r)
}

// Wheel zooms the view about anchor.
func (s *Session) Wheel(notches float64, anchor fontogether.Point) edit.Result {
	return s.engine.Wheel(notches, anchor)
}

func (s *Session) handle(ctx context.Context, r edit.Result) error {
	if !r.Commit {
		return nil
	}
	return s.Commit(ctx)
}

// Commit encodes the scene and publishes it when it differs from the last
// broadcast. The local copy is updated before publishing; when publishing
// fails the session stays dirty and the error is returned.
func (s *Session) Commit(ctx context.Context) error {
	o := codec.Encode(s.engine.Scene())
	advance := s.engine.AdvanceWidth()
	if o.Equal(s.lastOutline) && advance == s.lastAdvance {
		s.dirty = false
		return nil
	}
	s.glyph.Outline = o
	s.glyph.AdvanceWidth = advance
	if err := s.publish(ctx, s.glyph.Clone()); err != nil {
		s.dirty = true
		s.logger.Warn("publish failed, will retry", "error", err)
		return err
	}
	s.lastOutline = o.Clone()
	s.lastAdvance = advance
	s.sent, s.sentAdvance = s.lastOutline, advance
	s.dirty = false
	s.logger.Debug("glyph committed", "contours", len(o.Contours), "advance", advance)
	return nil
}

// Flush retries a failed commit.
func (s *Session) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	return s.Commit(ctx)
}

// ApplyRemote replaces the scene with g, which becomes the new local copy.
// The selection and any work in progress are dropped.
func (s *Session) ApplyRemote(g *outline.Glyph) {
	if g != s.glyph {
		*s.glyph = *g.Clone()
	}
	s.engine.Replace(s.decode(s.glyph.Outline), s.glyph.AdvanceWidth)
	s.remember(s.glyph)
	s.dirty = false
}

// ApplyEcho handles the server's broadcast of this session's own commit.
// It is normally ignored. When another collaborator's update was applied
// after the commit but ordered before it by the server, the echo is the
// newer version and replaces the scene. It reports whether it did.
func (s *Session) ApplyEcho(g *outline.Glyph) bool {
	if s.sent == nil || !g.Outline.Equal(s.sent) || g.AdvanceWidth != s.sentAdvance {
		return false
	}
	s.sent = nil
	if s.lastOutline.Equal(g.Outline) && s.lastAdvance == g.AdvanceWidth {
		return false
	}
	s.ApplyRemote(g)
	return true
}

// Close finalizes work in progress and commits it.
func (s *Session) Close(ctx context.Context) error {
	s.engine.Finish()
	return s.Commit(ctx)
}
