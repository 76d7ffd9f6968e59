package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/fontogether/fontogether/collab"
	"github.com/fontogether/fontogether/edit"
	"github.com/fontogether/fontogether/internal/clock"
	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/store"
)

// Errors returned by Run.
var (
	ErrEvicted      = errors.New("session: removed from project")
	ErrDisconnected = errors.New("session: channel closed")
)

// DefaultRetryInterval is how often Run retries failed publishes.
const DefaultRetryInterval = 2 * time.Second

// Source fetches the authoritative project state. store.Store satisfies it.
type Source interface {
	Project(ctx context.Context, id int64) (*store.Project, error)
	Glyphs(ctx context.Context, projectID int64) ([]*outline.Glyph, error)
}

// Config configures a Workspace.
type Config struct {
	ProjectID int64
	UserID    string
	Nickname  string
	Source    Source
	Channel   collab.Channel

	RetryInterval time.Duration
	EditOptions   []edit.Option
	Clock         clock.Clock
	Logger        *slog.Logger
}

// Workspace is one user's view of a project. Except for Post and Do, its
// methods must be called on the goroutine running Run, or before Run
// starts.
type Workspace struct {
	cfg    Config
	logger *slog.Logger
	inbox  chan func(*Workspace)

	project *store.Project
	glyphs  map[string]*outline.Glyph
	order   []string
	tabs    map[string]*Session
	members []collab.Member
	editors map[string]map[string]bool // glyph name -> user ids
	evicted bool
}

// NewWorkspace fetches the project and its glyphs.
func NewWorkspace(ctx context.Context, cfg Config) (*Workspace, error) {
	if cfg.Source == nil || cfg.Channel == nil {
		return nil, errors.New("session: Source and Channel are required")
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Workspace{
		cfg:     cfg,
		logger:  logger.With("project", cfg.ProjectID, "user", cfg.UserID),
		inbox:   make(chan func(*Workspace)),
		tabs:    make(map[string]*Session),
		editors: make(map[string]map[string]bool),
	}
	p, err := cfg.Source.Project(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("session: fetching project: %w", err)
	}
	w.project = p
	if err := w.reload(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) reload(ctx context.Context) error {
	gs, err := w.cfg.Source.Glyphs(ctx, w.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("session: fetching glyphs: %w", err)
	}
	w.glyphs = make(map[string]*outline.Glyph, len(gs))
	w.order = w.order[:0]
	for _, g := range gs {
		w.glyphs[g.Name] = g
		w.order = append(w.order, g.Name)
	}
	return nil
}

// Project returns the project, with details as last received.
func (w *Workspace) Project() *store.Project { return w.project }

// Glyphs returns the local glyph copies in glyph order.
func (w *Workspace) Glyphs() []*outline.Glyph {
	gs := make([]*outline.Glyph, 0, len(w.order))
	for _, name := range w.order {
		if g, ok := w.glyphs[name]; ok {
			gs = append(gs, g)
		}
	}
	return gs
}

// Glyph returns the local copy of the named glyph.
func (w *Workspace) Glyph(name string) (*outline.Glyph, bool) {
	g, ok := w.glyphs[name]
	return g, ok
}

// Members returns the connections present in the project.
func (w *Workspace) Members() []collab.Member { return w.members }

// Editors returns the other users that have name open, sorted.
func (w *Workspace) Editors(name string) []string {
	return slices.Sorted(maps.Keys(w.editors[name]))
}

// Evicted reports whether the user was removed from the project.
func (w *Workspace) Evicted() bool { return w.evicted }

// Tab returns the open session for name, if any.
func (w *Workspace) Tab(name string) *Session { return w.tabs[name] }

// Tabs returns the names of open glyphs, sorted.
func (w *Workspace) Tabs() []string {
	return slices.Sorted(maps.Keys(w.tabs))
}

// OpenTab opens name for editing, or returns its existing tab.
func (w *Workspace) OpenTab(ctx context.Context, name string) (*Session, error) {
	if w.evicted {
		return nil, ErrEvicted
	}
	if s, ok := w.tabs[name]; ok {
		return s, nil
	}
	g, ok := w.glyphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: glyph %q", store.ErrNotFound, name)
	}
	s := Open(g, w.publishGlyph, w.logger, w.cfg.EditOptions...)
	w.tabs[name] = s
	w.announce(ctx, collab.StartEdit, name)
	return s, nil
}

// CloseTab finalizes and commits the tab's work in progress and closes it.
func (w *Workspace) CloseTab(ctx context.Context, name string) error {
	s, ok := w.tabs[name]
	if !ok {
		return nil
	}
	err := s.Close(ctx)
	delete(w.tabs, name)
	w.announce(ctx, collab.StopEdit, name)
	return err
}

func (w *Workspace) announce(ctx context.Context, state collab.EditState, name string) {
	err := w.cfg.Channel.Publish(ctx, collab.Envelope{
		Topic:   collab.TopicEditing,
		Editing: &collab.Editing{State: state, GlyphName: name},
	})
	if err != nil {
		w.logger.Debug("editing presence not sent", "glyph", name, "state", state, "error", err)
	}
}

func (w *Workspace) publishGlyph(ctx context.Context, g *outline.Glyph) error {
	if w.evicted {
		return ErrEvicted
	}
	return w.cfg.Channel.Publish(ctx, collab.Envelope{
		Topic: collab.TopicGlyph,
		Glyph: &collab.GlyphUpdate{
			ProjectID:    w.cfg.ProjectID,
			GlyphName:    g.Name,
			OutlineData:  g.Outline.String(),
			AdvanceWidth: g.AdvanceWidth,
			UserID:       w.cfg.UserID,
			Nickname:     w.cfg.Nickname,
			Unicodes:     g.Unicodes,
		},
	})
}

// Flush retries every failed publish.
func (w *Workspace) Flush(ctx context.Context) error {
	var errs []error
	for _, name := range w.Tabs() {
		if err := w.tabs[name].Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Handle applies one message from the channel.
func (w *Workspace) Handle(ctx context.Context, env collab.Envelope) error {
	if w.evicted {
		return ErrEvicted
	}
	if err := env.Validate(); err != nil {
		return err
	}
	switch env.Topic {
	case collab.TopicGlyph:
		w.applyGlyph(env.Glyph)
	case collab.TopicDetail:
		if w.project.Details == nil {
			w.project.Details = make(map[store.DetailKind]string)
		}
		w.project.Details[env.Detail.UpdateType] = env.Detail.Data
	case collab.TopicPresence:
		w.members = env.Presence.Members
		w.prunePresence()
	case collab.TopicEditing:
		w.applyEditing(env.Editing)
	case collab.TopicAction:
		return w.applyAction(env.Action)
	case collab.TopicKick:
		if env.Kick.KickedUserID == w.cfg.UserID {
			w.evict()
			return ErrEvicted
		}
	case collab.TopicResync:
		return w.resync(ctx)
	case collab.TopicError:
		w.logger.Warn("request rejected by server", "topic", env.Error.Topic, "error", env.Error)
	}
	return nil
}

func (w *Workspace) applyGlyph(u *collab.GlyphUpdate) {
	if u == nil {
		return
	}
	own := u.UserID == w.cfg.UserID
	if _, open := w.tabs[u.GlyphName]; own && !open {
		return
	}
	o, err := outline.Parse(u.OutlineData)
	if err != nil {
		w.logger.Warn("ignoring malformed outline update", "glyph", u.GlyphName, "from", u.UserID, "error", err)
		return
	}
	g, ok := w.glyphs[u.GlyphName]
	if !ok {
		g = outline.NewGlyph(u.GlyphName)
		w.glyphs[u.GlyphName] = g
		w.order = append(w.order, u.GlyphName)
	}
	update := g.Clone()
	update.Outline = o
	update.AdvanceWidth = u.AdvanceWidth
	if u.Unicodes != nil {
		update.Unicodes = slices.Clone(u.Unicodes)
	}
	update.LastModifiedBy = u.UserID
	update.UpdatedAt = w.cfg.Clock.Now()
	s, ok := w.tabs[u.GlyphName]
	switch {
	case own:
		if s.ApplyEcho(update) {
			w.logger.Debug("own update reapplied after a crossing remote update", "glyph", u.GlyphName)
		}
		return
	case ok:
		s.ApplyRemote(update)
		w.logger.Debug("open glyph replaced by remote update", "glyph", u.GlyphName, "from", u.UserID)
		return
	}
	*g = *update
}

func (w *Workspace) applyEditing(e *collab.Editing) {
	if e.UserID == w.cfg.UserID {
		return
	}
	users := w.editors[e.GlyphName]
	switch e.State {
	case collab.StartEdit:
		if users == nil {
			users = make(map[string]bool)
			w.editors[e.GlyphName] = users
		}
		users[e.UserID] = true
	case collab.StopEdit:
		delete(users, e.UserID)
		if len(users) == 0 {
			delete(w.editors, e.GlyphName)
		}
	}
}

// prunePresence forgets editors that are no longer connected.
func (w *Workspace) prunePresence() {
	present := make(map[string]bool, len(w.members))
	for _, m := range w.members {
		present[m.UserID] = true
	}
	for name, users := range w.editors {
		maps.DeleteFunc(users, func(u string, _ bool) bool { return !present[u] })
		if len(users) == 0 {
			delete(w.editors, name)
		}
	}
}

func (w *Workspace) applyAction(a *collab.GlyphAction) error {
	switch a.Kind {
	case collab.ActionAdd:
		if _, ok := w.glyphs[a.GlyphName]; !ok {
			g := outline.NewGlyph(a.GlyphName, a.Unicodes...)
			if id, err := uuid.Parse(a.GlyphUUID); err == nil {
				g.UUID = id
			}
			w.glyphs[a.GlyphName] = g
			w.order = append(w.order, a.GlyphName)
		}
	case collab.ActionDelete:
		if s, ok := w.tabs[a.GlyphName]; ok {
			s.Engine().Finish()
			delete(w.tabs, a.GlyphName)
		}
		delete(w.glyphs, a.GlyphName)
		delete(w.editors, a.GlyphName)
		w.order = slices.DeleteFunc(w.order, func(n string) bool { return n == a.GlyphName })
	case collab.ActionRename:
		g, ok := w.glyphs[a.GlyphName]
		if !ok {
			break
		}
		delete(w.glyphs, a.GlyphName)
		g.Name = a.NewName
		w.glyphs[a.NewName] = g
		if s, ok := w.tabs[a.GlyphName]; ok {
			delete(w.tabs, a.GlyphName)
			w.tabs[a.NewName] = s
		}
		if users, ok := w.editors[a.GlyphName]; ok {
			delete(w.editors, a.GlyphName)
			w.editors[a.NewName] = users
		}
		if i := slices.Index(w.order, a.GlyphName); i >= 0 {
			w.order[i] = a.NewName
		}
	case collab.ActionReorder, collab.ActionMove:
	default:
		return fmt.Errorf("session: unknown glyph action %q", a.Kind)
	}
	if a.Order != nil {
		w.order = slices.Clone(a.Order)
	}
	return nil
}

// resync refetches every glyph after missed messages. Open tabs take the
// fetched outline unless they hold an unpublished commit, which is retried
// instead.
func (w *Workspace) resync(ctx context.Context) error {
	w.logger.Info("resynchronizing project")
	if err := w.reload(ctx); err != nil {
		return err
	}
	var errs []error
	for name, s := range w.tabs {
		g, ok := w.glyphs[name]
		if !ok {
			s.Engine().Finish()
			delete(w.tabs, name)
			continue
		}
		if s.Dirty() {
			w.glyphs[name] = s.Glyph()
			if err := s.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		s.ApplyRemote(g)
		w.glyphs[name] = s.Glyph()
	}
	return errors.Join(errs...)
}

// evict drops every tab without committing.
func (w *Workspace) evict() {
	w.logger.Warn("removed from project")
	w.evicted = true
	clear(w.tabs)
	w.cfg.Channel.Close()
}

// Run handles channel messages, posted functions and publish retries until
// ctx is done, the user is evicted or the channel closes.
func (w *Workspace) Run(ctx context.Context) error {
	events := w.cfg.Channel.Events()
	retry := w.cfg.Clock.NewTicker(w.cfg.RetryInterval)
	defer retry.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-w.inbox:
			fn(w)
		case env, ok := <-events:
			if !ok {
				if w.evicted {
					return ErrEvicted
				}
				return ErrDisconnected
			}
			if err := w.Handle(ctx, env); errors.Is(err, ErrEvicted) {
				return err
			} else if err != nil {
				w.logger.Warn("message handling failed", "topic", env.Topic, "error", err)
			}
		case <-retry.C:
			if err := w.Flush(ctx); err != nil {
				w.logger.Debug("publish retry failed", "error", err)
			}
		}
	}
}

// Post queues fn to run on the Run goroutine.
func (w *Workspace) Post(ctx context.Context, fn func(*Workspace)) error {
	select {
	case w.inbox <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the Run goroutine and waits for its result.
func (w *Workspace) Do(ctx context.Context, fn func(*Workspace) error) error {
	result := make(chan error, 1)
	if err := w.Post(ctx, func(w *Workspace) { result <- fn(w) }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close commits and closes every tab, then closes the channel.
func (w *Workspace) Close(ctx context.Context) error {
	var errs []error
	if !w.evicted {
		for _, name := range w.Tabs() {
			if err := w.CloseTab(ctx, name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	errs = append(errs, w.cfg.Channel.Close())
	return errors.Join(errs...)
}
