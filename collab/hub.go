package collab

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/store"
)

// Errors returned by channels.
var (
	ErrClosed       = errors.New("collab: channel closed")
	ErrEvicted      = errors.New("collab: removed from project")
	ErrNotConnected = errors.New("collab: not connected")
)

// Channel is one client's attachment to a project. Both the in-process
// Conn and the socket Client implement it.
type Channel interface {
	// Publish sends env to the project. ProjectID and the sender
	// identity are filled in by the hub.
	Publish(ctx context.Context, env Envelope) error
	// Events delivers every message broadcast to the project, including
	// the sender's own. It is closed when the channel ends.
	Events() <-chan Envelope
	Close() error
}

// Hub is the server side of project channels: it authorizes connections,
// applies messages to the store and broadcasts the results.
type Hub struct {
	store  store.Store
	broker *Broker
	logger *slog.Logger

	mu    sync.Mutex
	conns map[int64]map[string]*Conn
}

// NewHub returns a hub persisting to st. A nil logger discards.
func NewHub(st store.Store, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		store:  st,
		broker: NewBroker(logger),
		logger: logger,
		conns:  make(map[int64]map[string]*Conn),
	}
}

// Store returns the hub's store.
func (h *Hub) Store() store.Store { return h.store }

// Connect joins a project in-process. The user must be a collaborator of
// the project.
func (h *Hub) Connect(ctx context.Context, hello Hello) (*Conn, error) {
	if hello.UserID == "" {
		return nil, fmt.Errorf("%w: hello without user id", errInvalid)
	}
	collaborators, err := h.store.Collaborators(ctx, hello.ProjectID)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(collaborators, func(c store.Collaborator) bool { return c.UserID == hello.UserID }) {
		return nil, fmt.Errorf("%w: %s is not a collaborator of project %d", store.ErrForbidden, hello.UserID, hello.ProjectID)
	}

	c := &Conn{
		hub:     h,
		id:      uuid.NewString(),
		hello:   hello,
		sub:     h.broker.Subscribe(hello.ProjectID),
		events:  make(chan Envelope),
		quit:    make(chan struct{}),
		editing: make(map[string]bool),
	}
	h.mu.Lock()
	set := h.conns[hello.ProjectID]
	if set == nil {
		set = make(map[string]*Conn)
		h.conns[hello.ProjectID] = set
	}
	set[c.id] = c
	h.mu.Unlock()

	go c.forward()
	h.logger.Info("collaborator joined",
		"project", hello.ProjectID, "user", hello.UserID, "conn", c.id)
	h.broadcastPresence(hello.ProjectID)
	return c, nil
}

// Members returns the live connections of a project ordered by user.
func (h *Hub) Members(projectID int64) []Member {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := make([]Member, 0, len(h.conns[projectID]))
	for _, c := range h.conns[projectID] {
		members = append(members, Member{ConnID: c.id, UserID: c.hello.UserID, Nickname: c.hello.Nickname})
	}
	slices.SortFunc(members, func(a, b Member) int {
		return cmp.Or(cmp.Compare(a.UserID, b.UserID), cmp.Compare(a.ConnID, b.ConnID))
	})
	return members
}

func (h *Hub) broadcast(env Envelope) {
	n := h.broker.Publish(env.ProjectID, env)
	h.logger.Debug("broadcast", "project", env.ProjectID, "topic", env.Topic, "subscribers", n)
}

func (h *Hub) broadcastPresence(projectID int64) {
	h.broadcast(Envelope{
		Topic:     TopicPresence,
		ProjectID: projectID,
		Presence:  &Presence{Members: h.Members(projectID)},
	})
}

// detach removes c from the registry and reports whether it was present.
func (h *Hub) detach(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[c.hello.ProjectID]
	if _, ok := set[c.id]; !ok {
		return false
	}
	delete(set, c.id)
	if len(set) == 0 {
		delete(h.conns, c.hello.ProjectID)
	}
	return true
}

func (h *Hub) leave(c *Conn, reason string) {
	if !h.detach(c) {
		return
	}
	h.broker.Unsubscribe(c.hello.ProjectID, c.sub)
	for _, name := range c.stopEditing() {
		h.broadcast(Envelope{
			Topic:     TopicEditing,
			ProjectID: c.hello.ProjectID,
			Editing:   &Editing{State: StopEdit, GlyphName: name, UserID: c.hello.UserID, Nickname: c.hello.Nickname},
		})
	}
	h.logger.Info("collaborator left",
		"project", c.hello.ProjectID, "user", c.hello.UserID, "conn", c.id, "reason", reason)
	h.broadcastPresence(c.hello.ProjectID)
}

func (h *Hub) handle(ctx context.Context, c *Conn, env Envelope) error {
	env.ProjectID = c.hello.ProjectID
	if err := env.Validate(); err != nil {
		return remoteError(env.Topic, err)
	}
	var err error
	switch env.Topic {
	case TopicGlyph:
		err = h.saveGlyph(ctx, c, *env.Glyph)
	case TopicDetail:
		err = h.updateDetail(ctx, c, *env.Detail)
	case TopicKick:
		err = h.kick(ctx, c, env.Kick.KickedUserID)
	case TopicAction:
		err = h.applyAction(ctx, c, *env.Action)
	case TopicEditing:
		h.editing(c, *env.Editing)
	case TopicHeartbeat:
	default:
		err = fmt.Errorf("%w: topic %s cannot be published", errInvalid, env.Topic)
	}
	if err != nil {
		h.logger.Warn("request rejected",
			"project", env.ProjectID, "user", c.hello.UserID, "topic", env.Topic, "error", err)
		return remoteError(env.Topic, err)
	}
	return nil
}

func (h *Hub) saveGlyph(ctx context.Context, c *Conn, u GlyphUpdate) error {
	o, err := outline.Parse(u.OutlineData)
	if err != nil {
		return fmt.Errorf("%w: glyph %q: %v", errInvalid, u.GlyphName, err)
	}
	if _, err := h.store.SaveGlyph(ctx, c.hello.ProjectID, store.GlyphWrite{
		Name:         u.GlyphName,
		Outline:      o,
		AdvanceWidth: u.AdvanceWidth,
		Unicodes:     u.Unicodes,
		UserID:       c.hello.UserID,
	}); err != nil {
		return err
	}
	u.ProjectID = c.hello.ProjectID
	u.UserID = c.hello.UserID
	u.Nickname = c.hello.Nickname
	h.broadcast(Envelope{Topic: TopicGlyph, ProjectID: u.ProjectID, Glyph: &u})
	return nil
}

func (h *Hub) updateDetail(ctx context.Context, c *Conn, d DetailUpdate) error {
	if err := h.store.UpdateDetail(ctx, c.hello.ProjectID, d.UpdateType, d.Data); err != nil {
		return err
	}
	d.UserID = c.hello.UserID
	h.broadcast(Envelope{Topic: TopicDetail, ProjectID: c.hello.ProjectID, Detail: &d})
	return nil
}

// kick removes target from the project. Only the owner may remove others.
func (h *Hub) kick(ctx context.Context, c *Conn, target string) error {
	projectID := c.hello.ProjectID
	if err := h.store.RemoveCollaborator(ctx, projectID, c.hello.UserID, target); err != nil {
		return err
	}
	h.broadcast(Envelope{
		Topic:     TopicKick,
		ProjectID: projectID,
		Kick:      &Kick{KickedUserID: target, ByUserID: c.hello.UserID},
	})

	h.mu.Lock()
	var evicted []*Conn
	for _, other := range h.conns[projectID] {
		if other.hello.UserID == target {
			evicted = append(evicted, other)
		}
	}
	h.mu.Unlock()
	for _, other := range evicted {
		other.evicted.Store(true)
		h.leave(other, "kicked")
	}
	return nil
}

func (h *Hub) applyAction(ctx context.Context, c *Conn, a GlyphAction) error {
	projectID := c.hello.ProjectID
	switch a.Kind {
	case ActionAdd:
		g, err := h.store.CreateGlyph(ctx, projectID, outline.NewGlyph(a.GlyphName, a.Unicodes...))
		if err != nil {
			return err
		}
		a.GlyphUUID = g.UUID.String()
	case ActionDelete:
		if err := h.store.DeleteGlyph(ctx, projectID, a.GlyphName); err != nil {
			return err
		}
	case ActionRename:
		if err := h.store.RenameGlyph(ctx, projectID, a.GlyphName, a.NewName); err != nil {
			return err
		}
	case ActionReorder:
		if err := h.store.SetGlyphOrder(ctx, projectID, a.Order); err != nil {
			return err
		}
	case ActionMove:
		order, err := h.store.GlyphOrder(ctx, projectID)
		if err != nil {
			return err
		}
		moved, err := moveName(order, a.GlyphName, a.Index)
		if err != nil {
			return err
		}
		if err := h.store.SetGlyphOrder(ctx, projectID, moved); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown glyph action %q", errInvalid, a.Kind)
	}
	order, err := h.store.GlyphOrder(ctx, projectID)
	if err != nil {
		return err
	}
	a.Order = order
	a.UserID = c.hello.UserID
	h.broadcast(Envelope{Topic: TopicAction, ProjectID: projectID, Action: &a})
	return nil
}

// moveName returns order with name moved to index, clamped to the list.
func moveName(order []string, name string, index int) ([]string, error) {
	i := slices.Index(order, name)
	if i < 0 {
		return nil, fmt.Errorf("%w: glyph %q", store.ErrNotFound, name)
	}
	out := slices.Delete(slices.Clone(order), i, i+1)
	index = max(0, min(index, len(out)))
	return slices.Insert(out, index, name), nil
}

func (h *Hub) editing(c *Conn, e Editing) {
	c.mu.Lock()
	if e.State == StartEdit {
		c.editing[e.GlyphName] = true
	} else {
		delete(c.editing, e.GlyphName)
	}
	c.mu.Unlock()
	e.UserID = c.hello.UserID
	e.Nickname = c.hello.Nickname
	h.broadcast(Envelope{Topic: TopicEditing, ProjectID: c.hello.ProjectID, Editing: &e})
}

// Conn is an in-process connection to a Hub.
type Conn struct {
	hub    *Hub
	id     string
	hello  Hello
	sub    *Subscriber
	events chan Envelope
	quit   chan struct{}

	closed  atomic.Bool
	evicted atomic.Bool

	mu      sync.Mutex
	editing map[string]bool
}

var _ Channel = (*Conn)(nil)

// ID returns the connection's unique id.
func (c *Conn) ID() string { return c.id }

// Hello returns the identity the connection joined with.
func (c *Conn) Hello() Hello { return c.hello }

func (c *Conn) Events() <-chan Envelope { return c.events }

func (c *Conn) Publish(ctx context.Context, env Envelope) error {
	switch {
	case c.evicted.Load():
		return ErrEvicted
	case c.closed.Load():
		return ErrClosed
	}
	return c.hub.handle(ctx, c, env)
}

// Close leaves the project. It is safe to call more than once.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.hub.leave(c, "closed")
	close(c.quit)
	return nil
}

func (c *Conn) stopEditing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.editing))
	for name := range c.editing {
		names = append(names, name)
	}
	slices.Sort(names)
	clear(c.editing)
	return names
}

// forward moves messages from the broker subscription to Events until the
// connection is closed, or until the subscription ends and its buffer is
// drained.
func (c *Conn) forward() {
	defer close(c.events)
	for {
		select {
		case env := <-c.sub.C:
			if !c.emit(c.sub.Next(env)) {
				return
			}
		case <-c.sub.Done():
			for {
				select {
				case env := <-c.sub.C:
					if !c.emit(env) {
						return
					}
				default:
					return
				}
			}
		case <-c.quit:
			return
		}
	}
}

func (c *Conn) emit(env Envelope) bool {
	select {
	case c.events <- env:
		return true
	case <-c.quit:
		return false
	}
}
