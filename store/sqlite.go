package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/fontogether/fontogether/internal/clock"
	"github.com/fontogether/fontogether/internal/sqlitepool"
	"github.com/fontogether/fontogether/outline"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS project_details (
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (project_id, kind)
);

CREATE TABLE IF NOT EXISTS glyphs (
	project_id       INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	uuid             TEXT NOT NULL UNIQUE,
	layer_name       TEXT NOT NULL,
	unicodes         TEXT NOT NULL,
	advance_width    REAL NOT NULL,
	advance_height   REAL NOT NULL,
	outline          TEXT NOT NULL,
	sort_order       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	last_modified_by TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, name)
);

CREATE INDEX IF NOT EXISTS idx_glyphs_order ON glyphs(project_id, sort_order);

CREATE TABLE IF NOT EXISTS collaborators (
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	nickname   TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL,
	PRIMARY KEY (project_id, user_id)
);
`

const glyphColumns = `name, uuid, layer_name, unicodes, advance_width, advance_height,
	outline, sort_order, updated_at, last_modified_by`

// SQLiteConfig configures OpenSQLite.
type SQLiteConfig struct {
	Path     string
	PoolSize int
	Clock    clock.Clock
	Logger   *slog.Logger
}

// SQLite is a Store persisted in a SQLite database.
type SQLite struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// OpenSQLite opens (creating if necessary) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("glyph store: %w", err)
	}
	return &SQLite{pool: pool, clock: c, logger: logger}, nil
}

// Close closes the underlying pool.
func (s *SQLite) Close() error {
	return s.pool.Close()
}

func (s *SQLite) now() int64 {
	return s.clock.Now().UnixNano()
}

func (s *SQLite) CreateProject(ctx context.Context, name string, owner Collaborator) (_ *Project, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: create project: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("glyph store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	created := s.now()
	if err := sqlitex.Execute(conn,
		`INSERT INTO projects (name, owner_id, created_at) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{name, owner.UserID, created}}); err != nil {
		return nil, fmt.Errorf("glyph store: insert project: %w", err)
	}
	id := conn.LastInsertRowID()
	if err := sqlitex.Execute(conn,
		`INSERT INTO collaborators (project_id, user_id, nickname, role) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{id, owner.UserID, owner.Nickname, string(RoleOwner)}}); err != nil {
		return nil, fmt.Errorf("glyph store: insert owner: %w", err)
	}
	s.logger.Info("project created", "project", id, "name", name, "owner", owner.UserID)
	return &Project{
		ID:        id,
		Name:      name,
		OwnerID:   owner.UserID,
		CreatedAt: time.Unix(0, created),
		Details:   map[DetailKind]string{},
	}, nil
}

func (s *SQLite) Project(ctx context.Context, id int64) (*Project, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: project: %w", err)
	}
	defer s.pool.Put(conn)
	return loadProject(conn, id)
}

func loadProject(conn *sqlite.Conn, id int64) (*Project, error) {
	var p *Project
	err := sqlitex.Execute(conn,
		`SELECT name, owner_id, created_at FROM projects WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p = &Project{
					ID:        id,
					Name:      stmt.ColumnText(0),
					OwnerID:   stmt.ColumnText(1),
					CreatedAt: time.Unix(0, stmt.ColumnInt64(2)),
					Details:   map[DetailKind]string{},
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("glyph store: query project: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	err = sqlitex.Execute(conn,
		`SELECT kind, data FROM project_details WHERE project_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p.Details[DetailKind(stmt.ColumnText(0))] = stmt.ColumnText(1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("glyph store: query details: %w", err)
	}
	return p, nil
}

func requireProject(conn *sqlite.Conn, id int64) error {
	found := false
	err := sqlitex.Execute(conn, `SELECT 1 FROM projects WHERE id = ?`, &sqlitex.ExecOptions{
		Args:       []any{id},
		ResultFunc: func(*sqlite.Stmt) error { found = true; return nil },
	})
	if err != nil {
		return fmt.Errorf("glyph store: query project: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	return nil
}

func (s *SQLite) Glyphs(ctx context.Context, projectID int64) ([]*outline.Glyph, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: glyphs: %w", err)
	}
	defer s.pool.Put(conn)
	if err := requireProject(conn, projectID); err != nil {
		return nil, err
	}
	return queryGlyphs(conn,
		`SELECT `+glyphColumns+` FROM glyphs WHERE project_id = ? ORDER BY sort_order, name`,
		projectID)
}

func (s *SQLite) Glyph(ctx context.Context, projectID int64, name string) (*outline.Glyph, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: glyph: %w", err)
	}
	defer s.pool.Put(conn)
	return loadGlyph(conn, projectID, name)
}

func loadGlyph(conn *sqlite.Conn, projectID int64, name string) (*outline.Glyph, error) {
	if err := requireProject(conn, projectID); err != nil {
		return nil, err
	}
	gs, err := queryGlyphs(conn,
		`SELECT `+glyphColumns+` FROM glyphs WHERE project_id = ? AND name = ?`,
		projectID, name)
	if err != nil {
		return nil, err
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("%w: glyph %q", ErrNotFound, name)
	}
	return gs[0], nil
}

func queryGlyphs(conn *sqlite.Conn, query string, args ...any) ([]*outline.Glyph, error) {
	var gs []*outline.Glyph
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			g, err := scanGlyph(stmt)
			if err != nil {
				return err
			}
			gs = append(gs, g)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("glyph store: query glyphs: %w", err)
	}
	return gs, nil
}

func scanGlyph(stmt *sqlite.Stmt) (*outline.Glyph, error) {
	g := &outline.Glyph{
		Name:           stmt.ColumnText(0),
		LayerName:      stmt.ColumnText(2),
		AdvanceWidth:   stmt.ColumnFloat(4),
		AdvanceHeight:  stmt.ColumnFloat(5),
		SortOrder:      stmt.ColumnInt(7),
		UpdatedAt:      time.Unix(0, stmt.ColumnInt64(8)),
		LastModifiedBy: stmt.ColumnText(9),
	}
	id, err := uuid.Parse(stmt.ColumnText(1))
	if err != nil {
		return nil, fmt.Errorf("glyph %q: uuid: %w", g.Name, err)
	}
	g.UUID = id
	if err := json.Unmarshal([]byte(stmt.ColumnText(3)), &g.Unicodes); err != nil {
		return nil, fmt.Errorf("glyph %q: unicodes: %w", g.Name, err)
	}
	o, err := outline.Parse(stmt.ColumnText(6))
	if err != nil {
		return nil, fmt.Errorf("glyph %q: %w", g.Name, err)
	}
	g.Outline = o
	return g, nil
}

func insertGlyph(conn *sqlite.Conn, projectID int64, g *outline.Glyph) error {
	unicodes, err := json.Marshal(nonNil(g.Unicodes))
	if err != nil {
		return err
	}
	o := g.Outline
	if o == nil {
		o = &outline.Outline{}
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO glyphs (project_id, `+glyphColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			projectID, g.Name, g.UUID.String(), g.LayerName, string(unicodes),
			g.AdvanceWidth, g.AdvanceHeight, o.String(), g.SortOrder,
			g.UpdatedAt.UnixNano(), g.LastModifiedBy,
		}})
	if err != nil {
		return fmt.Errorf("glyph store: insert glyph %q: %w", g.Name, err)
	}
	return nil
}

func nonNil(u []int) []int {
	if u == nil {
		return []int{}
	}
	return u
}

func nextSortOrder(conn *sqlite.Conn, projectID int64) (int, error) {
	next := 0
	err := sqlitex.Execute(conn,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM glyphs WHERE project_id = ?`,
		&sqlitex.ExecOptions{
			Args:       []any{projectID},
			ResultFunc: func(stmt *sqlite.Stmt) error { next = stmt.ColumnInt(0); return nil },
		})
	return next, err
}

func glyphExists(conn *sqlite.Conn, projectID int64, name string) (bool, error) {
	found := false
	err := sqlitex.Execute(conn, `SELECT 1 FROM glyphs WHERE project_id = ? AND name = ?`,
		&sqlitex.ExecOptions{
			Args:       []any{projectID, name},
			ResultFunc: func(*sqlite.Stmt) error { found = true; return nil },
		})
	if err != nil {
		return false, fmt.Errorf("glyph store: query glyph: %w", err)
	}
	return found, nil
}

func (s *SQLite) CreateGlyph(ctx context.Context, projectID int64, g *outline.Glyph) (_ *outline.Glyph, err error) {
	if err := outline.ValidateName(g.Name); err != nil {
		return nil, err
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: create glyph: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("glyph store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	if err := requireProject(conn, projectID); err != nil {
		return nil, err
	}
	exists, err := glyphExists(conn, projectID, g.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, g.Name)
	}
	c := g.Clone()
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.SortOrder, err = nextSortOrder(conn, projectID); err != nil {
		return nil, fmt.Errorf("glyph store: sort order: %w", err)
	}
	c.UpdatedAt = time.Unix(0, s.now())
	if err := insertGlyph(conn, projectID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLite) SaveGlyph(ctx context.Context, projectID int64, w GlyphWrite) (_ *outline.Glyph, err error) {
	if err := outline.ValidateName(w.Name); err != nil {
		return nil, err
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: save glyph: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("glyph store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	g, err := loadGlyph(conn, projectID, w.Name)
	switch {
	case err == nil:
		if err := sqlitex.Execute(conn, `DELETE FROM glyphs WHERE project_id = ? AND name = ?`,
			&sqlitex.ExecOptions{Args: []any{projectID, w.Name}}); err != nil {
			return nil, fmt.Errorf("glyph store: replace glyph: %w", err)
		}
	case isNotFound(err):
		if err := requireProject(conn, projectID); err != nil {
			return nil, err
		}
		g = outline.NewGlyph(w.Name)
		if g.SortOrder, err = nextSortOrder(conn, projectID); err != nil {
			return nil, fmt.Errorf("glyph store: sort order: %w", err)
		}
	default:
		return nil, err
	}
	if w.Outline != nil {
		g.Outline = w.Outline.Clone()
	}
	g.AdvanceWidth = w.AdvanceWidth
	if w.Unicodes != nil {
		g.Unicodes = append([]int(nil), w.Unicodes...)
	}
	g.UpdatedAt = time.Unix(0, s.now())
	g.LastModifiedBy = w.UserID
	if err := insertGlyph(conn, projectID, g); err != nil {
		return nil, err
	}
	s.logger.Debug("glyph saved", "project", projectID, "glyph", w.Name, "user", w.UserID)
	return g, nil
}

func (s *SQLite) RenameGlyph(ctx context.Context, projectID int64, oldName, newName string) (err error) {
	if err := outline.ValidateName(newName); err != nil {
		return err
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: rename glyph: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("glyph store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	if _, err := loadGlyph(conn, projectID, oldName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	taken, err := glyphExists(conn, projectID, newName)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrNameTaken, newName)
	}
	if err := sqlitex.Execute(conn,
		`UPDATE glyphs SET name = ?, updated_at = ? WHERE project_id = ? AND name = ?`,
		&sqlitex.ExecOptions{Args: []any{newName, s.now(), projectID, oldName}}); err != nil {
		return fmt.Errorf("glyph store: rename glyph: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteGlyph(ctx context.Context, projectID int64, name string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: delete glyph: %w", err)
	}
	defer s.pool.Put(conn)
	if err := requireProject(conn, projectID); err != nil {
		return err
	}
	if err := sqlitex.Execute(conn, `DELETE FROM glyphs WHERE project_id = ? AND name = ?`,
		&sqlitex.ExecOptions{Args: []any{projectID, name}}); err != nil {
		return fmt.Errorf("glyph store: delete glyph: %w", err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: glyph %q", ErrNotFound, name)
	}
	return nil
}

func (s *SQLite) SetGlyphOrder(ctx context.Context, projectID int64, names []string) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: set glyph order: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("glyph store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	if err := requireProject(conn, projectID); err != nil {
		return err
	}
	var current []string
	err = sqlitex.Execute(conn,
		`SELECT name FROM glyphs WHERE project_id = ? ORDER BY sort_order, name`,
		&sqlitex.ExecOptions{
			Args: []any{projectID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current = append(current, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("glyph store: query order: %w", err)
	}
	for i, name := range reorder(current, names) {
		if err := sqlitex.Execute(conn,
			`UPDATE glyphs SET sort_order = ? WHERE project_id = ? AND name = ?`,
			&sqlitex.ExecOptions{Args: []any{i, projectID, name}}); err != nil {
			return fmt.Errorf("glyph store: update order: %w", err)
		}
	}
	return nil
}

func (s *SQLite) UpdateDetail(ctx context.Context, projectID int64, kind DetailKind, data string) error {
	if !kind.Valid() {
		return fmt.Errorf("store: unknown detail kind %q", kind)
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: update detail: %w", err)
	}
	defer s.pool.Put(conn)
	if err := requireProject(conn, projectID); err != nil {
		return err
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO project_details (project_id, kind, data) VALUES (?, ?, ?)
		 ON CONFLICT (project_id, kind) DO UPDATE SET data = excluded.data`,
		&sqlitex.ExecOptions{Args: []any{projectID, string(kind), data}})
	if err != nil {
		return fmt.Errorf("glyph store: update detail: %w", err)
	}
	return nil
}

func (s *SQLite) Collaborators(ctx context.Context, projectID int64) ([]Collaborator, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: collaborators: %w", err)
	}
	defer s.pool.Put(conn)
	if err := requireProject(conn, projectID); err != nil {
		return nil, err
	}
	var cs []Collaborator
	err = sqlitex.Execute(conn,
		`SELECT user_id, nickname, role FROM collaborators WHERE project_id = ? ORDER BY user_id`,
		&sqlitex.ExecOptions{
			Args: []any{projectID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				cs = append(cs, Collaborator{
					UserID:   stmt.ColumnText(0),
					Nickname: stmt.ColumnText(1),
					Role:     Role(stmt.ColumnText(2)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("glyph store: query collaborators: %w", err)
	}
	return cs, nil
}

func (s *SQLite) AddCollaborator(ctx context.Context, projectID int64, c Collaborator) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: add collaborator: %w", err)
	}
	defer s.pool.Put(conn)
	p, err := loadProject(conn, projectID)
	if err != nil {
		return err
	}
	if c.UserID == p.OwnerID {
		c.Role = RoleOwner
	} else if c.Role == "" {
		c.Role = RoleEditor
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO collaborators (project_id, user_id, nickname, role) VALUES (?, ?, ?, ?)
		 ON CONFLICT (project_id, user_id) DO UPDATE SET nickname = excluded.nickname, role = excluded.role`,
		&sqlitex.ExecOptions{Args: []any{projectID, c.UserID, c.Nickname, string(c.Role)}})
	if err != nil {
		return fmt.Errorf("glyph store: add collaborator: %w", err)
	}
	return nil
}

func (s *SQLite) RemoveCollaborator(ctx context.Context, projectID int64, actorID, userID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("glyph store: remove collaborator: %w", err)
	}
	defer s.pool.Put(conn)
	p, err := loadProject(conn, projectID)
	if err != nil {
		return err
	}
	if err := checkRemoval(p.OwnerID, actorID, userID); err != nil {
		return err
	}
	if err := sqlitex.Execute(conn,
		`DELETE FROM collaborators WHERE project_id = ? AND user_id = ?`,
		&sqlitex.ExecOptions{Args: []any{projectID, userID}}); err != nil {
		return fmt.Errorf("glyph store: remove collaborator: %w", err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: collaborator %q", ErrNotFound, userID)
	}
	return nil
}

func (s *SQLite) GlyphOrder(ctx context.Context, projectID int64) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("glyph store: glyph order: %w", err)
	}
	defer s.pool.Put(conn)
	if err := requireProject(conn, projectID); err != nil {
		return nil, err
	}
	order := []string{}
	err = sqlitex.Execute(conn,
		`SELECT name FROM glyphs WHERE project_id = ? ORDER BY sort_order, name`,
		&sqlitex.ExecOptions{
			Args: []any{projectID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				order = append(order, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("glyph store: query order: %w", err)
	}
	return order, nil
}
