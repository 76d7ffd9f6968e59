package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/fontogether/fontogether/catalog"
	"github.com/fontogether/fontogether/collab"
	"github.com/fontogether/fontogether/edit"
	"github.com/fontogether/fontogether/fontimport"
	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/preview"
	"github.com/fontogether/fontogether/session"
	"github.com/fontogether/fontogether/store"
)

// fontInfo is the FONT_INFO detail written by import and read by preview.
type fontInfo struct {
	FamilyName string  `json:"familyName,omitempty"`
	UnitsPerEm int     `json:"unitsPerEm"`
	Ascender   float64 `json:"ascender"`
	Descender  float64 `json:"descender"`
}

func (env *environment) openStore() (*store.SQLite, error) {
	return store.OpenSQLite(store.SQLiteConfig{
		Path:     env.cfg.Server.Database,
		PoolSize: env.cfg.Server.PoolSize,
		Logger:   env.logger,
	})
}

func runServe(args []string) error {
	var configPath string
	fs := newFlagSet("serve", &configPath)
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ln, err := net.Listen("tcp", env.cfg.Server.Listen)
	if err != nil {
		return err
	}
	srv := collab.NewServer(collab.ServerConfig{
		Hub:               collab.NewHub(st, env.logger),
		HeartbeatInterval: env.cfg.Server.HeartbeatInterval,
		Logger:            env.logger,
	})
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}
	env.logger.Info("collaboration server stopped")
	return nil
}

func runImport(args []string) error {
	var configPath, fontPath, owner, nickname, name string
	fs := newFlagSet("import", &configPath)
	fs.StringVar(&fontPath, "font", "", "TrueType or OpenType file (required)")
	fs.StringVar(&owner, "owner", "", "owner user id (required)")
	fs.StringVar(&nickname, "nickname", "", "owner nickname (default: the user id)")
	fs.StringVar(&name, "name", "", "project name (default: the font family)")
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}
	if fontPath == "" || owner == "" {
		return errors.New("import: --font and --owner are required")
	}
	if nickname == "" {
		nickname = owner
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return err
	}
	font, err := fontimport.Load(data)
	if err != nil {
		return err
	}
	if name == "" {
		name = font.Family
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	p, err := st.CreateProject(ctx, name, store.Collaborator{UserID: owner, Nickname: nickname, Role: store.RoleOwner})
	if err != nil {
		return err
	}
	info, err := json.Marshal(fontInfo{
		FamilyName: font.Family,
		UnitsPerEm: font.UnitsPerEm,
		Ascender:   font.Ascender,
		Descender:  font.Descender,
	})
	if err != nil {
		return err
	}
	if err := st.UpdateDetail(ctx, p.ID, store.FontInfo, string(info)); err != nil {
		return err
	}
	for _, g := range font.Glyphs {
		g.LastModifiedBy = owner
		if _, err := st.CreateGlyph(ctx, p.ID, g); err != nil {
			return fmt.Errorf("glyph %q: %w", g.Name, err)
		}
	}
	env.logger.Info("project imported", "project", p.ID, "name", name, "glyphs", len(font.Glyphs))
	fmt.Println(p.ID)
	return nil
}

func runInvite(args []string) error {
	var configPath, user, nickname string
	var projectID int64
	fs := newFlagSet("invite", &configPath)
	fs.Int64Var(&projectID, "project", 0, "project id (required)")
	fs.StringVar(&user, "user", "", "user id (required)")
	fs.StringVar(&nickname, "nickname", "", "nickname (default: the user id)")
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}
	if projectID == 0 || user == "" {
		return errors.New("invite: --project and --user are required")
	}
	if nickname == "" {
		nickname = user
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.AddCollaborator(context.Background(), projectID,
		store.Collaborator{UserID: user, Nickname: nickname, Role: store.RoleEditor})
}

func runGlyphs(args []string) error {
	var configPath, sortName string
	var projectID int64
	var filter catalog.Filter
	fs := newFlagSet("glyphs", &configPath)
	fs.Int64Var(&projectID, "project", 0, "project id (required)")
	fs.StringVar(&sortName, "sort", string(catalog.SortIndex), "index, codepoint, name, user-friendly or script-order")
	fs.StringVar(&filter.Script, "script", "", "only glyphs of this script, e.g. Latin")
	fs.StringVar(&filter.Query, "query", "", "match glyph name, character name or code point")
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}
	sortOpt, err := catalog.ParseSortOption(sortName)
	if err != nil {
		return err
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	glyphs, err := st.Glyphs(context.Background(), projectID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUNICODE\tSCRIPT\tCHARACTER\tADVANCE")
	for _, g := range catalog.Sort(filter.Apply(glyphs), sortOpt) {
		code := "-"
		if u := g.PrimaryUnicode(); u >= 0 {
			code = outline.FormatUnicode(rune(u))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\n", g.Name, code, catalog.ScriptOf(g), catalog.CharName(g), g.AdvanceWidth)
	}
	return w.Flush()
}

func runPreview(args []string) error {
	var configPath, glyphName, out string
	var projectID int64
	var size int
	fs := newFlagSet("preview", &configPath)
	fs.Int64Var(&projectID, "project", 0, "project id (required)")
	fs.StringVar(&glyphName, "glyph", "", "glyph name (required)")
	fs.StringVar(&out, "out", "", "output file (default: <glyph>.png)")
	fs.IntVar(&size, "size", 0, "thumbnail size in pixels (default: preview.size)")
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}
	if projectID == 0 || glyphName == "" {
		return errors.New("preview: --project and --glyph are required")
	}
	if out == "" {
		out = glyphName + ".png"
	}
	if size == 0 {
		size = env.cfg.Preview.Size
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	p, err := st.Project(ctx, projectID)
	if err != nil {
		return err
	}
	g, err := st.Glyph(ctx, projectID, glyphName)
	if err != nil {
		return err
	}

	opts := preview.Options{
		Size: size,
		Resolve: func(name string) *outline.Glyph {
			base, err := st.Glyph(ctx, projectID, name)
			if err != nil {
				env.logger.Warn("component base unavailable", "glyph", name, "err", err)
				return nil
			}
			return base
		},
	}
	if data := p.Details[store.FontInfo]; data != "" {
		var info fontInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			env.logger.Warn("ignoring malformed font info", "err", err)
		} else {
			opts.UnitsPerEm = float64(info.UnitsPerEm)
			opts.Ascender = info.Ascender
			opts.Descender = info.Descender
		}
	}

	img, err := preview.Render(g, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := preview.EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// workspaceConfig builds the session configuration for user from the
// editor section.
func (env *environment) workspaceConfig(projectID int64, user, nickname string, src session.Source, ch collab.Channel) session.Config {
	return session.Config{
		ProjectID:     projectID,
		UserID:        user,
		Nickname:      nickname,
		Source:        src,
		Channel:       ch,
		RetryInterval: env.cfg.Editor.RetryInterval,
		EditOptions:   []edit.Option{edit.WithConfig(env.cfg.Editor.EditConfig())},
		Logger:        env.logger,
	}
}

// runJoin attaches to the server as a collaborator and keeps the given
// glyphs open, following remote edits until interrupted. Glyphs and project
// details are read from the configured database.
func runJoin(args []string) error {
	var configPath, user, nickname string
	var projectID int64
	var glyphs []string
	fs := newFlagSet("join", &configPath)
	fs.Int64Var(&projectID, "project", 0, "project id (required)")
	fs.StringVar(&user, "user", "", "user id (required)")
	fs.StringVar(&nickname, "nickname", "", "nickname (default: the user id)")
	fs.StringArrayVar(&glyphs, "glyph", nil, "glyph to open; repeatable")
	env, err := parse(fs, args, &configPath)
	if err != nil {
		return err
	}
	if projectID == 0 || user == "" {
		return errors.New("join: --project and --user are required")
	}
	if nickname == "" {
		nickname = user
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	client := collab.Dial(ctx, collab.ClientConfig{
		Address:           env.cfg.Server.Listen,
		Hello:             collab.Hello{ProjectID: projectID, UserID: user, Nickname: nickname},
		HeartbeatInterval: env.cfg.Server.HeartbeatInterval,
		Logger:            env.logger,
	})
	w, err := session.NewWorkspace(ctx, env.workspaceConfig(projectID, user, nickname, st, client))
	if err != nil {
		client.Close()
		return err
	}
	for _, name := range glyphs {
		if _, err := w.OpenTab(ctx, name); err != nil {
			w.Close(context.Background())
			return err
		}
	}
	env.logger.Info("joined project", "project", projectID, "user", user, "tabs", len(glyphs))

	err = w.Run(ctx)
	if cerr := w.Close(context.Background()); cerr != nil && !errors.Is(cerr, collab.ErrNotConnected) {
		env.logger.Warn("closing workspace", "error", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
