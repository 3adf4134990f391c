// Package store persists animations in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/matt-g-everett/ledanim/anim"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by Load when no animation has the requested name.
var ErrNotFound = errors.New("store: animation not found")

type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if logger == nil {
		logger = anim.Logger()
	}
	s := &Store{conn: conn, logger: logger.With("component", "store")}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		s.logger.Info("applied migration", "name", name)
	}

	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Names lists the stored animations.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name FROM animations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list animations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the animation called name. Deleting a missing animation is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM animations WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete animation %q: %w", name, err)
	}
	return nil
}

// Save writes a, replacing any stored animation with the same name.
func (s *Store) Save(ctx context.Context, a *anim.Animation) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM animations WHERE name = ?", a.Name); err != nil {
		return fmt.Errorf("failed to replace animation %q: %w", a.Name, err)
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO animations (name) VALUES (?)", a.Name)
	if err != nil {
		return fmt.Errorf("failed to insert animation %q: %w", a.Name, err)
	}
	animID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, out := range a.Outputs() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO outputs (animation_id, stable_index, fallback_name, id_type) VALUES (?, ?, ?, ?)",
			animID, out.StableIndex, out.FallbackName, out.IDType); err != nil {
			return fmt.Errorf("failed to insert output %d: %w", out.StableIndex, err)
		}
	}

	for li, layer := range a.Layers() {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO layers (animation_id, position, name, influence, mix_mode) VALUES (?, ?, ?, ?, ?)",
			animID, li, layer.Name, layer.Influence, int(layer.MixMode))
		if err != nil {
			return fmt.Errorf("failed to insert layer %q: %w", layer.Name, err)
		}
		layerID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for si, strip := range layer.Strips() {
			if err := saveStrip(ctx, tx, layerID, si, strip); err != nil {
				return fmt.Errorf("layer %q: %w", layer.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit animation %q: %w", a.Name, err)
	}
	s.logger.Info("saved animation", "name", a.Name, "layers", len(a.Layers()), "outputs", len(a.Outputs()))
	return nil
}

func saveStrip(ctx context.Context, tx *sql.Tx, layerID int64, position int, strip *anim.Strip) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO strips (layer_id, position, kind, frame_start, frame_end) VALUES (?, ?, ?, ?, ?)",
		layerID, position, int(strip.Kind), bound(strip.FrameStart), bound(strip.FrameEnd))
	if err != nil {
		return fmt.Errorf("failed to insert strip %d: %w", position, err)
	}
	stripID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	ks, ok := strip.AsKeyframe()
	if !ok {
		return nil
	}

	curvePos := 0
	for _, cs := range ks.ChannelSets() {
		for _, c := range cs.Curves() {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO curves (strip_id, position, output_index, path, array_index, extrapolation) VALUES (?, ?, ?, ?, ?, ?)",
				stripID, curvePos, cs.OutputIndex, c.Path, c.Index, int(c.Extrapolation))
			if err != nil {
				return fmt.Errorf("failed to insert curve %s[%d]: %w", c.Path, c.Index, err)
			}
			curvePos++
			curveID, err := res.LastInsertId()
			if err != nil {
				return err
			}

			for ki, k := range c.Keyframes() {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO keyframes (curve_id, position, time, value, interpolation, key_type) VALUES (?, ?, ?, ?, ?, ?)",
					curveID, ki, k.Time, k.Value, int(k.Interpolation), int(k.Type)); err != nil {
					return fmt.Errorf("failed to insert key %d of %s[%d]: %w", ki, c.Path, c.Index, err)
				}
			}
		}
	}
	return nil
}

// bound maps infinite strip bounds to NULL.
func bound(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Load reads the animation called name. Outputs come back unbound, carrying
// their stable index, fallback name and ID type.
func (s *Store) Load(ctx context.Context, name string) (*anim.Animation, error) {
	var animID int64
	err := s.conn.QueryRowContext(ctx, "SELECT id FROM animations WHERE name = ?", name).Scan(&animID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load animation %q: %w", name, err)
	}

	a := anim.NewAnimation(name)
	l := &loader{ctx: ctx, conn: s.conn, animID: animID, anim: a}
	steps := []func() error{l.outputs, l.layers, l.strips, l.curves, l.keyframes}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("failed to load animation %q: %w", name, err)
		}
	}
	return a, nil
}

// loader rebuilds an animation one table at a time. Every query is drained
// before the next starts, as the store uses a single connection.
type loader struct {
	ctx    context.Context
	conn   *sql.DB
	animID int64
	anim   *anim.Animation

	layerByID map[int64]*anim.Layer
	stripByID map[int64]*anim.KeyframeStrip
	curveByID map[int64]*anim.Curve
}

func (l *loader) query(query string, scan func(*sql.Rows) error) error {
	rows, err := l.conn.QueryContext(l.ctx, query, l.animID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (l *loader) outputs() error {
	return l.query(
		"SELECT stable_index, fallback_name, id_type FROM outputs WHERE animation_id = ? ORDER BY stable_index",
		func(rows *sql.Rows) error {
			var index int
			var fallback, idType string
			if err := rows.Scan(&index, &fallback, &idType); err != nil {
				return err
			}
			out := l.anim.OutputRestore(index)
			out.FallbackName = fallback
			out.IDType = idType
			return nil
		})
}

func (l *loader) layers() error {
	l.layerByID = make(map[int64]*anim.Layer)
	return l.query(
		"SELECT id, name, influence, mix_mode FROM layers WHERE animation_id = ? ORDER BY position",
		func(rows *sql.Rows) error {
			var id int64
			var name string
			var influence float64
			var mix int
			if err := rows.Scan(&id, &name, &influence, &mix); err != nil {
				return err
			}
			layer := l.anim.LayerAdd(name)
			layer.Influence = influence
			layer.MixMode = anim.MixMode(mix)
			l.layerByID[id] = layer
			return nil
		})
}

func (l *loader) strips() error {
	l.stripByID = make(map[int64]*anim.KeyframeStrip)
	return l.query(`
		SELECT s.id, s.layer_id, s.kind, s.frame_start, s.frame_end
		FROM strips s JOIN layers ly ON ly.id = s.layer_id
		WHERE ly.animation_id = ?
		ORDER BY ly.position, s.position`,
		func(rows *sql.Rows) error {
			var id, layerID int64
			var kind int
			var start, end sql.NullFloat64
			if err := rows.Scan(&id, &layerID, &kind, &start, &end); err != nil {
				return err
			}
			layer, ok := l.layerByID[layerID]
			if !ok {
				return fmt.Errorf("strip %d references unknown layer %d", id, layerID)
			}

			strip := layer.StripAdd(anim.StripKind(kind))
			frameStart, frameEnd := math.Inf(-1), math.Inf(1)
			if start.Valid {
				frameStart = start.Float64
			}
			if end.Valid {
				frameEnd = end.Float64
			}
			if err := strip.Resize(frameStart, frameEnd); err != nil {
				return fmt.Errorf("strip %d: %w", id, err)
			}
			if ks, ok := strip.AsKeyframe(); ok {
				l.stripByID[id] = ks
			}
			return nil
		})
}

func (l *loader) curves() error {
	l.curveByID = make(map[int64]*anim.Curve)
	return l.query(`
		SELECT c.id, c.strip_id, c.output_index, c.path, c.array_index, c.extrapolation
		FROM curves c
		JOIN strips s ON s.id = c.strip_id
		JOIN layers ly ON ly.id = s.layer_id
		WHERE ly.animation_id = ?
		ORDER BY c.strip_id, c.position`,
		func(rows *sql.Rows) error {
			var id, stripID int64
			var outputIndex, arrayIndex, extrapolation int
			var path string
			if err := rows.Scan(&id, &stripID, &outputIndex, &path, &arrayIndex, &extrapolation); err != nil {
				return err
			}
			ks, ok := l.stripByID[stripID]
			if !ok {
				return fmt.Errorf("curve %d references unknown strip %d", id, stripID)
			}

			out := l.anim.OutputRestore(outputIndex)
			c := ks.ChannelsEnsure(out).CurveEnsure(path, arrayIndex)
			c.Extrapolation = anim.Extrapolation(extrapolation)
			l.curveByID[id] = c
			return nil
		})
}

func (l *loader) keyframes() error {
	return l.query(`
		SELECT k.curve_id, k.time, k.value, k.interpolation, k.key_type
		FROM keyframes k
		JOIN curves c ON c.id = k.curve_id
		JOIN strips s ON s.id = c.strip_id
		JOIN layers ly ON ly.id = s.layer_id
		WHERE ly.animation_id = ?
		ORDER BY k.curve_id, k.position`,
		func(rows *sql.Rows) error {
			var curveID int64
			var time, value float64
			var interp, keyType int
			if err := rows.Scan(&curveID, &time, &value, &interp, &keyType); err != nil {
				return err
			}
			c, ok := l.curveByID[curveID]
			if !ok {
				return fmt.Errorf("keyframe references unknown curve %d", curveID)
			}
			c.Insert(time, value, anim.KeyframeSettings{
				Interpolation: anim.Interpolation(interp),
				Type:          anim.KeyType(keyType),
			})
			return nil
		})
}
