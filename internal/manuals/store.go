// Package manuals persists manuals in SQLite and serves them over the API.
package manuals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/manualview/internal/db"
	"github.com/ziadkadry99/manualview/internal/manual"
)

// Store manages persistence of manuals and their tab content.
type Store struct {
	db *db.DB
}

// NewStore creates a new manual store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// List returns all manuals ordered by title.
func (s *Store) List(ctx context.Context) ([]manual.Summary, error) {
	return s.summaries(ctx, `SELECT manual_id, title, source_path FROM manuals ORDER BY title`)
}

// Search returns the manuals whose title contains q, case-insensitively.
func (s *Store) Search(ctx context.Context, q string) ([]manual.Summary, error) {
	if q == "" {
		return s.List(ctx)
	}
	return s.summaries(ctx,
		`SELECT manual_id, title, source_path FROM manuals
		 WHERE lower(title) LIKE '%' || lower(?) || '%' ORDER BY title`, q)
}

func (s *Store) summaries(ctx context.Context, query string, args ...any) ([]manual.Summary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing manuals: %w", err)
	}
	defer rows.Close()

	out := []manual.Summary{}
	for rows.Next() {
		var m manual.Summary
		if err := rows.Scan(&m.ManualID, &m.Title, &m.SourcePath); err != nil {
			return nil, fmt.Errorf("scanning manual: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get assembles manual id with all of its tabs. It returns an error
// wrapping manual.ErrNotFound when no such manual exists.
func (s *Store) Get(ctx context.Context, id int) (*manual.Manual, error) {
	m := &manual.Manual{ID: id}
	var features, special string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, source_path, language, features, special_features FROM manuals WHERE manual_id = ?`, id,
	).Scan(&m.Title, &m.SourcePath, &m.Language, &features, &special)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("manual %d: %w", id, manual.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting manual %d: %w", id, err)
	}
	m.Features = decodeList(features)
	m.SpecialFeatures = decodeList(special)

	type tabRow struct {
		id  int64
		tab manual.Tab
		typ manual.ContentType
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tab_id, tab_key, title, tab_order, content_type FROM tabs WHERE manual_id = ? ORDER BY tab_order`, id)
	if err != nil {
		return nil, fmt.Errorf("listing tabs: %w", err)
	}
	var tabs []tabRow
	for rows.Next() {
		var r tabRow
		if err := rows.Scan(&r.id, &r.tab.Key, &r.tab.Title, &r.tab.Order, &r.typ); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning tab: %w", err)
		}
		tabs = append(tabs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.Tabs = make([]manual.Tab, 0, len(tabs))
	for _, r := range tabs {
		content, err := s.content(ctx, r.id, r.tab.Key, r.typ)
		if err != nil {
			return nil, fmt.Errorf("tab %s: %w", r.tab.Key, err)
		}
		r.tab.Content = content
		m.Tabs = append(m.Tabs, r.tab)
	}
	return m, nil
}

func (s *Store) content(ctx context.Context, tabID int64, key string, typ manual.ContentType) (manual.Content, error) {
	switch typ {
	case manual.TypeList:
		rows, err := s.db.QueryContext(ctx,
			`SELECT item_order, text FROM tab_content_list WHERE tab_id = ? ORDER BY item_order`, tabID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		items := []manual.Item{}
		for rows.Next() {
			var order int
			var it manual.Item
			if err := rows.Scan(&order, &it.Text); err != nil {
				return nil, err
			}
			it.ID = ItemID(key, order)
			items = append(items, it)
		}
		return manual.ListContent{Items: items}, rows.Err()

	case manual.TypeSteps:
		rows, err := s.db.QueryContext(ctx,
			`SELECT step_order, text, warning, note FROM tab_content_steps WHERE tab_id = ? ORDER BY step_order`, tabID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var c manual.StepsContent
		c.Steps = []manual.Step{}
		first := true
		var lastNote sql.NullString
		for rows.Next() {
			var order int
			var st manual.Step
			var warning, note sql.NullString
			if err := rows.Scan(&order, &st.Text, &warning, &note); err != nil {
				return nil, err
			}
			if first {
				c.Warning = warning.String
				first = false
			}
			lastNote = note
			st.ID = StepID(key, order)
			c.Steps = append(c.Steps, st)
		}
		c.Notes = lastNote.String
		return c, rows.Err()

	case manual.TypeText:
		var text string
		err := s.db.QueryRowContext(ctx, `SELECT text FROM tab_content_text WHERE tab_id = ?`, tabID).Scan(&text)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		return manual.TextContent{Text: text}, nil
	}
	return nil, fmt.Errorf("unsupported content type %q", typ)
}

// IDBySource returns the id of the manual imported from sourcePath.
func (s *Store) IDBySource(ctx context.Context, sourcePath string) (int, bool, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT manual_id FROM manuals WHERE source_path = ?`, sourcePath).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}
	return id, true, nil
}

// Create inserts m with all tab content in one transaction and returns the
// new manual id. Item and step ids are not stored; they are derived from
// the tab key and position on read.
func (s *Store) Create(ctx context.Context, m *manual.Manual) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	lang := m.Language
	if lang == "" {
		lang = "en"
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO manuals (title, source_path, language, features, special_features) VALUES (?, ?, ?, ?, ?)`,
		m.Title, m.SourcePath, lang, encodeList(m.Features), encodeList(m.SpecialFeatures))
	if err != nil {
		return 0, fmt.Errorf("inserting manual: %w", err)
	}
	manualID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, t := range m.Tabs {
		order := t.Order
		if order == 0 {
			order = i + 1
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tabs (manual_id, tab_key, title, tab_order, content_type) VALUES (?, ?, ?, ?, ?)`,
			manualID, t.Key, t.Title, order, t.Type())
		if err != nil {
			return 0, fmt.Errorf("inserting tab %s: %w", t.Key, err)
		}
		tabID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		if err := insertContent(ctx, tx, tabID, t.Content); err != nil {
			return 0, fmt.Errorf("inserting content of tab %s: %w", t.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing manual: %w", err)
	}
	return int(manualID), nil
}

func insertContent(ctx context.Context, tx *sql.Tx, tabID int64, c manual.Content) error {
	switch c := c.(type) {
	case manual.ListContent:
		for i, it := range c.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tab_content_list (tab_id, item_order, text) VALUES (?, ?, ?)`,
				tabID, i+1, it.Text); err != nil {
				return err
			}
		}
	case manual.StepsContent:
		last := len(c.Steps) - 1
		for i, st := range c.Steps {
			var warning, note sql.NullString
			if i == 0 && c.Warning != "" {
				warning = sql.NullString{String: c.Warning, Valid: true}
			}
			if i == last && c.Notes != "" {
				note = sql.NullString{String: c.Notes, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tab_content_steps (tab_id, step_order, text, warning, note) VALUES (?, ?, ?, ?, ?)`,
				tabID, i+1, st.Text, warning, note); err != nil {
				return err
			}
		}
	case manual.TextContent:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tab_content_text (tab_id, text) VALUES (?, ?)`, tabID, c.Text); err != nil {
			return err
		}
	default:
		return fmt.Errorf("tab has no content")
	}
	return nil
}

// Delete removes manual id and, by cascade, its tabs.
func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM manuals WHERE manual_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting manual %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("manual %d: %w", id, manual.ErrNotFound)
	}
	return nil
}

// All loads every manual in title order.
func (s *Store) All(ctx context.Context) ([]*manual.Manual, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*manual.Manual, 0, len(list))
	for _, sum := range list {
		m, err := s.Get(ctx, sum.ManualID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Load implements source.Loader.
func (s *Store) Load(ctx context.Context, id int) (*manual.Manual, error) {
	return s.Get(ctx, id)
}

// ItemID is the id of the list item at 1-based position order.
func ItemID(tabKey string, order int) string {
	return fmt.Sprintf("%s_item_%02d", tabKey, order)
}

// StepID is the id of the step at 1-based position order.
func StepID(tabKey string, order int) string {
	return fmt.Sprintf("%s_step_%02d", tabKey, order)
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
