package kb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/metrics"
)

// LocalBackend is an embedded libSQL-backed knowledge base. It holds one
// database with an items table and a hierarchy links table. Scope
// restrictions are resolved through a recursive descendant closure over
// subclass-of edges; instances join the closure through instance-of edges.
type LocalBackend struct {
	config *Config
	db     *sql.DB

	stmtMu    sync.RWMutex
	stmtCache map[string]*sql.Stmt
}

// NewLocalBackend opens the database and initializes the schema.
func NewLocalBackend(config *Config) (*LocalBackend, error) {
	dbURL := config.URL
	if !strings.HasPrefix(dbURL, "file:") && config.AuthToken != "" {
		// Build URL safely and append/override the authToken parameter
		if u, perr := url.Parse(dbURL); perr == nil {
			q := u.Query()
			q.Set("authToken", config.AuthToken)
			u.RawQuery = q.Encode()
			dbURL = u.String()
		} else if strings.Contains(dbURL, "?") {
			dbURL = dbURL + "&authToken=" + url.QueryEscape(config.AuthToken)
		} else {
			dbURL = dbURL + "?authToken=" + url.QueryEscape(config.AuthToken)
		}
	}

	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}

	b := &LocalBackend{
		config:    config,
		db:        db,
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := b.initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize knowledge base: %w", err)
	}

	// Apply connection pool tuning from config
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxIdleSec > 0 {
		db.SetConnMaxIdleTime(time.Duration(config.ConnMaxIdleSec) * time.Second)
	}
	if config.ConnMaxLifeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifeSec) * time.Second)
	}

	return b, nil
}

// initialize creates tables and indexes if they don't exist.
func (b *LocalBackend) initialize(db *sql.DB) error {
	done := metrics.TimeQuery("kb_initialize")
	success := false
	defer func() { done(success) }()
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range schema {
		if _, err := tx.Exec(statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	success = true
	return nil
}

// Open returns a pool-backed read connection.
func (b *LocalBackend) Open(ctx context.Context) (Connection, error) {
	return &localConn{b: b}, nil
}

// Close closes the database and all cached statements.
func (b *LocalBackend) Close() error {
	b.stmtMu.Lock()
	for _, stmt := range b.stmtCache {
		_ = stmt.Close()
	}
	b.stmtCache = make(map[string]*sql.Stmt)
	b.stmtMu.Unlock()
	return b.db.Close()
}

type localConn struct {
	b *LocalBackend
}

func (c *localConn) Execute(ctx context.Context, conditions ConditionSet) ([]apptype.Handle, error) {
	return c.b.execute(ctx, conditions)
}

// Close is a no-op; the connection is backed by the shared pool.
func (c *localConn) Close() error { return nil }

// getPreparedStmt returns or prepares and caches a statement.
func (b *LocalBackend) getPreparedStmt(ctx context.Context, sqlText string) (*sql.Stmt, error) {
	// fast path read
	b.stmtMu.RLock()
	if stmt, ok := b.stmtCache[sqlText]; ok {
		b.stmtMu.RUnlock()
		return stmt, nil
	}
	b.stmtMu.RUnlock()

	// prepare and store
	stmt, err := b.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	b.stmtMu.Lock()
	b.stmtCache[sqlText] = stmt
	b.stmtMu.Unlock()
	return stmt, nil
}

func (b *LocalBackend) execute(ctx context.Context, conditions ConditionSet) ([]apptype.Handle, error) {
	done := metrics.TimeQuery("kb_local_query")
	success := false
	defer func() { done(success) }()

	sqlText, args, err := buildItemQuery(conditions, b.config.QueryLimit)
	if err != nil {
		return nil, err
	}

	stmt, err := b.getPreparedStmt(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute item query: %w", err)
	}
	defer rows.Close()

	var handles []apptype.Handle
	for rows.Next() {
		var h apptype.Handle
		if err := rows.Scan(&h.Identifier, &h.Label, &h.Description, &h.Language); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		handles = append(handles, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item results: %w", err)
	}

	success = true
	return handles, nil
}

// buildItemQuery translates a condition set into SQL. The scope restriction
// is woven into the WHERE clause itself rather than applied as a
// post-filter: it changes the space being searched.
func buildItemQuery(c ConditionSet, limit int) (string, []any, error) {
	var sb strings.Builder
	var args []any

	if scope := c.Scope(); scope != "" {
		sb.WriteString(`WITH RECURSIVE scope_tree(iri) AS (
    SELECT ?
    UNION
    SELECT l.source FROM links l JOIN scope_tree st ON l.target = st.iri
    WHERE l.link_type = 'subclass-of'
)
`)
		args = append(args, scope)
	}

	labelCol := "''"
	if c.WantsLabel() {
		labelCol = "i.label"
	}
	descCol := "''"
	if c.WantsDescription() {
		descCol = "i.description"
	}
	fmt.Fprintf(&sb, "SELECT i.iri, %s, %s, i.language FROM items i\nWHERE ", labelCol, descCol)

	switch c.ValueType() {
	case apptype.ValueTypeAnyObject:
		sb.WriteString("i.kind IN ('concept', 'instance')")
	case apptype.ValueTypeConcept:
		sb.WriteString("i.kind = 'concept'")
	case apptype.ValueTypeInstance:
		sb.WriteString("i.kind = 'instance'")
	case apptype.ValueTypeProperty:
		sb.WriteString("i.kind = 'property'")
	default:
		return "", nil, fmt.Errorf("unknown value type: %q", c.ValueType())
	}

	if scope := c.Scope(); scope != "" {
		// Concepts must be proper descendants of the scope; instances
		// qualify through an instance-of edge into the closure.
		sb.WriteString(`
AND ((i.kind <> 'instance' AND i.iri IN (SELECT iri FROM scope_tree) AND i.iri <> ?)
  OR (i.kind = 'instance' AND EXISTS (
        SELECT 1 FROM links l WHERE l.source = i.iri
        AND l.link_type = 'instance-of'
        AND l.target IN (SELECT iri FROM scope_tree))))`)
		args = append(args, scope)
	}

	switch c.Match() {
	case MatchIdentifier:
		sb.WriteString("\nAND i.iri = ?")
		args = append(args, c.Identifier())
	case MatchLabelExact:
		labels := c.Labels()
		if len(labels) == 0 {
			return "", nil, fmt.Errorf("label-exact condition requires at least one label")
		}
		sb.WriteString("\nAND i.label IN (")
		sb.WriteString(strings.TrimSuffix(strings.Repeat("?,", len(labels)), ","))
		sb.WriteString(")")
		for _, l := range labels {
			args = append(args, l)
		}
	case MatchLabelPrefix:
		labels := c.Labels()
		if len(labels) != 1 {
			return "", nil, fmt.Errorf("label-prefix condition requires exactly one prefix")
		}
		sb.WriteString(`
AND i.label LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(labels[0])+"%")
	case MatchLabelContains:
		labels := c.Labels()
		if len(labels) == 0 {
			return "", nil, fmt.Errorf("label-contains condition requires at least one label")
		}
		preds := make([]string, len(labels))
		for i, l := range labels {
			preds[i] = `i.label LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(l)+"%")
		}
		sb.WriteString("\nAND (")
		sb.WriteString(strings.Join(preds, " OR "))
		sb.WriteString(")")
	case MatchNone:
		return "", nil, fmt.Errorf("condition set has no primary condition")
	default:
		return "", nil, fmt.Errorf("unknown match kind: %q", c.Match())
	}

	sb.WriteString("\nORDER BY i.label, i.iri\nLIMIT ?")
	args = append(args, limit)

	return sb.String(), args, nil
}

// escapeLike escapes LIKE metacharacters in user-supplied match operands.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// CreateItems creates or updates items.
func (b *LocalBackend) CreateItems(ctx context.Context, items []apptype.Item) error {
	for _, item := range items {
		if strings.TrimSpace(item.Identifier) == "" {
			return fmt.Errorf("item identifier must be a non-empty string")
		}
		if strings.TrimSpace(item.Label) == "" {
			return fmt.Errorf("item %q must have a label", item.Identifier)
		}
		switch item.Kind {
		case apptype.KindConcept, apptype.KindInstance, apptype.KindProperty:
		default:
			return fmt.Errorf("invalid kind %q for item %q", item.Kind, item.Identifier)
		}

		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for item %q: %w", item.Identifier, err)
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE items SET label = ?, description = ?, language = ?, kind = ? WHERE iri = ?",
			item.Label, item.Description, item.Language, item.Kind, item.Identifier)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update item %q: %w", item.Identifier, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to get rows affected for update: %w", err)
		}

		if rowsAffected == 0 {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO items (iri, label, description, language, kind) VALUES (?, ?, ?, ?, ?)",
				item.Identifier, item.Label, item.Description, item.Language, item.Kind)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert item %q: %w", item.Identifier, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit item %q: %w", item.Identifier, err)
		}
	}

	return nil
}

// CreateLinks creates hierarchy edges between items.
func (b *LocalBackend) CreateLinks(ctx context.Context, links []apptype.Link) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO links (source, target, link_type) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, link := range links {
		if link.Source == "" || link.Target == "" {
			return fmt.Errorf("link endpoints cannot be empty")
		}
		switch link.LinkType {
		case apptype.LinkSubclassOf, apptype.LinkInstanceOf:
		default:
			return fmt.Errorf("invalid link type %q (%s -> %s)", link.LinkType, link.Source, link.Target)
		}

		if _, err := stmt.ExecContext(ctx, link.Source, link.Target, link.LinkType); err != nil {
			return fmt.Errorf("failed to insert link (%s -> %s): %w", link.Source, link.Target, err)
		}
	}

	return tx.Commit()
}

// DeleteItem deletes an item and all links touching it.
func (b *LocalBackend) DeleteItem(ctx context.Context, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("item identifier cannot be empty")
	}

	row := b.db.QueryRowContext(ctx, "SELECT iri FROM items WHERE iri = ?", identifier)
	var existing string
	if err := row.Scan(&existing); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("item not found: %s", identifier)
		}
		return fmt.Errorf("failed to check item existence: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE source = ? OR target = ?", identifier, identifier); err != nil {
		return fmt.Errorf("failed to delete links: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE iri = ?", identifier); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return tx.Commit()
}
