package kb

// schema holds the DDL for a local knowledge base.
var schema = []string{
	// Create items table
	`CREATE TABLE IF NOT EXISTS items (
        iri TEXT PRIMARY KEY,
        label TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        language TEXT NOT NULL DEFAULT '',
        kind TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`,

	// Create links table (class/instance hierarchy)
	`CREATE TABLE IF NOT EXISTS links (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source TEXT NOT NULL,
        target TEXT NOT NULL,
        link_type TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (source) REFERENCES items(iri),
        FOREIGN KEY (target) REFERENCES items(iri)
    )`,

	// Create indexes
	`CREATE INDEX IF NOT EXISTS idx_items_label ON items(label)`,
	`CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_links_source ON links(source)`,
	`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target)`,
	`CREATE INDEX IF NOT EXISTS idx_links_type_target ON links(link_type, target)`,
}
