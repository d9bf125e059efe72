package catalog

// schemaSQL defines the catalog structure. Every statement is idempotent so
// Initialize can run against an existing database without data loss.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    summary TEXT,
    service_description TEXT,
    service_url TEXT,
    service_type TEXT,
    mapserver_path TEXT,
    geographic_scope TEXT,
    update_frequency TEXT,
    document_keywords TEXT,
    lineage_status TEXT,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS layers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL,
    layer_name TEXT NOT NULL,
    description TEXT,
    geometry_type TEXT,
    default_visibility INTEGER DEFAULT 1 CHECK (default_visibility IN (0, 1)),
    min_scale REAL,
    max_scale REAL,
    keywords TEXT,
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS lineage_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    source_name TEXT,
    source_url TEXT,
    notes TEXT,
    recorded_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dataset_dependencies (
    dataset_id INTEGER NOT NULL,
    depends_on_dataset_id INTEGER NOT NULL,
    relationship_type TEXT DEFAULT 'source',
    notes TEXT,
    PRIMARY KEY(dataset_id, depends_on_dataset_id),
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE,
    FOREIGN KEY(depends_on_dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS use_cases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT
);

CREATE TABLE IF NOT EXISTS dataset_use_cases (
    dataset_id INTEGER NOT NULL,
    use_case_id INTEGER NOT NULL,
    suitability_score REAL CHECK (suitability_score BETWEEN 0 AND 1),
    rationale TEXT,
    PRIMARY KEY(dataset_id, use_case_id),
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE,
    FOREIGN KEY(use_case_id) REFERENCES use_cases(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    value TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS dataset_keywords (
    dataset_id INTEGER NOT NULL,
    keyword_id INTEGER NOT NULL,
    PRIMARY KEY(dataset_id, keyword_id),
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE,
    FOREIGN KEY(keyword_id) REFERENCES keywords(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS evidence_snippets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL,
    snippet_type TEXT NOT NULL,
    content TEXT NOT NULL,
    source_pointer TEXT,
    metadata_json TEXT,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dataset_embeddings (
    dataset_id INTEGER PRIMARY KEY,
    provider TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    vector TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS nl_queries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    intent TEXT,
    dataset_id INTEGER,
    response_summary TEXT,
    asked_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_layers_dataset_id ON layers(dataset_id);
CREATE INDEX IF NOT EXISTS idx_lineage_dataset ON lineage_events(dataset_id);
CREATE INDEX IF NOT EXISTS idx_dataset_use_cases_use_case ON dataset_use_cases(use_case_id);
CREATE INDEX IF NOT EXISTS idx_dataset_keywords_keyword ON dataset_keywords(keyword_id);
`

// UseCaseSeed is seed data for high-priority dashboard scenarios.
type UseCaseSeed struct {
	Slug        string
	Name        string
	Description string
}

// DefaultUseCases are always present after initialization.
var DefaultUseCases = []UseCaseSeed{
	{
		Slug: "timber-harvest-dashboard",
		Name: "Timber Harvesting Dashboard",
		Description: "Surfacing silviculture, timber stand improvement, and harvest activity " +
			"layers needed for timber dashboard recommendations.",
	},
	{
		Slug: "wildfire-risk-dashboard",
		Name: "Wildfire Risk Dashboard",
		Description: "Aggregates fuels, fire occurrence, and hazard potential layers so the " +
			"librarian can answer wildfire risk questions.",
	},
	{
		Slug: "data-lineage-trace",
		Name: "Data Lineage Trace",
		Description: "Captures provenance hops (MapServer metadata, processing steps, " +
			"external APIs) to power lineage explanations.",
	},
}
