package repository

// Schema definitions for the Deviza database.
// Compatible with both SQLite and PostgreSQL.

const schemaDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    title TEXT NOT NULL,
    source TEXT,
    body TEXT NOT NULL,
    language TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(tenant_id, created_at);
`

const schemaClauses = `
CREATE TABLE IF NOT EXISTS extracted_clauses (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    clause_type TEXT NOT NULL,
    clause_text TEXT NOT NULL,
    original_language TEXT NOT NULL,
    translated_text TEXT,
    start_position INTEGER,
    end_position INTEGER,
    confidence_score REAL NOT NULL,
    risk_level TEXT NOT NULL,
    pattern_name TEXT,
    PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_clauses_document ON extracted_clauses(tenant_id, document_id, seq);
CREATE INDEX IF NOT EXISTS idx_clauses_type ON extracted_clauses(tenant_id, clause_type);
`

const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    status TEXT NOT NULL,
    overall_risk TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    report TEXT NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_analyses_document ON analyses(tenant_id, document_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(tenant_id, status);
`

// schemaLegalCases defines the precedent corpus.
// Cases are shared reference data and carry no tenant column.
const schemaLegalCases = `
CREATE TABLE IF NOT EXISTS legal_cases (
    id TEXT PRIMARY KEY,
    case_number TEXT NOT NULL UNIQUE,
    case_name TEXT NOT NULL,
    country TEXT NOT NULL,
    date TIMESTAMP NOT NULL,
    currency TEXT NOT NULL,
    key_ruling TEXT NOT NULL,
    full_text TEXT,
    court TEXT,
    case_type TEXT NOT NULL,
    significance_score REAL,
    citation_count INTEGER,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_legal_cases_date ON legal_cases(date);
CREATE INDEX IF NOT EXISTS idx_legal_cases_country ON legal_cases(country);
`

const schemaClausePatterns = `
CREATE TABLE IF NOT EXISTS clause_patterns (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    pattern_type TEXT NOT NULL,
    pattern_text TEXT NOT NULL,
    language TEXT NOT NULL,
    clause_category TEXT NOT NULL,
    severity TEXT,
    description TEXT,
    legal_basis TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clause_patterns_lookup ON clause_patterns(language, clause_category, is_active);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaDocuments,
		schemaClauses,
		schemaAnalyses,
		schemaLegalCases,
		schemaClausePatterns,
	}
}
