// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-finance/deviza/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// defaultSearchLimit caps SearchCases when the filter sets no limit.
const defaultSearchLimit = 50

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveDocument stores a document with tenant isolation.
func (r *SQLRepository) SaveDocument(ctx context.Context, tenantID string, doc *domain.Document) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO documents (id, tenant_id, title, source, body, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			body = excluded.body,
			language = excluded.language
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		doc.ID, tenantID, doc.Title, doc.Source, doc.Text, string(doc.Language), doc.CreatedAt.UTC(),
	)
	return err
}

// GetDocument retrieves a document by ID with tenant isolation.
func (r *SQLRepository) GetDocument(ctx context.Context, tenantID string, docID string) (*domain.Document, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, title, source, body, language, created_at
		FROM documents
		WHERE tenant_id = ? AND id = ?
	`

	var doc domain.Document
	var source sql.NullString
	var lang string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, docID).Scan(
		&doc.ID, &doc.TenantID, &doc.Title, &source, &doc.Text, &lang, &doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Source = source.String
	doc.Language = domain.Language(lang)
	return &doc, nil
}

// SaveClauses replaces the stored clauses of a document. Clause order is
// preserved.
func (r *SQLRepository) SaveClauses(ctx context.Context, tenantID string, documentID string, clauses []domain.ExtractedClause) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM extracted_clauses WHERE tenant_id = ? AND document_id = ?`),
		tenantID, documentID); err != nil {
		return err
	}

	query := r.rebind(`
		INSERT INTO extracted_clauses (
			id, tenant_id, document_id, seq, clause_type, clause_text, original_language,
			translated_text, start_position, end_position, confidence_score, risk_level, pattern_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, c := range clauses {
		if _, err := tx.ExecContext(ctx, query,
			c.ID, tenantID, documentID, i, string(c.ClauseType), c.ClauseText, string(c.OriginalLanguage),
			c.TranslatedText, nullInt(c.StartPosition), nullInt(c.EndPosition),
			c.ConfidenceScore, string(c.RiskLevel), c.PatternName,
		); err != nil {
			return fmt.Errorf("insert clause %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// ListClauses returns the clauses of a document in extraction order.
func (r *SQLRepository) ListClauses(ctx context.Context, tenantID string, documentID string) ([]domain.ExtractedClause, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, document_id, clause_type, clause_text, original_language, translated_text,
			   start_position, end_position, confidence_score, risk_level, pattern_name
		FROM extracted_clauses
		WHERE tenant_id = ? AND document_id = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clauses := []domain.ExtractedClause{}
	for rows.Next() {
		var c domain.ExtractedClause
		var clauseType, lang, risk string
		var translated, patternName sql.NullString
		var start, end sql.NullInt64

		if err := rows.Scan(
			&c.ID, &c.DocumentID, &clauseType, &c.ClauseText, &lang, &translated,
			&start, &end, &c.ConfidenceScore, &risk, &patternName,
		); err != nil {
			return nil, err
		}

		c.ClauseType = domain.Category(clauseType)
		c.OriginalLanguage = domain.Language(lang)
		c.RiskLevel = domain.RiskLevel(risk)
		c.TranslatedText = translated.String
		c.PatternName = patternName.String
		c.StartPosition = intPtr(start)
		c.EndPosition = intPtr(end)
		clauses = append(clauses, c)
	}

	return clauses, rows.Err()
}

// SaveAnalysis stores an analysis report with tenant isolation.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, tenantID string, analysis *domain.Analysis) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	report, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
		INSERT INTO analyses (id, tenant_id, document_id, status, overall_risk, timestamp, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		analysis.ID, tenantID, analysis.DocumentID, analysis.Status,
		string(analysis.Summary.OverallRisk), analysis.Timestamp.UTC(), string(report),
	)
	return err
}

// GetAnalysis returns the most recent analysis of a document.
func (r *SQLRepository) GetAnalysis(ctx context.Context, tenantID string, documentID string) (*domain.Analysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT report
		FROM analyses
		WHERE tenant_id = ? AND document_id = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var report string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, documentID).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var a domain.Analysis
	if err := json.Unmarshal([]byte(report), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis report: %w", err)
	}
	return &a, nil
}

const caseColumns = `
	id, case_number, case_name, country, date, currency, key_ruling, full_text,
	court, case_type, significance_score, citation_count, created_at
`

// SaveCase upserts a precedent by case number.
func (r *SQLRepository) SaveCase(ctx context.Context, c *domain.LegalCase) error {
	if c.ID == "" || c.CaseNumber == "" {
		return fmt.Errorf("%w: case id and number are required", ErrInvalidInput)
	}

	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var significance sql.NullFloat64
	if c.SignificanceScore != nil {
		significance = sql.NullFloat64{Float64: *c.SignificanceScore, Valid: true}
	}

	query := `
		INSERT INTO legal_cases (` + caseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_number) DO UPDATE SET
			case_name = excluded.case_name,
			country = excluded.country,
			date = excluded.date,
			currency = excluded.currency,
			key_ruling = excluded.key_ruling,
			full_text = excluded.full_text,
			court = excluded.court,
			case_type = excluded.case_type,
			significance_score = excluded.significance_score,
			citation_count = excluded.citation_count
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, c.CaseNumber, c.CaseName, c.Country, c.Date.UTC(), c.Currency, c.KeyRuling, c.FullText,
		c.Court, c.CaseType, significance, nullInt(c.CitationCount), created.UTC(),
	)
	return err
}

// GetCase looks a precedent up by ID or case number.
func (r *SQLRepository) GetCase(ctx context.Context, idOrNumber string) (*domain.LegalCase, error) {
	query := `SELECT ` + caseColumns + ` FROM legal_cases WHERE id = ? OR case_number = ?`

	c, err := scanCase(r.db.QueryRowContext(ctx, r.rebind(query), idOrNumber, idOrNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// GetCurrencyRelatedCases returns the currency corpus, newest first: a major
// currency in the currency field, a foreign-currency name, or a ruling about
// currency or exchange rates.
func (r *SQLRepository) GetCurrencyRelatedCases(ctx context.Context) ([]*domain.LegalCase, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM legal_cases
		WHERE currency LIKE '%CHF%'
		   OR currency LIKE '%EUR%'
		   OR currency LIKE '%USD%'
		   OR currency LIKE '%GBP%'
		   OR LOWER(case_name) LIKE '%foreign%currency%'
		   OR LOWER(case_name) LIKE '%deviza%'
		   OR LOWER(key_ruling) LIKE '%currency%'
		   OR LOWER(key_ruling) LIKE '%exchange%rate%'
		ORDER BY date DESC, case_number
	`
	return r.queryCases(ctx, query)
}

// SearchCases filters the corpus. Zero filter fields are ignored.
func (r *SQLRepository) SearchCases(ctx context.Context, filter domain.CaseFilter) ([]*domain.LegalCase, error) {
	var where []string
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(LOWER(case_name) LIKE ? OR LOWER(key_ruling) LIKE ? OR LOWER(full_text) LIKE ?)")
		term := "%" + strings.ToLower(q) + "%"
		args = append(args, term, term, term)
	}
	if filter.Country != "" {
		where = append(where, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.Currency != "" {
		where = append(where, "UPPER(currency) LIKE ?")
		args = append(args, "%"+strings.ToUpper(filter.Currency)+"%")
	}
	if filter.FromYear > 0 {
		where = append(where, "date >= ?")
		args = append(args, time.Date(filter.FromYear, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	if filter.ToYear > 0 {
		where = append(where, "date < ?")
		args = append(args, time.Date(filter.ToYear+1, 1, 1, 0, 0, 0, 0, time.UTC))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `SELECT ` + caseColumns + ` FROM legal_cases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, case_number LIMIT ?"
	args = append(args, limit)

	return r.queryCases(ctx, query, args...)
}

func (r *SQLRepository) queryCases(ctx context.Context, query string, args ...any) ([]*domain.LegalCase, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []*domain.LegalCase{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.LegalCase, error) {
	var c domain.LegalCase
	var fullText, court sql.NullString
	var significance sql.NullFloat64
	var citations sql.NullInt64

	if err := row.Scan(
		&c.ID, &c.CaseNumber, &c.CaseName, &c.Country, &c.Date, &c.Currency, &c.KeyRuling, &fullText,
		&court, &c.CaseType, &significance, &citations, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.FullText = fullText.String
	c.Court = court.String
	if significance.Valid {
		v := significance.Float64
		c.SignificanceScore = &v
	}
	c.CitationCount = intPtr(citations)
	return &c, nil
}

// SavePattern upserts an administrative clause pattern.
func (r *SQLRepository) SavePattern(ctx context.Context, p *domain.ClausePattern) error {
	if p.ID == "" {
		return fmt.Errorf("%w: pattern id is required", ErrInvalidInput)
	}

	active := 0
	if p.Active {
		active = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO clause_patterns (
			id, name, version, pattern_type, pattern_text, language, clause_category,
			severity, description, legal_basis, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			pattern_type = excluded.pattern_type,
			pattern_text = excluded.pattern_text,
			language = excluded.language,
			clause_category = excluded.clause_category,
			severity = excluded.severity,
			description = excluded.description,
			legal_basis = excluded.legal_basis,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		p.ID, p.Name, p.Version, string(p.Type), p.Text, string(p.Language), string(p.Category),
		p.Severity, p.Description, p.LegalBasis, active, now, now,
	)
	return err
}

// ListPatterns returns every administrative pattern, active or not.
func (r *SQLRepository) ListPatterns(ctx context.Context) ([]*domain.ClausePattern, error) {
	query := `
		SELECT id, name, version, pattern_type, pattern_text, language, clause_category,
			   severity, description, legal_basis, is_active, created_at, updated_at
		FROM clause_patterns
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*domain.ClausePattern
	for rows.Next() {
		var p domain.ClausePattern
		var ptype, lang, category string
		var severity, description, legalBasis sql.NullString
		var active int

		if err := rows.Scan(
			&p.ID, &p.Name, &p.Version, &ptype, &p.Text, &lang, &category,
			&severity, &description, &legalBasis, &active, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}

		p.Type = domain.PatternType(ptype)
		p.Language = domain.Language(lang)
		p.Category = domain.Category(category)
		p.Severity = severity.String
		p.Description = description.String
		p.LegalBasis = legalBasis.String
		p.Active = active == 1
		patterns = append(patterns, &p)
	}

	return patterns, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
