// Package domain defines the core interfaces and types for Deviza.
package domain

import (
	"context"
	"time"
)

// CaseProvider supplies the precedent corpus to the matcher.
// Any failure is returned to the caller; implementations never substitute data.
type CaseProvider interface {
	GetCurrencyRelatedCases(ctx context.Context) ([]*LegalCase, error)
}

// Repository defines the interface for data persistence.
// Document, clause and analysis methods require tenantID for strict
// multi-tenancy isolation. Cases and patterns are shared reference data.
type Repository interface {
	CaseProvider

	// Document operations
	SaveDocument(ctx context.Context, tenantID string, doc *Document) error
	GetDocument(ctx context.Context, tenantID string, docID string) (*Document, error)

	// Extracted clauses
	SaveClauses(ctx context.Context, tenantID string, documentID string, clauses []ExtractedClause) error
	ListClauses(ctx context.Context, tenantID string, documentID string) ([]ExtractedClause, error)

	// Analysis results
	SaveAnalysis(ctx context.Context, tenantID string, analysis *Analysis) error
	GetAnalysis(ctx context.Context, tenantID string, documentID string) (*Analysis, error)

	// Precedent corpus
	SaveCase(ctx context.Context, c *LegalCase) error
	GetCase(ctx context.Context, idOrNumber string) (*LegalCase, error)
	SearchCases(ctx context.Context, filter CaseFilter) ([]*LegalCase, error)

	// Administrative clause patterns
	SavePattern(ctx context.Context, p *ClausePattern) error
	ListPatterns(ctx context.Context) ([]*ClausePattern, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
