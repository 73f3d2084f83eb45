package domain

import "time"

// Document is a legal text submitted for analysis.
type Document struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Text      string    `json:"text"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentRequest is the API payload for submitting a document.
type DocumentRequest struct {
	Title    string `json:"title"`
	Source   string `json:"source,omitempty"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Async    bool   `json:"async,omitempty"`
}

// ToDocument converts a request to a Document. ID assignment is left to
// the caller.
func (r *DocumentRequest) ToDocument(tenantID string) *Document {
	return &Document{
		TenantID:  tenantID,
		Title:     r.Title,
		Source:    r.Source,
		Text:      r.Text,
		Language:  ParseLanguage(r.Language),
		CreatedAt: time.Now().UTC(),
	}
}
