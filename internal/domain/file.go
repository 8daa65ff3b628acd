package domain

import (
	"fmt"
	"time"
)

// File represents an uploaded document. It belongs to exactly one
// domain and one user; its sentences live in ContentUnit rows that
// never outlive the file.
type File struct {
	ID           string
	DomainID     string
	UserID       string
	Name         string
	ModifiedDate time.Time
	UploadDate   time.Time
}

// ContentUnit is one extracted sentence or paragraph of a file. The
// sentence is stored as AES-GCM ciphertext bound to the owning file's
// ID, so a row copied under another file fails authentication.
type ContentUnit struct {
	FileID     string
	Sentence   []byte
	PageNumber int
	IsHeader   bool
	IsTable    bool
	Embedding  []float32
}

// ValidateFile validates a File instance
func ValidateFile(f *File) error {
	if f == nil {
		return fmt.Errorf("file cannot be nil")
	}

	if f.ID == "" {
		return fmt.Errorf("file ID is required")
	}

	if f.DomainID == "" {
		return fmt.Errorf("file DomainID is required")
	}

	if f.UserID == "" {
		return fmt.Errorf("file UserID is required")
	}

	if f.Name == "" {
		return fmt.Errorf("file Name is required")
	}

	return nil
}

// WorkingSetUnit is one decrypted sentence of the active domain's
// working set, as served to the search engine.
type WorkingSetUnit struct {
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	Sentence   string `json:"sentence"`
	PageNumber int    `json:"page_number"`
	IsHeader   bool   `json:"is_header"`
	IsTable    bool   `json:"is_table"`
}

// WorkingSet is the ephemeral per-user projection of the selected
// domain's content and embeddings. It is derived state: losing it is a
// performance cost, never a correctness failure.
type WorkingSet struct {
	DomainID   string           `json:"domain_id"`
	Units      []WorkingSetUnit `json:"units"`
	Embeddings [][]float32      `json:"embeddings"`
}

// StagingEntry holds one extracted-but-uncommitted upload. Entries
// expire on a short TTL; an entry that is never committed is lost.
type StagingEntry struct {
	FileName     string      `json:"file_name"`
	ModifiedDate time.Time   `json:"modified_date"`
	Sentences    []string    `json:"sentences"`
	PageNumbers  []int       `json:"page_numbers"`
	IsHeaders    []bool      `json:"is_headers"`
	IsTables     []bool      `json:"is_tables"`
	Embeddings   [][]float32 `json:"embeddings"`
}

// ValidateStagingEntry validates a StagingEntry instance
func ValidateStagingEntry(e *StagingEntry) error {
	if e == nil {
		return fmt.Errorf("staging entry cannot be nil")
	}

	if e.FileName == "" {
		return fmt.Errorf("staging entry FileName is required")
	}

	n := len(e.Sentences)
	if n == 0 {
		return fmt.Errorf("staging entry has no sentences")
	}

	if len(e.PageNumbers) != n || len(e.IsHeaders) != n || len(e.IsTables) != n || len(e.Embeddings) != n {
		return fmt.Errorf("staging entry columns are misaligned")
	}

	return nil
}
