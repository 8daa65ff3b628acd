package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
)

// UploadService runs the two-phase ingestion pipeline. Stage extracts
// and embeds a document into the cache without touching quotas; Commit
// moves every staged document into a domain in one transaction, with
// the file quota checked inside that transaction.
type UploadService struct {
	txRunner   TxRunner
	quota      *QuotaLedger
	activation *ActivationService
	cache      WorkingSetCacheInterface
	extractor  Extractor
	embedder   Embedder
	fetcher    URLFetcher
	cipher     SentenceCipher
	archiver   UploadArchiver
	uuidGen    UUIDGenerator
	maxBytes   int64
}

func NewUploadService(
	txRunner TxRunner,
	quota *QuotaLedger,
	activation *ActivationService,
	cache WorkingSetCacheInterface,
	extractor Extractor,
	embedder Embedder,
	fetcher URLFetcher,
	cipher SentenceCipher,
	archiver UploadArchiver,
	uuidGen UUIDGenerator,
	maxBytes int64,
) *UploadService {
	return &UploadService{
		txRunner:   txRunner,
		quota:      quota,
		activation: activation,
		cache:      cache,
		extractor:  extractor,
		embedder:   embedder,
		fetcher:    fetcher,
		cipher:     cipher,
		archiver:   archiver,
		uuidGen:    uuidGen,
		maxBytes:   maxBytes,
	}
}

// StagedFile summarizes one staged upload for the caller.
type StagedFile struct {
	FileName      string
	SentenceCount int
	StagedAt      time.Time
}

// StageFile extracts, embeds, and stages one uploaded document.
// Nothing durable is written and no quota is consumed; the entry lives
// in the cache on a short TTL until committed or expired.
func (s *UploadService) StageFile(ctx context.Context, userID, fileName string, data []byte) (*StagedFile, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	extracted, err := s.extractor.ReadFile(ctx, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", fileName, err)
	}
	if len(extracted.Sentences) == 0 {
		return nil, domain.ErrNoExtractableContent
	}

	embeddings, err := s.embedder.CreateEmbeddingsFromSentences(ctx, extracted.Sentences)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", fileName, err)
	}

	entry := &domain.StagingEntry{
		FileName:     fileName,
		ModifiedDate: time.Now().UTC(),
		Sentences:    extracted.Sentences,
		PageNumbers:  extracted.PageNumbers,
		IsHeaders:    extracted.IsHeaders,
		IsTables:     extracted.IsTables,
		Embeddings:   embeddings,
	}
	if err := domain.ValidateStagingEntry(entry); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "extraction produced misaligned columns", err)
	}

	if err := s.cache.PutStagingEntry(ctx, userID, entry); err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, userID, fileName, data); err != nil {
			// Archival is best effort; the staged entry stands.
			_ = err
		}
	}

	return &StagedFile{
		FileName:      fileName,
		SentenceCount: len(entry.Sentences),
		StagedAt:      entry.ModifiedDate,
	}, nil
}

// StageURL fetches a URL and stages its content under a file name
// derived from the URL path.
func (s *UploadService) StageURL(ctx context.Context, userID, rawURL string) (*StagedFile, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.ErrInvalidURL
	}

	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = u.Host
	}
	if !strings.Contains(name, ".") {
		name += ".txt"
	}

	return s.StageFile(ctx, userID, name, data)
}

// ListStaged returns the user's currently staged uploads.
func (s *UploadService) ListStaged(ctx context.Context, userID string) ([]*StagedFile, error) {
	entries, err := s.cache.ListStagingEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*StagedFile, 0, len(entries))
	for _, e := range entries {
		out = append(out, &StagedFile{
			FileName:      e.FileName,
			SentenceCount: len(e.Sentences),
			StagedAt:      e.ModifiedDate,
		})
	}
	return out, nil
}

// DiscardStaged drops staged uploads without committing them.
func (s *UploadService) DiscardStaged(ctx context.Context, userID string, fileNames []string) error {
	return s.cache.DeleteStagingEntries(ctx, userID, fileNames)
}

// CommitResult reports what a commit persisted.
type CommitResult struct {
	DomainID  string
	FileIDs   []string
	FileNames []string
}

// Commit persists every staged upload into domainID. The file quota is
// checked against the staged batch size inside the commit transaction
// with the user row locked, so two concurrent commits cannot both slip
// under the ceiling. On success the staging entries are deleted; on a
// quota rejection they are left in place so the user can retry after
// freeing space.
func (s *UploadService) Commit(ctx context.Context, userID, domainID string) (*CommitResult, error) {
	entries, err := s.cache.ListStagingEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoStagedFiles
	}

	res := &CommitResult{DomainID: domainID}
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		d, err := repos.Domains().Get(ctx, userID, domainID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrDomainNotFound
		}

		if err := s.quota.AdmitFiles(ctx, repos, userID, len(entries)); err != nil {
			return err
		}

		now := time.Now().UTC()
		files := make([]*domain.File, 0, len(entries))
		var units []domain.ContentUnit
		for _, e := range entries {
			f := &domain.File{
				ID:           s.uuidGen.NewString(),
				DomainID:     domainID,
				UserID:       userID,
				Name:         e.FileName,
				ModifiedDate: e.ModifiedDate,
				UploadDate:   now,
			}
			files = append(files, f)

			for i, sentence := range e.Sentences {
				sealed, err := s.cipher.Encrypt(sentence, f.ID)
				if err != nil {
					return fmt.Errorf("encrypting sentence of %s: %w", e.FileName, err)
				}
				units = append(units, domain.ContentUnit{
					FileID:     f.ID,
					Sentence:   sealed,
					PageNumber: e.PageNumbers[i],
					IsHeader:   e.IsHeaders[i],
					IsTable:    e.IsTables[i],
					Embedding:  e.Embeddings[i],
				})
			}
		}

		if err := repos.Files().InsertBatch(ctx, files, units); err != nil {
			return err
		}

		for _, f := range files {
			res.FileIDs = append(res.FileIDs, f.ID)
			res.FileNames = append(res.FileNames, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The entries are durable now; losing the cleanup only costs TTL.
	if err := s.cache.DeleteStagingEntries(ctx, userID, res.FileNames); err != nil {
		return nil, err
	}

	if err := s.activation.OnContentChanged(ctx, userID, domainID); err != nil {
		return nil, err
	}
	return res, nil
}
