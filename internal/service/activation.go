package service

import (
	"context"
	"fmt"

	"github.com/doclink-ai/doclink/internal/domain"
)

// ActivationState describes where a user stands in the
// select-a-domain lifecycle.
type ActivationState int

const (
	// StateNoDomainSelected means no domain is active; questions are
	// rejected until one is selected.
	StateNoDomainSelected ActivationState = iota
	// StateDomainActive means a domain with content is selected and
	// its working set is published.
	StateDomainActive
	// StateDomainEmpty means a domain is selected but holds no files;
	// the published working set is empty.
	StateDomainEmpty
)

// SelectionResult is what a caller gets back after activating a
// domain: the authoritative file list and the activation state.
type SelectionResult struct {
	DomainID   string
	DomainName string
	State      ActivationState
	FileIDs    []string
	FileNames  []string
}

// ActivationService keeps the per-user working set consistent with the
// selected domain. The durable store is authoritative: every mutation
// of a selected domain's content goes through here, and the cache is
// rebuilt from the store rather than patched in place.
type ActivationService struct {
	domains DomainRepositoryInterface
	files   FileRepositoryInterface
	cache   WorkingSetCacheInterface
	cipher  SentenceCipher
}

func NewActivationService(
	domains DomainRepositoryInterface,
	files FileRepositoryInterface,
	cache WorkingSetCacheInterface,
	cipher SentenceCipher,
) *ActivationService {
	return &ActivationService{domains: domains, files: files, cache: cache, cipher: cipher}
}

// SelectDomain makes domainID the user's active domain. The working
// set is recomputed from the store in full, then Publish swings the
// selection pointer and installs the set in one step, so a reader
// never observes the previous selection with the new domain's content
// or vice versa.
func (s *ActivationService) SelectDomain(ctx context.Context, userID, domainID string) (*SelectionResult, error) {
	d, err := s.domains.Get(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrDomainNotFound
	}

	ws, fileList, err := s.recompute(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Publish(ctx, userID, ws); err != nil {
		return nil, err
	}

	res := &SelectionResult{
		DomainID:   d.ID,
		DomainName: d.Name,
		State:      StateDomainActive,
	}
	if len(ws.Units) == 0 {
		res.State = StateDomainEmpty
	}
	for _, f := range fileList {
		res.FileIDs = append(res.FileIDs, f.ID)
		res.FileNames = append(res.FileNames, f.Name)
	}
	return res, nil
}

// CurrentSelection returns the user's active domain ID, or "" when no
// domain is selected.
func (s *ActivationService) CurrentSelection(ctx context.Context, userID string) (string, error) {
	return s.cache.SelectedDomain(ctx, userID)
}

// WorkingSet returns the selected domain's working set, rebuilding it
// from the store on a cache miss. A half-present cache entry counts as
// a miss. The TTL is refreshed on every hit.
func (s *ActivationService) WorkingSet(ctx context.Context, userID string) (*domain.WorkingSet, error) {
	domainID, err := s.cache.SelectedDomain(ctx, userID)
	if err != nil {
		return nil, err
	}
	if domainID == "" {
		return nil, domain.ErrNoDomainSelected
	}

	ws, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok && ws.DomainID == domainID {
		if err := s.cache.RefreshTTL(ctx, userID); err != nil {
			return nil, err
		}
		return ws, nil
	}

	ws, _, err = s.recompute(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Publish(ctx, userID, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// OnContentChanged reacts to committed or removed files in domainID.
// If the domain is the user's active one, the working set is rebuilt
// from the store and republished; otherwise the change is invisible to
// the cache and nothing happens.
func (s *ActivationService) OnContentChanged(ctx context.Context, userID, domainID string) error {
	selected, err := s.cache.SelectedDomain(ctx, userID)
	if err != nil {
		return err
	}
	if selected != domainID {
		return nil
	}

	ws, _, err := s.recompute(ctx, userID, domainID)
	if err != nil {
		return err
	}
	return s.cache.Publish(ctx, userID, ws)
}

// OnDomainDeleted clears the selection and drops the working set when
// the deleted domain was the active one.
func (s *ActivationService) OnDomainDeleted(ctx context.Context, userID, domainID string) error {
	selected, err := s.cache.SelectedDomain(ctx, userID)
	if err != nil {
		return err
	}
	if selected != domainID {
		return nil
	}

	if err := s.cache.ClearSelectedDomain(ctx, userID); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, userID)
}

// recompute builds the working set for domainID from the durable
// store, decrypting each sentence against its owning file.
func (s *ActivationService) recompute(ctx context.Context, userID, domainID string) (*domain.WorkingSet, []*domain.File, error) {
	fileList, err := s.files.ListByDomain(ctx, userID, domainID)
	if err != nil {
		return nil, nil, err
	}

	ws := &domain.WorkingSet{DomainID: domainID}
	if len(fileList) == 0 {
		return ws, fileList, nil
	}

	fileIDs := make([]string, 0, len(fileList))
	for _, f := range fileList {
		fileIDs = append(fileIDs, f.ID)
	}

	rows, embeddings, err := s.files.GetContent(ctx, fileIDs)
	if err != nil {
		return nil, nil, err
	}
	if rows == nil {
		// Embeddings missing for part of the content; serve what the
		// store can vouch for, which is nothing.
		return ws, fileList, nil
	}

	ws.Units = make([]domain.WorkingSetUnit, 0, len(rows))
	ws.Embeddings = embeddings
	for _, r := range rows {
		sentence, err := s.cipher.Decrypt(r.Sentence, r.FileID)
		if err != nil {
			return nil, nil, fmt.Errorf("decrypting sentence of file %s: %w", r.FileID, err)
		}
		ws.Units = append(ws.Units, domain.WorkingSetUnit{
			FileID:     r.FileID,
			FileName:   r.FileName,
			Sentence:   sentence,
			PageNumber: r.PageNumber,
			IsHeader:   r.IsHeader,
			IsTable:    r.IsTable,
		})
	}
	return ws, fileList, nil
}
