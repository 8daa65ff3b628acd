package service

import (
	"context"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
)

// DomainService manages a user's domains and their files. Creation is
// quota-checked inside the transaction; deletion routes through the
// activation service so a deleted active domain never leaves a stale
// working set behind.
type DomainService struct {
	txRunner   TxRunner
	domains    DomainRepositoryInterface
	files      FileRepositoryInterface
	quota      *QuotaLedger
	activation *ActivationService
	uuidGen    UUIDGenerator
}

func NewDomainService(
	txRunner TxRunner,
	domains DomainRepositoryInterface,
	files FileRepositoryInterface,
	quota *QuotaLedger,
	activation *ActivationService,
	uuidGen UUIDGenerator,
) *DomainService {
	return &DomainService{
		txRunner:   txRunner,
		domains:    domains,
		files:      files,
		quota:      quota,
		activation: activation,
		uuidGen:    uuidGen,
	}
}

// Create adds a user domain. The domain quota is checked with the user
// row locked, in the same transaction as the insert.
func (s *DomainService) Create(ctx context.Context, userID, name string) (*domain.Domain, error) {
	d := domain.NewDomain(s.uuidGen.NewString(), userID, name, domain.DomainTypeUser, time.Now().UTC())
	if err := domain.ValidateDomain(d); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid domain", err)
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := s.quota.AdmitDomain(ctx, repos, userID); err != nil {
			return err
		}
		return repos.Domains().Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Rename changes a domain's display name.
func (s *DomainService) Rename(ctx context.Context, userID, domainID, newName string) error {
	if newName == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "domain name cannot be empty")
	}

	d, err := s.domains.Get(ctx, userID, domainID)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrDomainNotFound
	}
	return s.domains.Rename(ctx, domainID, newName)
}

// Delete removes a user domain together with its files and content in
// one transaction. The default domain is protected and yields
// ErrDefaultDomainFinal.
func (s *DomainService) Delete(ctx context.Context, userID, domainID string) error {
	d, err := s.domains.Get(ctx, userID, domainID)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrDomainNotFound
	}

	var outcome domain.DeleteDomainOutcome
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		outcome, err = repos.Domains().Delete(ctx, domainID)
		return err
	})
	if err != nil {
		return err
	}
	switch outcome {
	case domain.DeleteDomainProtected:
		return domain.ErrDefaultDomainFinal
	case domain.DeleteDomainNotFound:
		return domain.ErrDomainNotFound
	}

	return s.activation.OnDomainDeleted(ctx, userID, domainID)
}

// RemoveFile deletes one file and its content rows, then rebuilds the
// working set if the file's domain is the active one.
func (s *DomainService) RemoveFile(ctx context.Context, userID, domainID, fileID string) error {
	fileList, err := s.files.ListByDomain(ctx, userID, domainID)
	if err != nil {
		return err
	}

	found := false
	for _, f := range fileList {
		if f.ID == fileID {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrFileNotFound
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Files().Delete(ctx, fileID)
	})
	if err != nil {
		return err
	}
	return s.activation.OnContentChanged(ctx, userID, domainID)
}

// DomainOverview is one domain with its files, for account summaries.
type DomainOverview struct {
	Domain   *domain.Domain
	Files    []*domain.File
	Selected bool
}

// ListFiles returns the files of one domain.
func (s *DomainService) ListFiles(ctx context.Context, userID, domainID string) ([]*domain.File, error) {
	d, err := s.domains.Get(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrDomainNotFound
	}
	return s.files.ListByDomain(ctx, userID, domainID)
}

// Overview lists every domain of the user with its files, marking the
// currently selected one.
func (s *DomainService) Overview(ctx context.Context, userID string) ([]*DomainOverview, error) {
	domainList, err := s.domains.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected, err := s.activation.CurrentSelection(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*DomainOverview, 0, len(domainList))
	for _, d := range domainList {
		fileList, err := s.files.ListByDomain(ctx, userID, d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &DomainOverview{
			Domain:   d,
			Files:    fileList,
			Selected: d.ID == selected,
		})
	}
	return out, nil
}
