package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type uploadFixture struct {
	svc         *UploadService
	userRepo    *MockUserRepository
	domainRepo  *MockDomainRepository
	fileRepo    *MockFileRepository
	sessionRepo *MockSessionRepository
	cache       *MockWorkingSetCache
	extractor   *MockExtractor
	embedder    *MockEmbedder
	fetcher     *MockURLFetcher
	archiver    *MockUploadArchiver
}

func newUploadFixture(maxBytes int64) *uploadFixture {
	f := &uploadFixture{
		userRepo:    new(MockUserRepository),
		domainRepo:  new(MockDomainRepository),
		fileRepo:    new(MockFileRepository),
		sessionRepo: new(MockSessionRepository),
		cache:       new(MockWorkingSetCache),
		extractor:   new(MockExtractor),
		embedder:    new(MockEmbedder),
		fetcher:     new(MockURLFetcher),
		archiver:    new(MockUploadArchiver),
	}
	txRunner := &stubTxRunner{repos: &stubTxRepositories{
		users:    f.userRepo,
		domains:  f.domainRepo,
		files:    f.fileRepo,
		sessions: f.sessionRepo,
	}}
	quota := NewQuotaLedger(f.userRepo, f.sessionRepo)
	activation := NewActivationService(f.domainRepo, f.fileRepo, f.cache, passthroughCipher{})
	f.svc = NewUploadService(
		txRunner, quota, activation, f.cache,
		f.extractor, f.embedder, f.fetcher,
		passthroughCipher{}, f.archiver, &seqUUIDGenerator{}, maxBytes,
	)
	return f
}

func twoSentenceExtract() *ExtractedFile {
	return &ExtractedFile{
		Sentences:   []string{"First sentence.", "Second sentence."},
		PageNumbers: []int{1, 1},
		IsHeaders:   []bool{false, false},
		IsTables:    []bool{false, false},
	}
}

func TestStageFile_StagesExtractedContent(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()
	data := []byte("First sentence. Second sentence.")

	f.extractor.On("ReadFile", ctx, "notes.txt", data).Return(twoSentenceExtract(), nil)
	f.embedder.On("CreateEmbeddingsFromSentences", ctx, []string{"First sentence.", "Second sentence."}).
		Return([][]float32{{0.1}, {0.2}}, nil)
	f.cache.On("PutStagingEntry", ctx, "user-1", mock.MatchedBy(func(e *domain.StagingEntry) bool {
		return e.FileName == "notes.txt" && len(e.Sentences) == 2 && len(e.Embeddings) == 2
	})).Return(nil)
	f.archiver.On("Archive", ctx, "user-1", "notes.txt", data).Return(nil)

	staged, err := f.svc.StageFile(ctx, "user-1", "notes.txt", data)

	require.NoError(t, err)
	assert.Equal(t, "notes.txt", staged.FileName)
	assert.Equal(t, 2, staged.SentenceCount)
	f.cache.AssertExpectations(t)
}

func TestStageFile_EmptyFile(t *testing.T) {
	f := newUploadFixture(0)

	_, err := f.svc.StageFile(context.Background(), "user-1", "notes.txt", nil)

	assert.ErrorIs(t, err, domain.ErrEmptyFile)
}

func TestStageFile_TooLarge(t *testing.T) {
	f := newUploadFixture(4)

	_, err := f.svc.StageFile(context.Background(), "user-1", "notes.txt", []byte("12345"))

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestStageFile_NoExtractableContent(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()
	data := []byte("   ")

	f.extractor.On("ReadFile", ctx, "blank.txt", data).Return(&ExtractedFile{}, nil)

	_, err := f.svc.StageFile(ctx, "user-1", "blank.txt", data)

	assert.ErrorIs(t, err, domain.ErrNoExtractableContent)
	f.embedder.AssertNotCalled(t, "CreateEmbeddingsFromSentences", mock.Anything, mock.Anything)
}

func TestStageFile_ArchiveFailureDoesNotFailStaging(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()
	data := []byte("First sentence. Second sentence.")

	f.extractor.On("ReadFile", ctx, "notes.txt", data).Return(twoSentenceExtract(), nil)
	f.embedder.On("CreateEmbeddingsFromSentences", ctx, mock.Anything).Return([][]float32{{0.1}, {0.2}}, nil)
	f.cache.On("PutStagingEntry", ctx, "user-1", mock.Anything).Return(nil)
	f.archiver.On("Archive", ctx, "user-1", "notes.txt", data).Return(errors.New("bucket gone"))

	_, err := f.svc.StageFile(ctx, "user-1", "notes.txt", data)

	assert.NoError(t, err)
}

func TestStageURL_DerivesFileName(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()
	data := []byte("Remote sentence one. Remote sentence two.")

	f.fetcher.On("Fetch", ctx, "https://example.com/docs/report.pdf").Return(data, nil)
	f.extractor.On("ReadFile", ctx, "report.pdf", data).Return(twoSentenceExtract(), nil)
	f.embedder.On("CreateEmbeddingsFromSentences", ctx, mock.Anything).Return([][]float32{{0.1}, {0.2}}, nil)
	f.cache.On("PutStagingEntry", ctx, "user-1", mock.Anything).Return(nil)
	f.archiver.On("Archive", ctx, "user-1", "report.pdf", data).Return(nil)

	staged, err := f.svc.StageURL(ctx, "user-1", "https://example.com/docs/report.pdf")

	require.NoError(t, err)
	assert.Equal(t, "report.pdf", staged.FileName)
}

func TestStageURL_AddsTextExtension(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()
	data := []byte("Page sentence.")

	f.fetcher.On("Fetch", ctx, "https://example.com/about").Return(data, nil)
	f.extractor.On("ReadFile", ctx, "about.txt", data).Return(&ExtractedFile{
		Sentences:   []string{"Page sentence."},
		PageNumbers: []int{1},
		IsHeaders:   []bool{false},
		IsTables:    []bool{false},
	}, nil)
	f.embedder.On("CreateEmbeddingsFromSentences", ctx, mock.Anything).Return([][]float32{{0.1}}, nil)
	f.cache.On("PutStagingEntry", ctx, "user-1", mock.Anything).Return(nil)
	f.archiver.On("Archive", ctx, "user-1", "about.txt", data).Return(nil)

	staged, err := f.svc.StageURL(ctx, "user-1", "https://example.com/about")

	require.NoError(t, err)
	assert.Equal(t, "about.txt", staged.FileName)
}

func TestStageURL_RejectsNonHTTP(t *testing.T) {
	f := newUploadFixture(0)

	_, err := f.svc.StageURL(context.Background(), "user-1", "ftp://example.com/file.txt")

	assert.ErrorIs(t, err, domain.ErrInvalidURL)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func stagedEntry(name string) *domain.StagingEntry {
	return &domain.StagingEntry{
		FileName:     name,
		ModifiedDate: time.Now().UTC(),
		Sentences:    []string{"One sentence."},
		PageNumbers:  []int{1},
		IsHeaders:    []bool{false},
		IsTables:     []bool{false},
		Embeddings:   [][]float32{{0.3}},
	}
}

func TestCommit_PersistsAndCleansStaging(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{stagedEntry("a.txt"), stagedEntry("b.txt")}, nil)
	f.domainRepo.On("Get", ctx, "user-1", "dom-1").Return(testDomain("dom-1", "user-1"), nil)
	f.userRepo.On("GetTierForUpdate", ctx, "user-1").Return(domain.TierFree, nil)
	f.fileRepo.On("CountByUser", ctx, "user-1").Return(0, nil)
	f.fileRepo.On("InsertBatch", ctx, mock.MatchedBy(func(files []*domain.File) bool {
		return len(files) == 2 && files[0].DomainID == "dom-1"
	}), mock.MatchedBy(func(units []domain.ContentUnit) bool {
		return len(units) == 2
	})).Return(nil)
	f.cache.On("DeleteStagingEntries", ctx, "user-1", []string{"a.txt", "b.txt"}).Return(nil)
	// commit touches the unselected domain, so the cache stays quiet
	f.cache.On("SelectedDomain", ctx, "user-1").Return("", nil)

	res, err := f.svc.Commit(ctx, "user-1", "dom-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, res.FileNames)
	assert.Len(t, res.FileIDs, 2)
	f.cache.AssertExpectations(t)
	f.fileRepo.AssertExpectations(t)
}

func TestCommit_NothingStaged(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{}, nil)

	_, err := f.svc.Commit(ctx, "user-1", "dom-1")

	assert.ErrorIs(t, err, domain.ErrNoStagedFiles)
}

func TestCommit_DomainNotFound(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{stagedEntry("a.txt")}, nil)
	f.domainRepo.On("Get", ctx, "user-1", "missing").Return(nil, nil)

	_, err := f.svc.Commit(ctx, "user-1", "missing")

	assert.ErrorIs(t, err, domain.ErrDomainNotFound)
}

func TestCommit_QuotaRejectionKeepsStaging(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{stagedEntry("a.txt"), stagedEntry("b.txt")}, nil)
	f.domainRepo.On("Get", ctx, "user-1", "dom-1").Return(testDomain("dom-1", "user-1"), nil)
	f.userRepo.On("GetTierForUpdate", ctx, "user-1").Return(domain.TierFree, nil)
	f.fileRepo.On("CountByUser", ctx, "user-1").Return(9, nil)

	_, err := f.svc.Commit(ctx, "user-1", "dom-1")

	var admission *domain.AdmissionError
	require.ErrorAs(t, err, &admission)
	assert.Equal(t, domain.QuotaFiles, admission.Resource)
	f.fileRepo.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "DeleteStagingEntries", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommit_RefreshesActiveWorkingSet(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{stagedEntry("a.txt")}, nil)
	f.domainRepo.On("Get", ctx, "user-1", "dom-1").Return(testDomain("dom-1", "user-1"), nil)
	f.userRepo.On("GetTierForUpdate", ctx, "user-1").Return(domain.TierFree, nil)
	f.fileRepo.On("CountByUser", ctx, "user-1").Return(0, nil)
	f.fileRepo.On("InsertBatch", ctx, mock.Anything, mock.Anything).Return(nil)
	f.cache.On("DeleteStagingEntries", ctx, "user-1", []string{"a.txt"}).Return(nil)
	f.cache.On("SelectedDomain", ctx, "user-1").Return("dom-1", nil)
	f.fileRepo.On("ListByDomain", ctx, "user-1", "dom-1").Return([]*domain.File{{ID: "id-1", Name: "a.txt"}}, nil)
	f.fileRepo.On("GetContent", ctx, []string{"id-1"}).Return(
		[]ContentRow{{FileID: "id-1", FileName: "a.txt", Sentence: []byte("One sentence."), PageNumber: 1}},
		[][]float32{{0.3}},
		nil,
	)
	f.cache.On("Publish", ctx, "user-1", mock.MatchedBy(func(ws *domain.WorkingSet) bool {
		return ws.DomainID == "dom-1" && len(ws.Units) == 1
	})).Return(nil)

	_, err := f.svc.Commit(ctx, "user-1", "dom-1")

	require.NoError(t, err)
	f.cache.AssertExpectations(t)
}

func TestListStaged(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("ListStagingEntries", ctx, "user-1").Return([]*domain.StagingEntry{stagedEntry("a.txt")}, nil)

	staged, err := f.svc.ListStaged(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "a.txt", staged[0].FileName)
	assert.Equal(t, 1, staged[0].SentenceCount)
}

func TestDiscardStaged(t *testing.T) {
	f := newUploadFixture(0)
	ctx := context.Background()

	f.cache.On("DeleteStagingEntries", ctx, "user-1", []string{"a.txt"}).Return(nil)

	assert.NoError(t, f.svc.DiscardStaged(ctx, "user-1", []string{"a.txt"}))
}
