// Package cache holds the ephemeral per-user state: the active
// domain's working set and the staging area for uncommitted uploads.
// Everything here is a disposable projection of the relational store;
// a lost key costs a recompute, never correctness.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/doclink-ai/doclink/internal/domain"
)

const (
	// DefaultWorkingSetTTL bounds how long an idle working set stays
	// published. Activity refreshes it.
	DefaultWorkingSetTTL = 2 * time.Hour
	// DefaultStagingTTL is the lifetime of an uncommitted upload.
	DefaultStagingTTL = time.Hour
)

// WorkingSetCache stores the selected domain, its published working
// set, and staged uploads in Redis under per-user keys.
type WorkingSetCache struct {
	client        *redisv9.Client
	workingSetTTL time.Duration
	stagingTTL    time.Duration
}

func NewWorkingSetCache(client *redisv9.Client, workingSetTTL, stagingTTL time.Duration) *WorkingSetCache {
	if workingSetTTL <= 0 {
		workingSetTTL = DefaultWorkingSetTTL
	}
	if stagingTTL <= 0 {
		stagingTTL = DefaultStagingTTL
	}
	return &WorkingSetCache{
		client:        client,
		workingSetTTL: workingSetTTL,
		stagingTTL:    stagingTTL,
	}
}

// SelectedDomain returns the user's selected domain ID, or "" when
// none is selected.
func (c *WorkingSetCache) SelectedDomain(ctx context.Context, userID string) (string, error) {
	domainID, err := c.client.Get(ctx, selectedDomainKey(userID)).Result()
	if err == redisv9.Nil {
		return "", nil
	}
	if err != nil {
		return "", unavailable("redis get selected domain failed", err)
	}
	return domainID, nil
}

func (c *WorkingSetCache) ClearSelectedDomain(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, selectedDomainKey(userID)).Err(); err != nil {
		return unavailable("redis clear selected domain failed", err)
	}
	return nil
}

// workingSetContent is the stored form of the content key. The domain
// ID travels with the units so a read always knows which domain the
// payload was computed for, independent of the selection pointer.
type workingSetContent struct {
	DomainID string                  `json:"domain_id"`
	Units    []domain.WorkingSetUnit `json:"units"`
}

// Publish makes ws's domain the user's selection and replaces the
// working set, all in one MULTI/EXEC block. A concurrent reader sees
// either the previous selection with its set or the new one with its
// set, never a pointer from one and content from the other.
func (c *WorkingSetCache) Publish(ctx context.Context, userID string, ws *domain.WorkingSet) error {
	content, err := json.Marshal(workingSetContent{DomainID: ws.DomainID, Units: ws.Units})
	if err != nil {
		return fmt.Errorf("marshal working set content failed: %w", err)
	}
	embeddings, err := json.Marshal(ws.Embeddings)
	if err != nil {
		return fmt.Errorf("marshal working set embeddings failed: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, selectedDomainKey(userID), ws.DomainID, c.workingSetTTL)
	pipe.Set(ctx, contentKey(userID), content, c.workingSetTTL)
	pipe.Set(ctx, embeddingsKey(userID), embeddings, c.workingSetTTL)
	pipe.Del(ctx, derivedKeys(userID)...)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("redis publish working set failed", err)
	}
	return nil
}

// Get returns the user's published working set, labeled with the
// domain it was published for, or found=false on a miss. A
// half-present set (content without embeddings or vice versa) is
// reported as a miss.
func (c *WorkingSetCache) Get(ctx context.Context, userID string) (*domain.WorkingSet, bool, error) {
	rawContent, err := c.client.Get(ctx, contentKey(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("redis get working set content failed", err)
	}

	rawEmbeddings, err := c.client.Get(ctx, embeddingsKey(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("redis get working set embeddings failed", err)
	}

	var content workingSetContent
	if err := json.Unmarshal([]byte(rawContent), &content); err != nil {
		return nil, false, fmt.Errorf("unmarshal working set content failed: %w", err)
	}
	ws := &domain.WorkingSet{DomainID: content.DomainID, Units: content.Units}
	if err := json.Unmarshal([]byte(rawEmbeddings), &ws.Embeddings); err != nil {
		return nil, false, fmt.Errorf("unmarshal working set embeddings failed: %w", err)
	}
	return ws, true, nil
}

// Invalidate drops the published working set and every artifact
// derived from it.
func (c *WorkingSetCache) Invalidate(ctx context.Context, userID string) error {
	keys := append([]string{contentKey(userID), embeddingsKey(userID)}, derivedKeys(userID)...)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("redis invalidate working set failed", err)
	}
	return nil
}

// RefreshTTL extends the working-set lifetime on user activity.
func (c *WorkingSetCache) RefreshTTL(ctx context.Context, userID string) error {
	pipe := c.client.Pipeline()
	pipe.Expire(ctx, selectedDomainKey(userID), c.workingSetTTL)
	pipe.Expire(ctx, contentKey(userID), c.workingSetTTL)
	pipe.Expire(ctx, embeddingsKey(userID), c.workingSetTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("redis refresh ttl failed", err)
	}
	return nil
}

// PutStagingEntry stores one extracted upload under a short TTL. An
// entry that is never committed expires silently.
func (c *WorkingSetCache) PutStagingEntry(ctx context.Context, userID string, entry *domain.StagingEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal staging entry failed: %w", err)
	}
	if err := c.client.Set(ctx, stagingKey(userID, entry.FileName), payload, c.stagingTTL).Err(); err != nil {
		return unavailable("redis put staging entry failed", err)
	}
	return nil
}

// ListStagingEntries returns all of the user's uncommitted uploads.
func (c *WorkingSetCache) ListStagingEntries(ctx context.Context, userID string) ([]*domain.StagingEntry, error) {
	var entries []*domain.StagingEntry

	iter := c.client.Scan(ctx, 0, stagingKey(userID, "*"), 0).Iterator()
	for iter.Next(ctx) {
		raw, err := c.client.Get(ctx, iter.Val()).Result()
		if err == redisv9.Nil {
			// expired between scan and get
			continue
		}
		if err != nil {
			return nil, unavailable("redis get staging entry failed", err)
		}

		var entry domain.StagingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal staging entry failed: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("redis scan staging entries failed", err)
	}

	return entries, nil
}

// DeleteStagingEntries removes the named staged uploads.
func (c *WorkingSetCache) DeleteStagingEntries(ctx context.Context, userID string, fileNames []string) error {
	if len(fileNames) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fileNames))
	for _, name := range fileNames {
		keys = append(keys, stagingKey(userID, name))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("redis delete staging entries failed", err)
	}
	return nil
}

func selectedDomainKey(userID string) string {
	return fmt.Sprintf("user:%s:selected_domain", userID)
}

func contentKey(userID string) string {
	return fmt.Sprintf("user:%s:domain_content", userID)
}

func embeddingsKey(userID string) string {
	return fmt.Sprintf("user:%s:domain_embeddings", userID)
}

func stagingKey(userID, fileName string) string {
	return fmt.Sprintf("user:%s:upload:%s", userID, fileName)
}

// derivedKeys are search artifacts computed from the working set; they
// go away whenever the working set changes.
func derivedKeys(userID string) []string {
	return []string{
		fmt.Sprintf("user:%s:index", userID),
		fmt.Sprintf("user:%s:index_header", userID),
		fmt.Sprintf("user:%s:boost_info", userID),
	}
}

func unavailable(msg string, err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, msg, err)
}
