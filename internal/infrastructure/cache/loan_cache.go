package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"library-loan/internal/domain/loan"
	"library-loan/internal/infrastructure/monitoring"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

// RedisClient is the subset of redis.Cmdable the loan cache relies on.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisClient = (*redis.Client)(nil)

// CachedLoanRepository keeps single loans in Redis in front of another repository.
// Redis failures never fail a call: the underlying repository is used instead.
//
// Every Save bumps a per-loan generation. A read that misses only writes its
// row back when no Save happened while it was reading, so a row read before a
// write is never cached after it.
type CachedLoanRepository struct {
	next        loan.Repository
	client      RedisClient
	ttl         time.Duration
	generations sync.Map
	logger      *slog.Logger
}

var _ loan.Repository = (*CachedLoanRepository)(nil)

func NewCachedLoanRepository(next loan.Repository, client RedisClient, ttl time.Duration, logger *slog.Logger) *CachedLoanRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedLoanRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "CachedLoanRepository"),
	}
}

func (c *CachedLoanRepository) generation(loanID int64) *atomic.Uint64 {
	gen, _ := c.generations.LoadOrStore(loanID, new(atomic.Uint64))
	return gen.(*atomic.Uint64)
}

func loanKey(loanID int64) string {
	return fmt.Sprintf("loan:%d", loanID)
}

func (c *CachedLoanRepository) FindAll(ctx context.Context) ([]loan.Loan, error) {
	return c.next.FindAll(ctx)
}

func (c *CachedLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	key := loanKey(loanID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached loan.Loan
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr != nil {
			c.logger.WarnContext(ctx, "Discarding unreadable cached loan", "key", key, "error", jsonErr)
			monitoring.RecordCacheLookup("miss")
			break
		}
		monitoring.RecordCacheLookup("hit")
		return &cached, nil
	case errors.Is(err, redis.Nil):
		monitoring.RecordCacheLookup("miss")
	default:
		c.logger.WarnContext(ctx, "Redis lookup failed, falling back to repository", "key", key, "error", err)
		monitoring.RecordCacheLookup("error")
	}

	gen := c.generation(loanID)
	readAt := gen.Load()

	l, err := c.next.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l != nil {
		c.storeIfCurrent(ctx, l, gen, readAt)
	}
	return l, nil
}

func (c *CachedLoanRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	return c.next.FindAllByCustomerID(ctx, customerID)
}

func (c *CachedLoanRepository) FindAllByStatus(ctx context.Context, status loan.LoanStatus) ([]loan.Loan, error) {
	return c.next.FindAllByStatus(ctx, status)
}

func (c *CachedLoanRepository) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (int, error) {
	return c.next.CheckIfLoanExistForCustomerIDAndBookID(ctx, customerID, bookID)
}

// Save writes through and evicts the cached copy, whatever the outcome of the write.
func (c *CachedLoanRepository) Save(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	saved, err := c.next.Save(ctx, l)
	if l != nil {
		c.generation(l.ID).Add(1)
		c.evict(ctx, l.ID)
	}
	return saved, err
}

// storeIfCurrent caches l unless a Save ran since readAt. A Save that lands
// between the check and the write is caught by the second check.
func (c *CachedLoanRepository) storeIfCurrent(ctx context.Context, l *loan.Loan, gen *atomic.Uint64, readAt uint64) {
	if gen.Load() != readAt {
		c.logger.DebugContext(ctx, "Loan changed while reading, not caching", "loan_id", l.ID)
		return
	}
	payload, err := json.Marshal(l)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode loan for cache", "loan_id", l.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, loanKey(l.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to cache loan", "loan_id", l.ID, "error", err)
		return
	}
	if gen.Load() != readAt {
		c.evict(ctx, l.ID)
	}
}

func (c *CachedLoanRepository) evict(ctx context.Context, loanID int64) {
	if err := c.client.Del(ctx, loanKey(loanID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to evict cached loan", "loan_id", loanID, "error", err)
	}
}
