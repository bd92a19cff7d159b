package usecase

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/moneytransfer/internal/domain"
)

// CreditProviderConfig holds the collaborators of a CreditProviderService.
type CreditProviderConfig struct {
	Store             AccountStore
	Rand              *rand.Rand
	Cache             Cache
	CacheTTL          time.Duration
	ApprovalThreshold int
	Logger            zerolog.Logger
	Clock             func() time.Time
}

// CreditProviderService scores accounts for credit.
type CreditProviderService struct {
	store     AccountStore
	cache     Cache
	cacheTTL  time.Duration
	threshold int
	logger    zerolog.Logger
	clock     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCreditProviderService creates a new CreditProviderService.
// A nil Rand is replaced by a randomly seeded source.
func NewCreditProviderService(cfg CreditProviderConfig) *CreditProviderService {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.ApprovalThreshold <= 0 {
		cfg.ApprovalThreshold = DefaultCreditApprovalThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &CreditProviderService{
		store:     cfg.Store,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		threshold: cfg.ApprovalThreshold,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		rng:       cfg.Rand,
	}
}

// CheckCredit returns a credit assessment for an existing account.
func (s *CreditProviderService) CheckCredit(ctx context.Context, accountID string) (*domain.CreditAssessment, error) {
	account, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cached(ctx, accountID); ok {
		return cached, nil
	}

	score := s.drawScore()
	assessment := &domain.CreditAssessment{
		AccountID:  accountID,
		Score:      score,
		Approved:   score >= s.threshold && account.Balance.IsPositive(),
		AssessedAt: s.clock(),
	}

	s.remember(ctx, assessment)

	return assessment, nil
}

func (s *CreditProviderService) drawScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.MinCreditScore + s.rng.IntN(domain.MaxCreditScore-domain.MinCreditScore+1)
}

func creditCacheKey(accountID string) string {
	return "credit:" + accountID
}

func (s *CreditProviderService) cached(ctx context.Context, accountID string) (*domain.CreditAssessment, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, creditCacheKey(accountID))
	if err != nil {
		return nil, false
	}

	var assessment domain.CreditAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("discarding unreadable cached credit assessment")
		return nil, false
	}

	return &assessment, true
}

func (s *CreditProviderService) remember(ctx context.Context, assessment *domain.CreditAssessment) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(assessment)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, creditCacheKey(assessment.AccountID), string(raw), s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("account_id", assessment.AccountID).Msg("failed to cache credit assessment")
	}
}
