package app

import (
	"context"
	"sync"

	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/pkg/logger"
)

// OrgClient is what the org manager needs from the backend client.
type OrgClient interface {
	OrgUsage(ctx context.Context) (*model.OrgUsage, error)
	ListTokens(ctx context.Context) ([]model.APIToken, error)
	CreateToken(ctx context.Context, name string) (*model.NewToken, error)
	RevokeToken(ctx context.Context, tokenID int64) error
	DataCatalog(ctx context.Context) ([]model.CatalogItem, error)
}

// OrgView is the joint usage-and-tokens snapshot the org page renders.
type OrgView struct {
	Usage  *model.OrgUsage
	Tokens []model.APIToken
}

// OrgManager loads usage counters and API tokens and refreshes its own view
// after every token mutation.
type OrgManager struct {
	client OrgClient
	log    logger.Logger

	mu     sync.RWMutex
	latest *OrgView
}

// OrgOption applies a configuration option to the OrgManager.
type OrgOption func(*OrgManager)

// WithOrgLogger sets a custom logger for the org manager.
func WithOrgLogger(log logger.Logger) OrgOption {
	return func(m *OrgManager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewOrgManager creates an org/token manager over the given client.
func NewOrgManager(client OrgClient, opts ...OrgOption) *OrgManager {
	m := &OrgManager{
		client: client,
		log:    logger.Get().Named("org"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches usage and tokens in parallel. Both are required: failure of
// either aborts with that endpoint's error.
func (m *OrgManager) Load(ctx context.Context) (*OrgView, error) {
	var (
		wg sync.WaitGroup

		usage    *model.OrgUsage
		usageErr error

		tokens    []model.APIToken
		tokensErr error
	)

	wg.Add(2)
	go func() { defer wg.Done(); usage, usageErr = m.client.OrgUsage(ctx) }()
	go func() { defer wg.Done(); tokens, tokensErr = m.client.ListTokens(ctx) }()
	wg.Wait()

	if usageErr != nil {
		return nil, usageErr
	}
	if tokensErr != nil {
		return nil, tokensErr
	}

	view := &OrgView{Usage: usage, Tokens: tokens}
	m.mu.Lock()
	m.latest = view
	m.mu.Unlock()
	return view, nil
}

// CreateToken mints a token and reloads the view. The returned plaintext is
// the caller's only chance to display it; later listings never carry it.
func (m *OrgManager) CreateToken(ctx context.Context, name string) (string, error) {
	created, err := m.client.CreateToken(ctx, name)
	if err != nil {
		return "", err
	}
	if _, err := m.Load(ctx); err != nil {
		// The token exists; surface it even if the refresh failed.
		m.log.Warn(ctx, "token created but view refresh failed", logger.Error(err))
	}
	return created.Token, nil
}

// RevokeToken revokes a token and force-reloads the listing. The revoked
// entry stays in the listing with its revoked marker.
func (m *OrgManager) RevokeToken(ctx context.Context, tokenID int64) error {
	if err := m.client.RevokeToken(ctx, tokenID); err != nil {
		m.log.Warn(ctx, "revoke request failed", logger.Int64("token_id", tokenID), logger.Error(err))
	}
	_, err := m.Load(ctx)
	return err
}

// Catalog fetches the published data-pack entries.
func (m *OrgManager) Catalog(ctx context.Context) ([]model.CatalogItem, error) {
	return m.client.DataCatalog(ctx)
}

// Latest returns the most recently loaded org view, or nil before the
// first successful Load.
func (m *OrgManager) Latest() *OrgView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
