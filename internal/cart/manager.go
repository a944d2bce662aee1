package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// Manager hands out one Store per signed-in user and hydrates it from the
// database the first time the user's session touches the cart.
type Manager struct {
	repo    Repository
	catalog designLoader
	logg    *logger.Logger

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

// NewManager builds the session manager.
func NewManager(repo Repository, catalog designLoader, logg *logger.Logger) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &Manager{
		repo:    repo,
		catalog: catalog,
		logg:    logg,
		stores:  make(map[uuid.UUID]*Store),
	}, nil
}

// SessionFor returns the user's cart store, creating and hydrating it on
// first use. Hydration failures are returned so the caller can surface them;
// the store itself is still usable and will retry on the next refresh.
func (m *Manager) SessionFor(ctx context.Context, userID uuid.UUID) (Session, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}

	m.mu.Lock()
	store, ok := m.stores[userID]
	if !ok {
		var err error
		store, err = NewStore(userID, m.repo, m.catalog, m.logg)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.stores[userID] = store
	}
	m.mu.Unlock()

	if !ok {
		if _, err := store.RefreshCart(ctx); err != nil {
			return store, err
		}
	}
	return store, nil
}

// SignedOut drops the user's in-memory store. Persistent cart lines are kept
// so the cart survives across sessions.
func (m *Manager) SignedOut(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, userID)
}
