package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	pkgdb "github.com/saiembroidery/storefront-backend/pkg/db"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// Repository is the persistence surface the store needs.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]LineRow, error)
	FindByUserAndDesign(ctx context.Context, userID uuid.UUID, designID int64) (*models.CartLine, error)
	Insert(ctx context.Context, line *models.CartLine) error
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, lineID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type designLoader interface {
	GetDesign(ctx context.Context, id int64) (*models.Design, error)
}

// Line is one entry in the cart snapshot.
type Line struct {
	ID           uuid.UUID            `json:"id"`
	DesignID     int64                `json:"design_id"`
	DesignNo     string               `json:"design_no"`
	MainImageURL *string              `json:"main_image_url,omitempty"`
	PricePaise   int64                `json:"price_paise"`
	Category     enums.DesignCategory `json:"category"`
	InStock      bool                 `json:"in_stock"`
	Quantity     int                  `json:"quantity"`
}

// Snapshot is the cart state served to the UI. ItemCount is the number of
// distinct lines; TotalQuantity is the sum of their quantities. Both are
// maintained incrementally and only fully recomputed on refresh.
type Snapshot struct {
	Lines         []Line `json:"lines"`
	ItemCount     int    `json:"item_count"`
	TotalQuantity int    `json:"total_quantity"`
}

// Session is the per-user cart surface used by controllers and checkout.
type Session interface {
	AddToCart(ctx context.Context, designID int64, quantity int) (Snapshot, error)
	UpdateCartItem(ctx context.Context, lineID uuid.UUID, quantity int) (Snapshot, error)
	RemoveFromCart(ctx context.Context, lineID uuid.UUID) (Snapshot, error)
	ClearCart(ctx context.Context) error
	RefreshCart(ctx context.Context) (Snapshot, error)
	Snapshot() Snapshot
	LastError() error
}

// Store holds one user's cart snapshot. Writes go to the database first and
// the in-memory counters are adjusted by delta, so a failed write leaves the
// snapshot untouched.
type Store struct {
	userID  uuid.UUID
	repo    Repository
	catalog designLoader
	logg    *logger.Logger

	mu      sync.Mutex
	lines   []Line
	lastErr error
}

// NewStore builds an empty store for the user. Call RefreshCart to hydrate.
func NewStore(userID uuid.UUID, repo Repository, catalog designLoader, logg *logger.Logger) (*Store, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &Store{userID: userID, repo: repo, catalog: catalog, logg: logg}, nil
}

// AddToCart merges the design into the cart. An existing line for the same
// design has its quantity raised by the requested amount; otherwise a new
// line is appended.
func (s *Store) AddToCart(ctx context.Context, designID int64, quantity int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))
	}

	design, err := s.catalog.GetDesign(ctx, designID)
	if err != nil {
		return s.snapshotLocked(), s.fail(ctx, err)
	}
	if !design.InStock {
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.New(pkgerrors.CodeValidation, "design is out of stock"))
	}

	existing, err := s.repo.FindByUserAndDesign(ctx, s.userID, designID)
	switch {
	case err == nil:
		newQty := existing.Quantity + quantity
		if err := s.repo.UpdateQuantity(ctx, s.userID, existing.ID, newQty); err != nil {
			return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line"))
		}
		s.applyQuantityLocked(existing.ID, newQty)

	case errors.Is(err, gorm.ErrRecordNotFound):
		line := &models.CartLine{
			ID:       uuid.New(),
			UserID:   s.userID,
			DesignID: designID,
			Quantity: quantity,
		}
		if err := s.repo.Insert(ctx, line); err != nil {
			// A concurrent add for the same design can win the race on
			// the (user, design) unique index. Fold into that line.
			if pkgdb.IsUniqueViolation(err, "idx_cart_user_design") {
				return s.addMergeOnConflict(ctx, designID, quantity)
			}
			return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart line"))
		}
		s.lines = append(s.lines, Line{
			ID:           line.ID,
			DesignID:     design.ID,
			DesignNo:     design.DesignNo,
			MainImageURL: design.MainImageURL,
			PricePaise:   design.PricePaise,
			Category:     design.Category,
			InStock:      design.InStock,
			Quantity:     quantity,
		})

	default:
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line"))
	}

	s.lastErr = nil
	return s.snapshotLocked(), nil
}

func (s *Store) addMergeOnConflict(ctx context.Context, designID int64, quantity int) (Snapshot, error) {
	existing, err := s.repo.FindByUserAndDesign(ctx, s.userID, designID)
	if err != nil {
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line"))
	}
	newQty := existing.Quantity + quantity
	if err := s.repo.UpdateQuantity(ctx, s.userID, existing.ID, newQty); err != nil {
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line"))
	}
	if snap, err := s.refreshLocked(ctx); err != nil {
		return snap, err
	}
	s.lastErr = nil
	return s.snapshotLocked(), nil
}

// UpdateCartItem sets the line's quantity to an absolute value. A quantity
// of zero or less removes the line.
func (s *Store) UpdateCartItem(ctx context.Context, lineID uuid.UUID, quantity int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, lineID)
	}

	if err := s.repo.UpdateQuantity(ctx, s.userID, lineID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.snapshotLocked(), s.fail(ctx, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
		}
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line"))
	}

	s.applyQuantityLocked(lineID, quantity)
	s.lastErr = nil
	return s.snapshotLocked(), nil
}

// RemoveFromCart deletes the line.
func (s *Store) RemoveFromCart(ctx context.Context, lineID uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, lineID)
}

func (s *Store) removeLocked(ctx context.Context, lineID uuid.UUID) (Snapshot, error) {
	if err := s.repo.Delete(ctx, s.userID, lineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.snapshotLocked(), s.fail(ctx, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
		}
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line"))
	}

	for i, line := range s.lines {
		if line.ID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	s.lastErr = nil
	return s.snapshotLocked(), nil
}

// ClearCart empties the cart in one statement.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteByUser(ctx, s.userID); err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart"))
	}
	s.lines = nil
	s.lastErr = nil
	return nil
}

// RefreshCart reloads the snapshot from the database, recomputing counters
// from scratch. Used on sign-in and whenever the UI forces a resync.
func (s *Store) RefreshCart(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Store) refreshLocked(ctx context.Context) (Snapshot, error) {
	rows, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return s.snapshotLocked(), s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, Line{
			ID:           row.ID,
			DesignID:     row.DesignID,
			DesignNo:     row.DesignNo,
			MainImageURL: row.MainImageURL,
			PricePaise:   row.PricePaise,
			Category:     row.Category,
			InStock:      row.InStock,
			Quantity:     row.Quantity,
		})
	}
	s.lines = lines
	s.lastErr = nil
	return s.snapshotLocked(), nil
}

// Snapshot returns a copy of the current cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LastError reports the most recent failed operation, cleared by the next
// successful one.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return Snapshot{
		Lines:         lines,
		ItemCount:     len(lines),
		TotalQuantity: total,
	}
}

func (s *Store) applyQuantityLocked(lineID uuid.UUID, quantity int) {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].Quantity = quantity
			return
		}
	}
}

func (s *Store) fail(ctx context.Context, err error) error {
	s.lastErr = err
	if s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("cart operation failed for user %s: %v", s.userID, err))
	}
	return err
}
