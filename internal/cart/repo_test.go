package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	designs := `
CREATE TABLE IF NOT EXISTS designs (
  id INTEGER PRIMARY KEY,
  design_no TEXT NOT NULL UNIQUE,
  main_image_url TEXT,
  price_paise INTEGER NOT NULL,
  category TEXT NOT NULL,
  in_stock INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	cartLines := `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  design_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, design_id)
);`
	require.NoError(t, db.Exec(designs).Error)
	require.NoError(t, db.Exec(cartLines).Error)
	return db
}

func seedDesign(t *testing.T, db *gorm.DB, id int64, designNo string, pricePaise int64) {
	t.Helper()
	design := &models.Design{
		ID:         id,
		DesignNo:   designNo,
		PricePaise: pricePaise,
		Category:   enums.CategoryBridal,
		InStock:    true,
	}
	require.NoError(t, db.Create(design).Error)
}

func seedLine(t *testing.T, repo *LineRepository, userID uuid.UUID, designID int64, qty int, created time.Time) *models.CartLine {
	t.Helper()
	line := &models.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		DesignID:  designID,
		Quantity:  qty,
		CreatedAt: created,
	}
	require.NoError(t, repo.Insert(context.Background(), line))
	return line
}

func TestListByUserJoinsDesignColumns(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewLineRepository(db)
	userID := uuid.New()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	seedDesign(t, db, 1, "D-101", 149900)
	seedDesign(t, db, 2, "D-102", 59900)
	seedLine(t, repo, userID, 2, 2, base.Add(time.Hour))
	seedLine(t, repo, userID, 1, 1, base)
	seedLine(t, repo, uuid.New(), 1, 5, base)

	rows, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// oldest line first
	assert.Equal(t, "D-101", rows[0].DesignNo)
	assert.Equal(t, int64(149900), rows[0].PricePaise)
	assert.Equal(t, "D-102", rows[1].DesignNo)
	assert.Equal(t, 2, rows[1].Quantity)
	assert.True(t, rows[0].InStock)
}

func TestCountByUser(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewLineRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	seedDesign(t, db, 1, "D-101", 149900)
	seedDesign(t, db, 2, "D-102", 59900)
	seedLine(t, repo, userID, 1, 1, now)
	seedLine(t, repo, userID, 2, 3, now)
	seedLine(t, repo, uuid.New(), 1, 1, now)

	count, err := repo.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUpdateQuantityIsUserScoped(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewLineRepository(db)
	userID := uuid.New()

	seedDesign(t, db, 1, "D-101", 149900)
	line := seedLine(t, repo, userID, 1, 1, time.Now().UTC())

	err := repo.UpdateQuantity(context.Background(), uuid.New(), line.ID, 9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateQuantity(context.Background(), userID, line.ID, 9))
	rows, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].Quantity)
}

func TestDeleteByUserEmptiesOnlyThatCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewLineRepository(db)
	userID := uuid.New()
	otherID := uuid.New()
	now := time.Now().UTC()

	seedDesign(t, db, 1, "D-101", 149900)
	seedDesign(t, db, 2, "D-102", 59900)
	seedLine(t, repo, userID, 1, 1, now)
	seedLine(t, repo, userID, 2, 2, now)
	seedLine(t, repo, otherID, 1, 4, now)

	require.NoError(t, repo.DeleteByUser(context.Background(), userID))

	mine, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.ListByUser(context.Background(), otherID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
