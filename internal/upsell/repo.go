package upsell

import (
	"context"
	"errors"
	"fmt"

	"github.com/upsellkit/upsellkit-backend/pkg/db"
	"github.com/upsellkit/upsellkit-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repo persists upsell groups. Every query is scoped to the owning shop so
// one tenant can never read or mutate another tenant's rows.
type Repo struct {
	conn *gorm.DB
}

// NewRepo builds the repository over the shared database client.
func NewRepo(client *db.Client) *Repo {
	return &Repo{conn: client.DB()}
}

// Create inserts the group and backfills its generated id and timestamp.
func (r *Repo) Create(ctx context.Context, group *models.UpsellGroup) error {
	if err := r.conn.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("inserting upsell group: %w", err)
	}
	return nil
}

// FindByID returns the group owned by shop, or nil when no row matches.
func (r *Repo) FindByID(ctx context.Context, shop string, id uint) (*models.UpsellGroup, error) {
	var group models.UpsellGroup
	err := r.conn.WithContext(ctx).
		Where("id = ? AND shop = ?", id, shop).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding upsell group %d: %w", id, err)
	}
	return &group, nil
}

// ListByShop returns the shop's groups, newest first.
func (r *Repo) ListByShop(ctx context.Context, shop string) ([]models.UpsellGroup, error) {
	var groups []models.UpsellGroup
	err := r.conn.WithContext(ctx).
		Where("shop = ?", shop).
		Order("id DESC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("listing upsell groups: %w", err)
	}
	return groups, nil
}

// LatestByShop returns the most recently created group for the shop, or nil
// when the shop has none.
func (r *Repo) LatestByShop(ctx context.Context, shop string) (*models.UpsellGroup, error) {
	var group models.UpsellGroup
	err := r.conn.WithContext(ctx).
		Where("shop = ?", shop).
		Order("id DESC").
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest upsell group: %w", err)
	}
	return &group, nil
}

// Update rewrites title and product ids for the group owned by shop.
// Returns gorm.ErrRecordNotFound when no row matched.
func (r *Repo) Update(ctx context.Context, group *models.UpsellGroup) error {
	result := r.conn.WithContext(ctx).
		Model(&models.UpsellGroup{}).
		Where("id = ? AND shop = ?", group.ID, group.Shop).
		Updates(map[string]any{
			"title":       group.Title,
			"product_ids": group.ProductIDs,
		})
	if result.Error != nil {
		return fmt.Errorf("updating upsell group %d: %w", group.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the group owned by shop. Deleting a missing row is a no-op.
func (r *Repo) Delete(ctx context.Context, shop string, id uint) error {
	err := r.conn.WithContext(ctx).
		Where("id = ? AND shop = ?", id, shop).
		Delete(&models.UpsellGroup{}).Error
	if err != nil {
		return fmt.Errorf("deleting upsell group %d: %w", id, err)
	}
	return nil
}
