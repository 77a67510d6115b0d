package upsell

import (
	"time"

	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/pkg/db/models"
)

// GroupInput is the write payload for creating or updating a group.
type GroupInput struct {
	Title      string   `json:"title" validate:"required,max=255"`
	ProductIDs []string `json:"productIds" validate:"required,max=100,dive,required"`
}

// GroupDTO is the stored group with its identifier list decoded.
type GroupDTO struct {
	ID         uint      `json:"id"`
	Shop       string    `json:"shop"`
	Title      string    `json:"title"`
	ProductIDs []string  `json:"productIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EnrichedGroupDTO carries the group plus the catalog products that still
// resolve. Products is empty, never null, when enrichment degrades.
type EnrichedGroupDTO struct {
	GroupDTO
	Products []catalog.Product `json:"products"`
}

func groupToDTO(group *models.UpsellGroup) GroupDTO {
	ids, err := group.DecodeProductIDs()
	if err != nil || ids == nil {
		ids = []string{}
	}
	return GroupDTO{
		ID:         group.ID,
		Shop:       group.Shop,
		Title:      group.Title,
		ProductIDs: ids,
		CreatedAt:  group.CreatedAt,
	}
}
