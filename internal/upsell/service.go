package upsell

import (
	"context"
	"errors"
	"strings"

	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/db/models"
	apperrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
	"github.com/upsellkit/upsellkit-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 255
	maxGroupProducts = 100
	defaultFanOut    = 4
)

type repository interface {
	Create(ctx context.Context, group *models.UpsellGroup) error
	FindByID(ctx context.Context, shop string, id uint) (*models.UpsellGroup, error)
	ListByShop(ctx context.Context, shop string) ([]models.UpsellGroup, error)
	LatestByShop(ctx context.Context, shop string) (*models.UpsellGroup, error)
	Update(ctx context.Context, group *models.UpsellGroup) error
	Delete(ctx context.Context, shop string, id uint) error
}

type productResolver interface {
	Resolve(ctx context.Context, shop string, ids []string) ([]catalog.Product, error)
}

type productSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}

// Service owns the upsell group lifecycle: validation, persistence, and
// catalog enrichment. Enrichment degrades to an empty product list rather
// than failing the read.
type Service struct {
	repo     repository
	resolver productResolver
	searcher productSearcher
	fanOut   int
	met      *metrics.EnrichmentMetrics
	logg     *logger.Logger
}

// NewService wires the service. met and logg may be nil in tests.
func NewService(repo repository, resolver productResolver, searcher productSearcher, cfg config.EnrichmentConfig, met *metrics.EnrichmentMetrics, logg *logger.Logger) *Service {
	fanOut := cfg.FanOutLimit
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		searcher: searcher,
		fanOut:   fanOut,
		met:      met,
		logg:     logg,
	}
}

// ValidateGroupInput normalizes the payload and reports every violation at
// once. The same rules apply to create and update.
func ValidateGroupInput(input *GroupInput) *apperrors.Error {
	if input == nil {
		return apperrors.New(apperrors.CodeValidation, "request body is required")
	}

	violations := map[string]string{}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		violations["title"] = "title is required"
	} else if len(input.Title) > maxTitleLength {
		violations["title"] = "title must be 255 characters or fewer"
	}

	if len(input.ProductIDs) == 0 {
		violations["products"] = "at least one product is required"
	}
	if len(input.ProductIDs) > maxGroupProducts {
		violations["products"] = "at most 100 products per group"
	}
	for i, id := range input.ProductIDs {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			violations["products"] = "product ids must be non-empty strings"
			break
		}
		input.ProductIDs[i] = trimmed
	}

	if len(violations) > 0 {
		return apperrors.New(apperrors.CodeValidation, "invalid upsell group payload").WithDetails(violations)
	}
	return nil
}

// CreateGroup stores a new group for the shop.
func (s *Service) CreateGroup(ctx context.Context, shop string, input *GroupInput) (*GroupDTO, error) {
	if err := ValidateGroupInput(input); err != nil {
		return nil, err
	}

	encoded, err := models.EncodeProductIDs(input.ProductIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding product ids")
	}

	group := &models.UpsellGroup{
		Shop:       shop,
		Title:      input.Title,
		ProductIDs: encoded,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating upsell group")
	}

	dto := groupToDTO(group)
	return &dto, nil
}

// GetGroup returns one group with its products resolved.
func (s *Service) GetGroup(ctx context.Context, shop string, id uint) (*EnrichedGroupDTO, error) {
	group, err := s.repo.FindByID(ctx, shop, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading upsell group")
	}
	if group == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "upsell group not found")
	}

	enriched := s.enrichOne(ctx, group)
	return &enriched, nil
}

// ListGroups returns all of the shop's groups, newest first, each with its
// products resolved. Resolution runs concurrently with a bounded fan-out.
func (s *Service) ListGroups(ctx context.Context, shop string) ([]EnrichedGroupDTO, error) {
	groups, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing upsell groups")
	}

	enriched := make([]EnrichedGroupDTO, len(groups))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(s.fanOut)
	for i := range groups {
		i := i
		grp.Go(func() error {
			enriched[i] = s.enrichOne(gctx, &groups[i])
			return nil
		})
	}
	grp.Wait()

	return enriched, nil
}

// UpdateGroup overwrites title and product ids for an existing group.
func (s *Service) UpdateGroup(ctx context.Context, shop string, id uint, input *GroupInput) (*GroupDTO, error) {
	if err := ValidateGroupInput(input); err != nil {
		return nil, err
	}

	encoded, err := models.EncodeProductIDs(input.ProductIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding product ids")
	}

	update := &models.UpsellGroup{
		ID:         id,
		Shop:       shop,
		Title:      input.Title,
		ProductIDs: encoded,
	}
	if err := s.repo.Update(ctx, update); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "upsell group not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating upsell group")
	}

	group, err := s.repo.FindByID(ctx, shop, id)
	if err != nil || group == nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reloading upsell group")
	}

	dto := groupToDTO(group)
	return &dto, nil
}

// DeleteGroup removes the group. Deleting an id that no longer exists
// succeeds so retries stay safe.
func (s *Service) DeleteGroup(ctx context.Context, shop string, id uint) error {
	if err := s.repo.Delete(ctx, shop, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting upsell group")
	}
	return nil
}

// LatestGroup returns the shop's most recently created group, enriched.
// Used by the storefront endpoint.
func (s *Service) LatestGroup(ctx context.Context, shop string) (*EnrichedGroupDTO, error) {
	group, err := s.repo.LatestByShop(ctx, shop)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading latest upsell group")
	}
	if group == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "no upsell group configured")
	}

	enriched := s.enrichOne(ctx, group)
	return &enriched, nil
}

// SearchProducts runs a title search against the shop's catalog. Unlike
// enrichment, catalog failures here surface to the caller.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "search query is required")
	}

	products, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "catalog search failed")
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// enrichOne resolves a group's products. Groups with no product ids skip
// the catalog entirely; any resolution failure degrades to an empty list.
func (s *Service) enrichOne(ctx context.Context, group *models.UpsellGroup) EnrichedGroupDTO {
	dto := groupToDTO(group)
	enriched := EnrichedGroupDTO{GroupDTO: dto, Products: []catalog.Product{}}
	if len(dto.ProductIDs) == 0 {
		return enriched
	}

	products, err := s.resolver.Resolve(ctx, group.Shop, dto.ProductIDs)
	if err != nil {
		s.met.IncDegraded()
		if s.logg != nil {
			gctx := s.logg.WithGroupID(ctx, group.ID)
			s.logg.Error(gctx, "catalog enrichment degraded", err)
		}
		return enriched
	}

	s.met.IncOK()
	if products != nil {
		enriched.Products = products
	}
	return enriched
}
