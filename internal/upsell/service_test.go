package upsell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/db/models"
	apperrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"gorm.io/gorm"
)

type memRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.UpsellGroup
	err    error
}

func (m *memRepo) Create(ctx context.Context, group *models.UpsellGroup) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	group.ID = m.nextID
	m.rows = append(m.rows, *group)
	return nil
}

func (m *memRepo) FindByID(ctx context.Context, shop string, id uint) (*models.UpsellGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].Shop == shop {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListByShop(ctx context.Context, shop string) ([]models.UpsellGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UpsellGroup
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Shop == shop {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memRepo) LatestByShop(ctx context.Context, shop string) (*models.UpsellGroup, error) {
	rows, err := m.ListByShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (m *memRepo) Update(ctx context.Context, group *models.UpsellGroup) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == group.ID && m.rows[i].Shop == group.Shop {
			m.rows[i].Title = group.Title
			m.rows[i].ProductIDs = group.ProductIDs
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memRepo) Delete(ctx context.Context, shop string, id uint) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].Shop == shop {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubResolver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, shop string, ids []string) ([]catalog.Product, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	products := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, catalog.Product{ID: id, Title: "Product " + id})
	}
	return products, nil
}

type stubSearcher struct {
	products []catalog.Product
	err      error
	gotQuery string
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	s.gotQuery = query
	return s.products, s.err
}

func newTestService(repo repository, resolver productResolver, searcher productSearcher) *Service {
	return NewService(repo, resolver, searcher, config.EnrichmentConfig{FanOutLimit: 2}, nil, nil)
}

func TestValidateGroupInput(t *testing.T) {
	cases := []struct {
		name  string
		input *GroupInput
		field string
	}{
		{"nil body", nil, ""},
		{"empty title", &GroupInput{Title: "   ", ProductIDs: []string{"gid://shopify/Product/1"}}, "title"},
		{"no products", &GroupInput{Title: "Picks"}, "products"},
		{"blank product id", &GroupInput{Title: "Picks", ProductIDs: []string{"gid://shopify/Product/1", " "}}, "products"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGroupInput(tc.input)
			require.NotNil(t, err)
			assert.Equal(t, apperrors.CodeValidation, err.Code())
			if tc.field != "" {
				details, ok := err.Details().(map[string]string)
				require.True(t, ok)
				assert.Contains(t, details, tc.field)
			}
		})
	}
}

func TestValidateGroupInputReportsAllViolations(t *testing.T) {
	err := ValidateGroupInput(&GroupInput{})
	require.NotNil(t, err)

	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "products")
}

func TestValidateGroupInputTooManyProducts(t *testing.T) {
	ids := make([]string, maxGroupProducts+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("gid://shopify/Product/%d", i)
	}

	err := ValidateGroupInput(&GroupInput{Title: "Picks", ProductIDs: ids})
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeValidation, err.Code())
}

func TestValidateGroupInputNormalizes(t *testing.T) {
	input := &GroupInput{Title: "  Picks  ", ProductIDs: []string{" gid://shopify/Product/1 "}}
	require.Nil(t, ValidateGroupInput(input))
	assert.Equal(t, "Picks", input.Title)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, input.ProductIDs)
}

func TestCreateGroup(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, &stubResolver{}, &stubSearcher{})

	dto, err := svc.CreateGroup(context.Background(), "demo.myshopify.com", &GroupInput{
		Title:      "Checkout picks",
		ProductIDs: []string{"gid://shopify/Product/1", "gid://shopify/Product/2"},
	})
	require.NoError(t, err)
	assert.NotZero(t, dto.ID)
	assert.Equal(t, "demo.myshopify.com", dto.Shop)
	assert.Equal(t, "Checkout picks", dto.Title)
	assert.Len(t, dto.ProductIDs, 2)

	stored, err := repo.FindByID(context.Background(), "demo.myshopify.com", dto.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.JSONEq(t, `["gid://shopify/Product/1","gid://shopify/Product/2"]`, stored.ProductIDs)
}

func TestCreateGroupRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{})

	_, err := svc.CreateGroup(context.Background(), "demo.myshopify.com", &GroupInput{Title: "", ProductIDs: []string{"gid://shopify/Product/1"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestGetGroupEnriches(t *testing.T) {
	repo := &memRepo{}
	resolver := &stubResolver{}
	svc := newTestService(repo, resolver, &stubSearcher{})

	created, err := svc.CreateGroup(context.Background(), "demo.myshopify.com", &GroupInput{
		Title:      "Checkout picks",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.NoError(t, err)

	enriched, err := svc.GetGroup(context.Background(), "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", enriched.Shop)
	require.Len(t, enriched.Products, 1)
	assert.Equal(t, "gid://shopify/Product/1", enriched.Products[0].ID)
	assert.Equal(t, 1, resolver.calls)
}

func TestGetGroupNotFound(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{})

	_, err := svc.GetGroup(context.Background(), "demo.myshopify.com", 42)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())
}

func TestGetGroupDegradesOnCatalogFailure(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, &stubResolver{err: errors.New("admin api down")}, &stubSearcher{})

	created, err := svc.CreateGroup(context.Background(), "demo.myshopify.com", &GroupInput{
		Title:      "Checkout picks",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.NoError(t, err)

	enriched, err := svc.GetGroup(context.Background(), "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, enriched.Title)
	assert.NotNil(t, enriched.Products)
	assert.Empty(t, enriched.Products)
}

func TestListGroupsEnrichesEach(t *testing.T) {
	repo := &memRepo{}
	resolver := &stubResolver{}
	svc := newTestService(repo, resolver, &stubSearcher{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateGroup(ctx, "demo.myshopify.com", &GroupInput{
			Title:      fmt.Sprintf("Group %d", i),
			ProductIDs: []string{fmt.Sprintf("gid://shopify/Product/%d", i)},
		})
		require.NoError(t, err)
	}

	groups, err := svc.ListGroups(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, groups, 5)
	assert.Equal(t, "Group 4", groups[0].Title)
	for _, group := range groups {
		require.Len(t, group.Products, 1)
	}
	assert.Equal(t, 5, resolver.calls)
}

func TestListGroupsSkipsCatalogForEmptyGroups(t *testing.T) {
	repo := &memRepo{}
	resolver := &stubResolver{}
	svc := newTestService(repo, resolver, &stubSearcher{})
	ctx := context.Background()

	// an empty identifier list is representable in storage even though the
	// write path rejects it
	require.NoError(t, repo.Create(ctx, &models.UpsellGroup{
		Shop:       "demo.myshopify.com",
		Title:      "Empty",
		ProductIDs: "[]",
	}))

	groups, err := svc.ListGroups(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].Products)
	assert.Zero(t, resolver.calls)
}

func TestUpdateGroup(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, &stubResolver{}, &stubSearcher{})
	ctx := context.Background()

	created, err := svc.CreateGroup(ctx, "demo.myshopify.com", &GroupInput{
		Title:      "Before",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateGroup(ctx, "demo.myshopify.com", created.ID, &GroupInput{
		Title:      "After",
		ProductIDs: []string{"gid://shopify/Product/9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, []string{"gid://shopify/Product/9"}, updated.ProductIDs)
}

func TestUpdateGroupNotFound(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{})

	_, err := svc.UpdateGroup(context.Background(), "demo.myshopify.com", 42, &GroupInput{
		Title:      "Ghost",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())
}

func TestDeleteGroupIdempotent(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, &stubResolver{}, &stubSearcher{})
	ctx := context.Background()

	created, err := svc.CreateGroup(ctx, "demo.myshopify.com", &GroupInput{
		Title:      "Doomed",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGroup(ctx, "demo.myshopify.com", created.ID))
	require.NoError(t, svc.DeleteGroup(ctx, "demo.myshopify.com", created.ID))
}

func TestLatestGroup(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, &stubResolver{}, &stubSearcher{})
	ctx := context.Background()

	_, err := svc.LatestGroup(ctx, "demo.myshopify.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())

	_, err = svc.CreateGroup(ctx, "demo.myshopify.com", &GroupInput{
		Title:      "First",
		ProductIDs: []string{"gid://shopify/Product/7"},
	})
	require.NoError(t, err)
	_, err = svc.CreateGroup(ctx, "demo.myshopify.com", &GroupInput{
		Title:      "Second",
		ProductIDs: []string{"gid://shopify/Product/1"},
	})
	require.NoError(t, err)

	latest, err := svc.LatestGroup(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "Second", latest.Title)
	require.Len(t, latest.Products, 1)
}

func TestSearchProducts(t *testing.T) {
	searcher := &stubSearcher{products: []catalog.Product{{ID: "gid://shopify/Product/1", Title: "Socks"}}}
	svc := newTestService(&memRepo{}, &stubResolver{}, searcher)

	products, err := svc.SearchProducts(context.Background(), "  socks ")
	require.NoError(t, err)
	assert.Equal(t, "socks", searcher.gotQuery)
	require.Len(t, products, 1)
}

func TestSearchProductsEmptyQuery(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{})

	_, err := svc.SearchProducts(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestSearchProductsPropagatesCatalogError(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{err: errors.New("throttled")})

	_, err := svc.SearchProducts(context.Background(), "socks")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDependency, apperrors.As(err).Code())
}

func TestSearchProductsNilResult(t *testing.T) {
	svc := newTestService(&memRepo{}, &stubResolver{}, &stubSearcher{})

	products, err := svc.SearchProducts(context.Background(), "socks")
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}
