package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

type mockRepository struct {
	categories map[int64]Category
	attributes map[int64]AttributeDefinition
	adCounts   map[int64]int64
	nextID     int64
	nextAttrID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		categories: make(map[int64]Category),
		attributes: make(map[int64]AttributeDefinition),
		adCounts:   make(map[int64]int64),
		nextID:     1,
		nextAttrID: 1,
	}
}

func (m *mockRepository) Create(ctx context.Context, draft Draft, slug string) (Category, error) {
	for _, cat := range m.categories {
		if cat.Slug == slug {
			return Category{}, shared.ErrDuplicate
		}
	}
	cat := Category{ID: m.nextID, ParentID: draft.ParentID, Name: draft.Name, Slug: slug, SortOrder: draft.SortOrder}
	m.categories[cat.ID] = cat
	m.nextID++
	return cat, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Category, error) {
	cat, ok := m.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return cat, nil
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	for _, cat := range m.categories {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return Category{}, shared.ErrNotFound
}

func (m *mockRepository) Update(ctx context.Context, id int64, draft Draft, slug string) (Category, error) {
	cat, ok := m.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	cat.ParentID = draft.ParentID
	cat.Name = draft.Name
	cat.Slug = slug
	cat.SortOrder = draft.SortOrder
	m.categories[id] = cat
	return cat, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockRepository) ListAll(ctx context.Context) ([]Category, error) {
	var out []Category
	for id := int64(1); id < m.nextID; id++ {
		if cat, ok := m.categories[id]; ok {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (m *mockRepository) ListChildren(ctx context.Context, parentID int64) ([]Category, error) {
	var out []Category
	for _, cat := range m.categories {
		if cat.ParentID != nil && *cat.ParentID == parentID {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (m *mockRepository) CountAds(ctx context.Context, id int64) (int64, error) {
	return m.adCounts[id], nil
}

func (m *mockRepository) ListAttributes(ctx context.Context, categoryID int64) ([]AttributeDefinition, error) {
	var out []AttributeDefinition
	for _, def := range m.attributes {
		if def.CategoryID == categoryID {
			out = append(out, def)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateAttribute(ctx context.Context, def AttributeDefinition) (AttributeDefinition, error) {
	def.ID = m.nextAttrID
	m.attributes[def.ID] = def
	m.nextAttrID++
	return def, nil
}

func (m *mockRepository) DeleteAttribute(ctx context.Context, id int64) error {
	if _, ok := m.attributes[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.attributes, id)
	return nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func TestCreateNormalisesNameAndSlug(t *testing.T) {
	svc := NewService(newMockRepository())

	cat, err := svc.Create(context.Background(), Draft{Name: "  home & garden "})
	require.NoError(t, err)
	assert.Equal(t, "Home & Garden", cat.Name)
	assert.Equal(t, "home-garden", cat.Slug)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), Draft{Name: "   "})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateRejectsUnknownParent(t *testing.T) {
	svc := NewService(newMockRepository())

	missing := int64(42)
	_, err := svc.Create(context.Background(), Draft{Name: "Vehicles", ParentID: &missing})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), Draft{Name: "Vehicles"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Draft{Name: "vehicles"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	cat, err := svc.Create(context.Background(), Draft{Name: "Vehicles"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), cat.ID, Draft{Name: "Vehicles", ParentID: &cat.ID})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestTreeNestsChildren(t *testing.T) {
	svc := NewService(newMockRepository())
	root, err := svc.Create(context.Background(), Draft{Name: "Vehicles"})
	require.NoError(t, err)
	child, err := svc.Create(context.Background(), Draft{Name: "Cars", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Draft{Name: "Motorcycles", ParentID: &root.ID})
	require.NoError(t, err)

	roots, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, child.ID, roots[0].Children[0].ID)
}

func TestDeleteRefusesNonEmpty(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	root, err := svc.Create(context.Background(), Draft{Name: "Vehicles"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Draft{Name: "Cars", ParentID: &root.ID})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), root.ID)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	leaf, err := svc.Create(context.Background(), Draft{Name: "Boats"})
	require.NoError(t, err)
	repo.adCounts[leaf.ID] = 3
	err = svc.Delete(context.Background(), leaf.ID)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	repo.adCounts[leaf.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), leaf.ID))
}

func TestAddAttributeValidatesKind(t *testing.T) {
	svc := NewService(newMockRepository())
	cat, err := svc.Create(context.Background(), Draft{Name: "Cars"})
	require.NoError(t, err)

	_, err = svc.AddAttribute(context.Background(), AttributeDefinition{CategoryID: cat.ID, Name: "Fuel", Kind: AttributeEnum})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.AddAttribute(context.Background(), AttributeDefinition{CategoryID: cat.ID, Name: "Fuel", Kind: "color"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	def, err := svc.AddAttribute(context.Background(), AttributeDefinition{
		CategoryID: cat.ID, Name: "Fuel", Kind: AttributeEnum, Options: []string{"petrol", "diesel"},
	})
	require.NoError(t, err)
	assert.NotZero(t, def.ID)

	// Non-enum kinds drop stray options.
	def, err = svc.AddAttribute(context.Background(), AttributeDefinition{
		CategoryID: cat.ID, Name: "Mileage", Kind: AttributeNumber, Options: []string{"ignored"},
	})
	require.NoError(t, err)
	assert.Nil(t, def.Options)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "home-garden", Slugify("Home & Garden"))
	assert.Equal(t, "cars", Slugify("  Cars!  "))
	assert.Equal(t, "2-wheelers", Slugify("2 Wheelers"))
	assert.Equal(t, "", Slugify("!!!"))
}
