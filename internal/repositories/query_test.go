package repositories

import (
	"testing"
	"time"

	"haventory/internal/models"
	"haventory/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type QueryTestSuite struct {
	suite.Suite
	clock *testhelpers.Clock
	repo  *inventoryRepo
	tree  testhelpers.LocationTree
}

func (suite *QueryTestSuite) SetupTest() {
	suite.clock = testhelpers.NewClock(time.Time{})
	suite.repo = newInventoryRepo(WithClock(suite.clock.Now))
	suite.tree = testhelpers.SeedLocations(suite.T(), suite.repo)
}

func (suite *QueryTestSuite) seed(payloads ...models.ItemCreate) []*models.Item {
	out := make([]*models.Item, 0, len(payloads))
	for _, p := range payloads {
		it, err := suite.repo.CreateItem(p)
		require.NoError(suite.T(), err)
		out = append(out, it)
		suite.clock.Advance(time.Minute)
	}
	return out
}

func ids(items []*models.Item) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func (suite *QueryTestSuite) TestDefaultSortIsNewestFirst() {
	items := suite.seed(
		models.ItemCreate{Name: "first"},
		models.ItemCreate{Name: "second"},
		models.ItemCreate{Name: "third"},
	)

	res, err := suite.repo.ListItems(models.ListOptions{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{items[2].ID, items[1].ID, items[0].ID}, ids(res.Items))
	assert.Nil(suite.T(), res.NextCursor)
}

func (suite *QueryTestSuite) TestPaginationVisitsEveryItemOnce() {
	quantities := []int{5, 1, 3, 3, 0, 3, 9}
	for _, q := range quantities {
		suite.seed(models.ItemCreate{Name: "item", Quantity: testhelpers.IntPtr(q)})
	}
	sort := &models.Sort{Field: models.SortByQuantity, Order: models.SortAsc}

	full, err := suite.repo.ListItems(models.ListOptions{Sort: sort})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), full.Items, len(quantities))

	var paged []*models.Item
	var cursor *string
	limit := 3
	for pages := 0; pages < 10; pages++ {
		res, err := suite.repo.ListItems(models.ListOptions{Sort: sort, Limit: &limit, Cursor: cursor})
		require.NoError(suite.T(), err)
		assert.LessOrEqual(suite.T(), len(res.Items), limit)
		paged = append(paged, res.Items...)
		if res.NextCursor == nil {
			break
		}
		cursor = res.NextCursor
	}

	assert.Equal(suite.T(), ids(full.Items), ids(paged))
	for i := 1; i < len(paged); i++ {
		assert.LessOrEqual(suite.T(), paged[i-1].Quantity, paged[i].Quantity)
	}
}

func (suite *QueryTestSuite) TestCursorFromAnotherSortIsIgnored() {
	suite.seed(models.ItemCreate{Name: "b"}, models.ItemCreate{Name: "a"}, models.ItemCreate{Name: "c"})
	limit := 1
	byName := &models.Sort{Field: models.SortByName, Order: models.SortAsc}

	first, err := suite.repo.ListItems(models.ListOptions{Sort: byName, Limit: &limit})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), first.NextCursor)
	assert.Equal(suite.T(), "a", first.Items[0].Name)

	res, err := suite.repo.ListItems(models.ListOptions{Limit: &limit, Cursor: first.NextCursor})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "c", res.Items[0].Name)

	garbage := "not-a-cursor"
	res, err = suite.repo.ListItems(models.ListOptions{Sort: byName, Limit: &limit, Cursor: &garbage})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "a", res.Items[0].Name)
}

func (suite *QueryTestSuite) TestCursorPastTheEndYieldsEmptyPage() {
	items := suite.seed(models.ItemCreate{Name: "a"}, models.ItemCreate{Name: "b"})
	limit := 1
	byName := &models.Sort{Field: models.SortByName, Order: models.SortAsc}

	first, err := suite.repo.ListItems(models.ListOptions{Sort: byName, Limit: &limit})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), first.NextCursor)

	require.NoError(suite.T(), suite.repo.DeleteItem(items[1].ID, nil))
	res, err := suite.repo.ListItems(models.ListOptions{Sort: byName, Limit: &limit, Cursor: first.NextCursor})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), res.Items)
	assert.Nil(suite.T(), res.NextCursor)
}

func (suite *QueryTestSuite) TestInvalidSortRejected() {
	_, err := suite.repo.ListItems(models.ListOptions{Sort: &models.Sort{Field: "color", Order: models.SortAsc}})
	assert.ErrorIs(suite.T(), err, models.ErrValidation)

	_, err = suite.repo.ListItems(models.ListOptions{Sort: &models.Sort{Field: models.SortByName, Order: "up"}})
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}

func (suite *QueryTestSuite) TestFilters() {
	items := suite.seed(
		models.ItemCreate{Name: "Hammer", Tags: []string{"tools", "metal"}, Category: testhelpers.StrPtr("Tools"), LocationID: &suite.tree.C},
		models.ItemCreate{Name: "Nails", Tags: []string{"metal"}, Quantity: testhelpers.IntPtr(2), LowStockThreshold: testhelpers.IntPtr(5), LocationID: &suite.tree.B},
		models.ItemCreate{Name: "Book", Description: testhelpers.StrPtr("A novel about hammers"), CheckedOut: true, LocationID: &suite.tree.D},
	)
	hammer, nails, book := items[0].ID, items[1].ID, items[2].ID

	cases := []struct {
		name   string
		filter models.ItemFilter
		want   []uuid.UUID
	}{
		{"query matches name and description", models.ItemFilter{Q: "HAMMER"}, []uuid.UUID{hammer, book}},
		{"query matches display path", models.ItemFilter{Q: "a / b"}, []uuid.UUID{hammer, nails}},
		{"tags any", models.ItemFilter{TagsAny: []string{"tools", "paper"}}, []uuid.UUID{hammer}},
		{"tags all", models.ItemFilter{TagsAll: []string{"metal", "TOOLS"}}, []uuid.UUID{hammer}},
		{"category", models.ItemFilter{Category: " tools "}, []uuid.UUID{hammer}},
		{"checked out", models.ItemFilter{CheckedOut: testhelpers.BoolPtr(true)}, []uuid.UUID{book}},
		{"not checked out", models.ItemFilter{CheckedOut: testhelpers.BoolPtr(false)}, []uuid.UUID{hammer, nails}},
		{"low stock", models.ItemFilter{LowStockOnly: true}, []uuid.UUID{nails}},
		{"direct location", models.ItemFilter{LocationID: &suite.tree.B}, []uuid.UUID{nails}},
		{"subtree", models.ItemFilter{LocationID: &suite.tree.A, IncludeSubtree: true}, []uuid.UUID{hammer, nails}},
		{"created after", models.ItemFilter{CreatedAfter: "2024-01-01T12:00:30Z"}, []uuid.UUID{nails, book}},
	}
	byCreated := &models.Sort{Field: models.SortByCreatedAt, Order: models.SortAsc}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			f := tc.filter
			res, err := suite.repo.ListItems(models.ListOptions{Filter: &f, Sort: byCreated})
			require.NoError(suite.T(), err)
			assert.Equal(suite.T(), tc.want, ids(res.Items))
		})
	}

	_, err := suite.repo.ListItems(models.ListOptions{Filter: &models.ItemFilter{UpdatedAfter: "2024-01-01"}})
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}

func (suite *QueryTestSuite) TestNameSortFoldsAccents() {
	suite.seed(models.ItemCreate{Name: "zebra"}, models.ItemCreate{Name: "Éclair"}, models.ItemCreate{Name: "apple"})

	res, err := suite.repo.ListItems(models.ListOptions{Sort: &models.Sort{Field: models.SortByName, Order: models.SortAsc}})
	require.NoError(suite.T(), err)
	var names []string
	for _, it := range res.Items {
		names = append(names, it.Name)
	}
	assert.Equal(suite.T(), []string{"apple", "Éclair", "zebra"}, names)
}

func TestQueryTestSuite(t *testing.T) {
	suite.Run(t, new(QueryTestSuite))
}
