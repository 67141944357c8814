package repositories

import (
	"context"
	"errors"
	"testing"

	"haventory/internal/models"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AreaRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    AreaRepository
	context context.Context
}

func (suite *AreaRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewAreaRepo(mock)
	suite.context = context.Background()
}

func (suite *AreaRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestAreaRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AreaRepoTestSuite))
}

func (suite *AreaRepoTestSuite) TestList() {
	suite.mock.ExpectQuery(`SELECT id, name FROM areas ORDER BY name, id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("garage", "Garage").
			AddRow("kitchen", "Kitchen"))

	areas, err := suite.repo.List(suite.context)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []models.Area{{ID: "garage", Name: "Garage"}, {ID: "kitchen", Name: "Kitchen"}}, areas)
}

func (suite *AreaRepoTestSuite) TestList_QueryError() {
	suite.mock.ExpectQuery(`SELECT id, name FROM areas`).
		WillReturnError(errors.New("relation \"areas\" does not exist"))

	_, err := suite.repo.List(suite.context)
	assert.ErrorIs(suite.T(), err, models.ErrStorage)
}

func (suite *AreaRepoTestSuite) TestGetByID() {
	suite.mock.ExpectQuery(`SELECT id, name FROM areas WHERE id = \$1`).
		WithArgs("garage").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("garage", "Garage"))

	area, err := suite.repo.GetByID(suite.context, "garage")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &models.Area{ID: "garage", Name: "Garage"}, area)
}

func (suite *AreaRepoTestSuite) TestGetByID_Missing() {
	suite.mock.ExpectQuery(`SELECT id, name FROM areas WHERE id = \$1`).
		WithArgs("attic").
		WillReturnError(pgx.ErrNoRows)

	area, err := suite.repo.GetByID(suite.context, "attic")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), area)
}

func (suite *AreaRepoTestSuite) TestFindByName_CaseInsensitive() {
	suite.mock.ExpectQuery(`SELECT id, name FROM areas WHERE LOWER\(name\) = \$1`).
		WithArgs("living room").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("living_room", "Living Room"))

	area, err := suite.repo.FindByName(suite.context, "  Living Room ")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "living_room", area.ID)
}
