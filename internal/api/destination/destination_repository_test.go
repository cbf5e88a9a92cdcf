package destination

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var destinationCols = []string{
	"id", "name", "city", "province", "description", "category", "metadata",
	"rating", "budget", "budget_amount", "latitude", "longitude",
	"operating_hours", "contact_information", "popularity_score",
}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, slog.Default()), mock
}

func destinationRow(id uuid.UUID, name, city, category string, rating float64) []any {
	r := rating
	meta, budget, hours, contact := "", "", "", ""
	return []any{
		id, name, city, "Cavite", "some description", category, &meta,
		&r, &budget, (*float64)(nil), (*float64)(nil), (*float64)(nil),
		&hours, &contact, (*float64)(nil),
	}
}

func TestGetDestinationsAppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows(destinationCols).
		AddRow(destinationRow(uuid.New(), "Cafe Amadeo", "Amadeo", "Cafe", 4.5)...)

	mock.ExpectQuery(`SELECT(.|\s)*FROM destinations WHERE 1=1 AND LOWER\(city\) = LOWER\(\$1\) AND LOWER\(category\) = LOWER\(\$2\)`).
		WithArgs("Amadeo", "Cafe", 10).
		WillReturnRows(rows)

	got, err := repo.GetDestinations(context.Background(), "Amadeo", "Cafe", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cafe Amadeo", got[0].Name)
	assert.Equal(t, "Amadeo", got[0].City)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 4.5, *got[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDestinationsByCategories(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows(destinationCols).
		AddRow(destinationRow(uuid.New(), "Bag of Beans", "Tagaytay", "Cafe", 4.6)...).
		AddRow(destinationRow(uuid.New(), "Balay Dako", "Tagaytay", "Restaurant", 4.4)...)

	mock.ExpectQuery(`SELECT(.|\s)*WHERE LOWER\(category\) = ANY\(\$1\)`).
		WithArgs([]string{"cafe", "restaurant"}, 20).
		WillReturnRows(rows)

	got, err := repo.GetDestinationsByCategories(context.Background(), []string{"Cafe", "Restaurant"}, 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchDestinationsReturnsRank(t *testing.T) {
	repo, mock := newMockRepo(t)

	row := destinationRow(uuid.New(), "Kaybiang Tunnel", "Ternate", "Landmark", 4.2)
	row = append(row, 0.42)
	rows := pgxmock.NewRows(append(destinationCols, "rank")).AddRow(row...)

	mock.ExpectQuery(`ts_rank\(search_vector, plainto_tsquery\('english', \$1\)\)`).
		WithArgs("Ternate scenic tunnel", 10).
		WillReturnRows(rows)

	got, err := repo.SearchDestinations(context.Background(), "Ternate scenic tunnel", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kaybiang Tunnel", got[0].Destination.Name)
	assert.InDelta(t, 0.42, got[0].Rank, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDestinationByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT(.|\s)*FROM destinations WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetDestinationByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDistinctCities(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"city"}).AddRow("Amadeo").AddRow("Tagaytay")
	mock.ExpectQuery(`SELECT DISTINCT city FROM destinations`).WillReturnRows(rows)

	got, err := repo.GetDistinctCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Amadeo", "Tagaytay"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCityCategoryPairs(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"city", "category", "cnt"}).
		AddRow("Amadeo", "Cafe", 7).
		AddRow("Tagaytay", "Restaurant", 31)
	mock.ExpectQuery(`GROUP BY city, category`).WillReturnRows(rows)

	got, err := repo.GetCityCategoryPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountDestinationsError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM destinations`).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.CountDestinations(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
