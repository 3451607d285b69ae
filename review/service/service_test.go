package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/review"
	reviewGorm "github.com/RagOfJoes/bloom/review/repository/gorm"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, known ...uuid.UUID) review.Service {
	t.Helper()
	db := sqlitetest.New(t)
	exists := map[uuid.UUID]bool{}
	for _, id := range known {
		exists[id] = true
	}
	lookup := func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		if !exists[id] {
			return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%s does not exist", id)
		}
		return struct{}{}, nil
	}
	registry := record.NewRegistry()
	registry.Register(record.KindAccountTypeInfo, lookup)
	registry.Register(record.KindProduct, lookup)
	return NewReviewService(persistence.NewTransactor(db), registry, reviewGorm.NewGormReviewRepository(db))
}

func TestReviewServiceCreate(t *testing.T) {
	ctx := context.Background()
	author := uuid.Must(uuid.NewV4())
	product := uuid.Must(uuid.NewV4())
	comment := "Arrived healthy and well packed"

	for _, test := range []struct {
		name    string
		payload review.Create
		code    internal.ErrorCode
	}{
		{
			name:    "Valid",
			payload: review.Create{AccountTypeInfoID: author, ReviewableType: "product", ReviewableID: product, Rating: 5, Comment: &comment},
		},
		{
			name:    "Rating Out Of Range",
			payload: review.Create{AccountTypeInfoID: author, ReviewableType: "product", ReviewableID: product, Rating: 6},
			code:    internal.ErrorCodeInvalidArgument,
		},
		{
			name:    "Not Reviewable",
			payload: review.Create{AccountTypeInfoID: author, ReviewableType: "category", ReviewableID: product, Rating: 4},
			code:    internal.ErrorCodeInvalidArgument,
		},
		{
			name:    "Unknown Product",
			payload: review.Create{AccountTypeInfoID: author, ReviewableType: "product", ReviewableID: uuid.Must(uuid.NewV4()), Rating: 4},
			code:    internal.ErrorCodeNotFound,
		},
		{
			name:    "Unknown Author",
			payload: review.Create{AccountTypeInfoID: uuid.Must(uuid.NewV4()), ReviewableType: "product", ReviewableID: product, Rating: 4},
			code:    internal.ErrorCodeNotFound,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			testService := newService(t, author, product)

			created, err := testService.Create(ctx, test.payload)
			if test.code != "" {
				require.Error(t, err)
				assert.Equal(t, test.code, internal.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, record.KindProduct, created.ReviewableType)
			assert.Equal(t, test.payload.Rating, created.Rating)
		})
	}
}

func TestReviewServiceOnePerAuthor(t *testing.T) {
	ctx := context.Background()
	author := uuid.Must(uuid.NewV4())
	product := uuid.Must(uuid.NewV4())
	testService := newService(t, author, product)
	payload := review.Create{AccountTypeInfoID: author, ReviewableType: "product", ReviewableID: product, Rating: 3}

	created, err := testService.Create(ctx, payload)
	require.NoError(t, err)

	_, err = testService.Create(ctx, payload)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))

	// Deleting does not free the slot
	require.NoError(t, testService.Delete(ctx, created.ID))
	require.NoError(t, testService.Delete(ctx, created.ID))
	_, err = testService.Create(ctx, payload)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
}

func TestReviewServiceSummarize(t *testing.T) {
	ctx := context.Background()
	authors := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}
	product := uuid.Must(uuid.NewV4())
	testService := newService(t, append(authors, product)...)
	target := record.Ref{Type: record.KindProduct, ID: product}

	empty, err := testService.Summarize(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Count)
	assert.True(t, empty.Average.IsZero())

	var ids []uuid.UUID
	for i, rating := range []int{5, 4, 4} {
		created, err := testService.Create(ctx, review.Create{AccountTypeInfoID: authors[i], ReviewableType: "product", ReviewableID: product, Rating: rating})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	summary, err := testService.Summarize(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Count)
	assert.True(t, decimal.RequireFromString("4.33").Equal(summary.Average), summary.Average.String())

	// Deleted reviews drop out of the listing and the summary
	require.NoError(t, testService.Delete(ctx, ids[0]))
	summary, err = testService.Summarize(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.True(t, decimal.NewFromInt(4).Equal(summary.Average), summary.Average.String())

	listed, err := testService.ListFor(ctx, target, internal.Page{}.Normalize())
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
