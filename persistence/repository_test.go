package persistence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/audit"
	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newCategory(title string) *catalog.Category {
	return &catalog.Category{
		Title:    title,
		Slug:     internal.Slug(title, uuid.Must(uuid.NewV4())),
		IsActive: true,
	}
}

func TestRepositoryDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	repo := persistence.NewRepository[catalog.Category](db)

	category := newCategory("Succulents")
	require.NoError(t, repo.Create(ctx, category))

	deletedAt := func() time.Time {
		var found catalog.Category
		require.NoError(t, db.Unscoped().Where("id = ?", category.ID).Take(&found).Error)
		require.True(t, found.Deleted())
		return found.DeletedAt.Time
	}

	require.NoError(t, repo.Delete(ctx, category.ID))
	first := deletedAt()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Delete(ctx, category.ID))
	assert.True(t, first.Equal(deletedAt()), "second delete moved deleted_at")
	require.NoError(t, repo.Delete(ctx, uuid.Must(uuid.NewV4())))

	_, err := repo.Get(ctx, category.ID)
	assert.True(t, persistence.IsNotFound(err))

	// Soft deleted rows are kept
	var count int64
	require.NoError(t, db.Unscoped().Model(&catalog.Category{}).Where("id = ?", category.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Purge(ctx, category.ID))
	require.NoError(t, db.Unscoped().Model(&catalog.Category{}).Where("id = ?", category.ID).Count(&count).Error)
	assert.Zero(t, count)
}

// newPair stores an account and an account type so profiles can reference
// both
func newPair(t *testing.T, db *gorm.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	acc := &account.Account{
		Email:        "fern@bloom.shop",
		Username:     "fern",
		PasswordHash: "hash",
	}
	require.NoError(t, persistence.NewRepository[account.Account](db).Create(ctx, acc))
	accountType := &account.AccountType{Title: "Seller", Key: "seller"}
	require.NoError(t, persistence.NewRepository[account.AccountType](db).Create(ctx, accountType))
	return acc.ID, accountType.ID
}

func TestRepositoryFindOrCreateConcurrently(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	repo := persistence.NewRepository[account.AccountTypeInfo](db)
	accountID, accountTypeID := newPair(t, db)

	conds := map[string]interface{}{"account_id": accountID, "account_type_id": accountTypeID}
	build := func() account.AccountTypeInfo {
		return account.AccountTypeInfo{AccountID: accountID, AccountTypeID: accountTypeID}
	}

	for _, test := range []struct {
		name string
		fn   func(ctx context.Context) (*account.AccountTypeInfo, bool, error)
	}{
		{name: "Find Or Create", fn: func(ctx context.Context) (*account.AccountTypeInfo, bool, error) {
			return repo.FindOrCreate(ctx, conds, build)
		}},
		// Every caller skips the lookup and lands on the insert, so all but
		// one of them take the conflict path
		{name: "Create Or Find", fn: func(ctx context.Context) (*account.AccountTypeInfo, bool, error) {
			return repo.CreateOrFind(ctx, conds, build)
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, db.Where(conds).Delete(&account.AccountTypeInfo{}).Error)

			const callers = 16
			var (
				mu      sync.Mutex
				ids     = map[uuid.UUID]struct{}{}
				created int
			)
			g, gctx := errgroup.WithContext(ctx)
			for i := 0; i < callers; i++ {
				g.Go(func() error {
					found, isNew, err := test.fn(gctx)
					if err != nil {
						return err
					}
					mu.Lock()
					defer mu.Unlock()
					ids[found.ID] = struct{}{}
					if isNew {
						created++
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			assert.Len(t, ids, 1)
			assert.Equal(t, 1, created)
			count, err := repo.Count(ctx, conds)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestRepositoryCreateOrFindConflict(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	accountID, accountTypeID := newPair(t, db)

	t.Run("Reads Back Existing Row", func(t *testing.T) {
		repo := persistence.NewRepository[account.AccountTypeInfo](db)
		existing := &account.AccountTypeInfo{AccountID: accountID, AccountTypeID: accountTypeID}
		require.NoError(t, repo.Create(ctx, existing))

		found, created, err := repo.CreateOrFind(ctx, map[string]interface{}{"account_id": accountID, "account_type_id": accountTypeID}, func() account.AccountTypeInfo {
			return account.AccountTypeInfo{AccountID: accountID, AccountTypeID: accountTypeID}
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, found.ID)
	})

	t.Run("Conflicting Row Is Soft Deleted", func(t *testing.T) {
		repo := persistence.NewRepository[catalog.Category](db)
		category := newCategory("Cacti")
		require.NoError(t, repo.Create(ctx, category))
		require.NoError(t, repo.Delete(ctx, category.ID))

		_, created, err := repo.FindOrCreate(ctx, map[string]interface{}{"slug": category.Slug}, func() catalog.Category {
			return catalog.Category{Title: "Cacti", Slug: category.Slug, IsActive: true}
		})
		require.Error(t, err)
		assert.False(t, created)
		assert.True(t, internal.IsCode(err, internal.ErrorCodeConflict))
	})
}

func TestFriendlyIDIsImmutable(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	repo := persistence.NewRepository[catalog.Category](db)

	category := newCategory("Orchids")
	require.NoError(t, repo.Create(ctx, category))
	assert.Equal(t, internal.FriendlyID("category", category.ID), category.FriendlyID)

	updated, err := repo.Update(ctx, category.ID, map[string]interface{}{
		"friendly_id": "zzzzzzzzzzzz",
		"title":       "Rare Orchids",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rare Orchids", updated.Title)
	assert.Equal(t, category.FriendlyID, updated.FriendlyID)

	found, err := repo.GetByFriendlyID(ctx, category.FriendlyID)
	require.NoError(t, err)
	assert.Equal(t, category.ID, found.ID)
}

func TestRepositorySearch(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	repo := persistence.NewRepository[catalog.Category](db)

	for _, title := range []string{"Crème Brûlée Roses", "Desert Cacti", "Rose Fertilizer"} {
		require.NoError(t, repo.Create(ctx, newCategory(title)))
	}

	found, err := repo.Search(ctx, "creme", internal.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Crème Brûlée Roses", found[0].Title)

	found, err = repo.Search(ctx, "rose", internal.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestTransactorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)
	repo := persistence.NewRepository[catalog.Category](db)

	var committed bool
	category := newCategory("Ferns")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		persistence.AfterCommit(ctx, func(context.Context) { committed = true })
		if err := repo.Create(ctx, category); err != nil {
			return err
		}
		return internal.NewErrorf(internal.ErrorCodeConflict, "abort")
	})
	require.Error(t, err)
	assert.False(t, committed)

	_, err = repo.Get(ctx, category.ID)
	assert.True(t, persistence.IsNotFound(err))

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		persistence.AfterCommit(ctx, func(context.Context) { committed = true })
		return repo.Create(ctx, newCategory("Mosses"))
	})
	require.NoError(t, err)
	assert.True(t, committed)
}

func TestAuditCallbacks(t *testing.T) {
	ctx := persistence.WithActor(context.Background(), persistence.Actor{IPAddress: "10.0.0.1"})
	db := sqlitetest.New(t)
	repo := persistence.NewRepository[catalog.Product](db)
	logs := persistence.NewRepository[audit.Log](db)

	category := newCategory("Bonsai")
	require.NoError(t, persistence.NewRepository[catalog.Category](db).Create(ctx, category))
	product := &catalog.Product{
		Name:              "Juniper",
		Slug:              internal.Slug("Juniper", uuid.Must(uuid.NewV4())),
		SupplierAccountID: uuid.Must(uuid.NewV4()),
		CurrencyID:        uuid.Must(uuid.NewV4()),
		CategoryID:        &category.ID,
	}
	require.NoError(t, repo.Create(ctx, product))
	_, err := repo.Update(ctx, product.ID, map[string]interface{}{"name": "Juniper Bonsai"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, product.ID))

	entries, err := logs.Find(ctx, map[string]interface{}{"resource_id": product.ID.String()})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	actions := make([]audit.Action, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	// Soft deletes are recorded as updates of deleted_at
	assert.ElementsMatch(t, []audit.Action{audit.Insert, audit.Update, audit.Update}, actions)
	for _, entry := range entries {
		assert.Equal(t, "products", entry.ResourceType)
		require.NotNil(t, entry.IPAddress)
		assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	}
}
