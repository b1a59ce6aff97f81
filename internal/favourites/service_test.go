package favourites

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/db/models"
	"github.com/shopfront/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/migrate"
	"github.com/shopfront/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))

	svc, err := NewService(ServiceParams{
		FavouriteRepo: NewRepository(conn),
		ProductRepo:   product.NewRepository(conn),
		Normalizer:    photos.NewNormalizer(photos.NewResolver("https://cdn.example.com"), nil),
	})
	require.NoError(t, err)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	p := models.Product{
		Gender:          enums.GenderWomen,
		Category:        "dresses",
		ProductName:     "Summer",
		Brand:           "Acme",
		PricePLN:        decimal.NewFromInt(120),
		PriceUSD:        decimal.NewFromInt(30),
		Photos:          types.RawList{[]byte(`"a.jpg"`)},
		MaintenanceInfo: "hand wash",
	}
	require.NoError(t, conn.Create(&p).Error)
	return p.ID
}

func TestNewServiceRequiresRepos(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestAddListRemove(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	first := seedProduct(t, conn)
	second := seedProduct(t, conn)

	fav, err := svc.Add(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, fav.ID)
	require.NotNil(t, fav.Product)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, fav.Product.Photos.URLs)

	_, err = svc.Add(ctx, second)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.Remove(ctx, fav.ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second, list[0].ProductID)

	err = svc.Remove(ctx, fav.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddRejectsDuplicatesAndMissingProducts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, conn)

	_, err := svc.Add(ctx, id)
	require.NoError(t, err)

	_, err = svc.Add(ctx, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Add(ctx, 4242)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = svc.Remove(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListKeepsFavouritesOfDeletedProducts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, conn)
	_, err := svc.Add(ctx, id)
	require.NoError(t, err)

	require.NoError(t, conn.Exec("DELETE FROM products WHERE id = ?", id).Error)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Product)
}
