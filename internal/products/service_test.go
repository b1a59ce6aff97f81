package product

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	"github.com/shopfront/storefront-backend/pkg/db/models"
	"github.com/shopfront/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/pagination"
	"github.com/shopfront/storefront-backend/pkg/types"
)

func seedProduct(t *testing.T, env *testEnv, gender enums.Gender, photoDoc string) *models.Product {
	t.Helper()
	raw, err := types.ParseRawList([]byte(photoDoc))
	require.NoError(t, err)
	p := &models.Product{
		Gender:          gender,
		Category:        "shoes",
		Subcategory:     "sneakers",
		ProductName:     "Runner",
		Brand:           "Acme",
		PricePLN:        decimal.RequireFromString("100.00"),
		PriceUSD:        decimal.RequireFromString("25.00"),
		Photos:          raw,
		MaintenanceInfo: "wash cold",
		Stock:           3,
	}
	created, err := env.repo.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func storedRecords(t *testing.T, env *testEnv, id int64) []photos.Record {
	t.Helper()
	p, err := env.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	c := photos.Classify(p.Photos)
	require.Equal(t, photos.ShapeStructured, c.Shape)
	return c.Records()
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	env := newTestEnv(t)
	reconciler := photos.NewReconciler(nil, env.resolver, 0, logger.Nop(), nil)

	_, err := NewService(nil, reconciler, photos.Normalizer{}, Pricing{}, logger.Nop())
	assert.Error(t, err)
	_, err = NewService(env.repo, nil, photos.Normalizer{}, Pricing{}, logger.Nop())
	assert.Error(t, err)
	_, err = NewService(env.repo, reconciler, photos.Normalizer{}, Pricing{}, nil)
	assert.Error(t, err)
}

func TestCreateStoresCanonicalRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Create(ctx, CreateInput{
		ProductName: "  Trail Boot ",
		Price:       decimal.RequireFromString("199.99"),
		Category:    "shoes",
		Gender:      enums.GenderWomen,
	}, []photos.Upload{jpeg("Front View.JPG"), jpeg("side.jpg")})
	require.NoError(t, err)
	require.NotNil(t, res.Product)

	assert.Equal(t, "Trail Boot", res.Product.ProductName)
	assert.Equal(t, DefaultBrand, res.Product.Brand)
	assert.Equal(t, DefaultMaintenanceInfo, res.Product.MaintenanceInfo)
	assert.InDelta(t, 199.99, res.Product.PricePLN, 0.0001)
	assert.InDelta(t, 50.0, res.Product.PriceUSD, 0.0001)
	assert.Zero(t, res.DegradedPhotos)
	assert.Equal(t, 2, env.blob.count())

	records := storedRecords(t, env, res.Product.ID)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].Ordinal)
	assert.Equal(t, 1, records[1].Ordinal)
	assert.Equal(t, "Front View.JPG", records[0].DisplayName)
	assert.Regexp(t, `^\d+-0-front-view\.jpg$`, records[0].StorageKey)

	require.Equal(t, 2, res.Product.Photos.Len())
	assert.Equal(t, testBase+"/"+records[0].StorageKey, res.Product.Photos.URLs[0])
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateInput{Price: decimal.NewFromInt(1)}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.Create(ctx, CreateInput{
		ProductName: "x", Category: "y", Gender: enums.Gender("robots"), Price: decimal.NewFromInt(1),
	}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.Create(ctx, CreateInput{
		ProductName: "x", Category: "y", Gender: enums.GenderMen, Price: decimal.NewFromInt(1),
	}, []photos.Upload{jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg"), jpeg("d.jpg")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, env.blob.count())
}

func TestCreateDegradesFailedUploads(t *testing.T) {
	env := newTestEnv(t)
	env.blob.failPut = true

	res, err := env.svc.Create(context.Background(), CreateInput{
		ProductName: "Cap", Category: "hats", Gender: enums.GenderMen, Price: decimal.NewFromInt(40),
	}, []photos.Upload{jpeg("cap.jpg")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DegradedPhotos)
	assert.Equal(t, []string{photos.UploadFailedPlaceholder}, res.Product.Photos.URLs)
}

func TestGetNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetNormalizesLegacyPhotos(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, enums.GenderMen, `["https://cdn.example.com/photos/a.jpg","b.jpg"]`)

	dto, err := env.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{testBase + "/a.jpg", testBase + "/b.jpg"}, dto.Photos.URLs)
}

func TestListFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		seedProduct(t, env, enums.GenderMen, `[]`)
	}
	seedProduct(t, env, enums.GenderWomen, `[]`)

	res, err := env.svc.List(context.Background(), ListInput{
		Filter: ListFilter{Gender: enums.GenderMen},
		Page:   pagination.Params{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Limit)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "men", res.Items[0].Gender)

	all, err := env.svc.AdminList(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestUpdateRemovesAndAppendsPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.blob.objects["a.jpg"] = []byte("a")
	env.blob.objects["b.jpg"] = []byte("b")
	p := seedProduct(t, env, enums.GenderMen, `["https://cdn.example.com/photos/a.jpg","https://cdn.example.com/photos/b.jpg"]`)

	removed := `["https://cdn.example.com/photos/a.jpg"]`
	name := "Runner II"
	empty := ""
	res, err := env.svc.Update(ctx, p.ID, UpdateInput{
		ProductName:   &name,
		Category:      &empty,
		Description:   &empty,
		RemovedPhotos: &removed,
	}, []photos.Upload{jpeg("new.jpg")})
	require.NoError(t, err)

	assert.False(t, env.blob.has("a.jpg"))
	assert.True(t, env.blob.has("b.jpg"))
	require.Len(t, res.PhotoDeletes, 1)
	assert.Equal(t, photos.OutcomeDeleted, res.PhotoDeletes[0].Outcome.Kind)

	assert.Equal(t, "Runner II", res.Product.ProductName)
	assert.Equal(t, "shoes", res.Product.Category)
	assert.Equal(t, "", res.Product.Description)
	assert.Equal(t, p.Revision+1, res.Product.Revision)

	records := storedRecords(t, env, p.ID)
	require.Len(t, records, 2)
	assert.Equal(t, "b.jpg", records[0].StorageKey)
	assert.Equal(t, 1, records[0].Ordinal)
	assert.Equal(t, 2, records[1].Ordinal)
	assert.True(t, env.blob.has(records[1].StorageKey))
}

func TestUpdateIgnoresMalformedRemovedPhotos(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, enums.GenderMen, `["a.jpg"]`)

	bad := `not-json`
	price := decimal.RequireFromString("80")
	res, err := env.svc.Update(context.Background(), p.ID, UpdateInput{RemovedPhotos: &bad, Price: &price}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{testBase + "/a.jpg"}, res.Product.Photos.URLs)
	assert.InDelta(t, 20.0, res.Product.PriceUSD, 0.0001)
}

func TestUpdateKeepsUnrecognisedDocument(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, enums.GenderMen, `[{"foo":"bar"}]`)

	_, err := env.svc.Update(context.Background(), p.ID, UpdateInput{}, []photos.Upload{jpeg("x.jpg")})
	require.NoError(t, err)

	stored, err := env.repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Photos, 2)
	assert.JSONEq(t, `{"foo":"bar"}`, string(stored.Photos[0]))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(stored.Photos[1], &rec))
	assert.EqualValues(t, 1, rec["ordinal"])
}

func TestUpdateKeepsRemovedBlobsWhenWriteFails(t *testing.T) {
	tests := []struct {
		name      string
		interfere func(env *testEnv, id int64) func(tx *gorm.DB)
		code      pkgerrors.Code
	}{
		{
			name: "concurrent writer",
			interfere: func(env *testEnv, id int64) func(tx *gorm.DB) {
				return func(*gorm.DB) {
					env.db.Exec("UPDATE products SET revision = revision + 1 WHERE id = ?", id)
				}
			},
			code: pkgerrors.CodeConflict,
		},
		{
			name: "database error",
			interfere: func(*testEnv, int64) func(tx *gorm.DB) {
				return func(tx *gorm.DB) {
					_ = tx.AddError(errors.New("disk full"))
				}
			},
			code: pkgerrors.CodeDependency,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.blob.objects["a.jpg"] = []byte("a")
			p := seedProduct(t, env, enums.GenderMen, `["https://cdn.example.com/photos/a.jpg"]`)
			interceptUpdate(t, env, tc.interfere(env, p.ID))

			removed := `["https://cdn.example.com/photos/a.jpg"]`
			_, err := env.svc.Update(context.Background(), p.ID, UpdateInput{RemovedPhotos: &removed}, []photos.Upload{jpeg("new.jpg")})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code))

			assert.True(t, env.blob.has("a.jpg"))
			assert.Equal(t, 1, env.blob.count(), "uploads for the failed write are cleaned up")

			stored, err := env.repo.FindByID(context.Background(), p.ID)
			require.NoError(t, err)
			require.Len(t, stored.Photos, 1)
			assert.JSONEq(t, `"https://cdn.example.com/photos/a.jpg"`, string(stored.Photos[0]))
		})
	}
}

func TestUpdateIgnoresRemovalsForUnrecognisedDocument(t *testing.T) {
	env := newTestEnv(t)
	env.blob.objects["a.jpg"] = []byte("a")
	p := seedProduct(t, env, enums.GenderMen, `[{"url":"https://cdn.example.com/photos/a.jpg"}]`)

	removed := `["https://cdn.example.com/photos/a.jpg"]`
	res, err := env.svc.Update(context.Background(), p.ID, UpdateInput{RemovedPhotos: &removed}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.PhotoDeletes)
	assert.True(t, env.blob.has("a.jpg"))

	stored, err := env.repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Photos, 1)
	assert.JSONEq(t, `{"url":"https://cdn.example.com/photos/a.jpg"}`, string(stored.Photos[0]))
}

func TestUpdateRejectsTooManyPhotos(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, enums.GenderMen, `[]`)
	uploads := make([]photos.Upload, MaxUpdatePhotos+1)
	for i := range uploads {
		uploads[i] = jpeg("p.jpg")
	}
	_, err := env.svc.Update(context.Background(), p.ID, UpdateInput{}, uploads)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.Update(context.Background(), 12345, UpdateInput{}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesBlobsAndRow(t *testing.T) {
	env := newTestEnv(t)
	env.blob.objects["a.jpg"] = []byte("a")
	p := seedProduct(t, env, enums.GenderWomen, `["a.jpg","https://other.example.com/x.jpg"]`)

	reports, err := env.svc.Delete(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, photos.OutcomeDeleted, reports[0].Outcome.Kind)
	assert.Equal(t, photos.OutcomeSkipped, reports[1].Outcome.Kind)
	assert.False(t, env.blob.has("a.jpg"))

	_, err = env.svc.Get(context.Background(), p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = env.svc.Delete(context.Background(), p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	env.blob.objects["a.jpg"] = []byte("a")
	env.blob.objects["b.jpg"] = []byte("b")
	p := seedProduct(t, env, enums.GenderMen, `["a.jpg","b.jpg"]`)

	_, err := env.svc.DeletePhoto(context.Background(), p.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = env.svc.DeletePhoto(context.Background(), p.ID, -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err := env.svc.DeletePhoto(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{testBase + "/b.jpg"}, res.Product.Photos.URLs)
	assert.False(t, env.blob.has("a.jpg"))
	assert.True(t, env.blob.has("b.jpg"))

	records := storedRecords(t, env, p.ID)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Ordinal)
}

func TestDeletePhotoIndexesTheDisplayedList(t *testing.T) {
	env := newTestEnv(t)
	env.blob.objects["a.jpg"] = []byte("a")
	env.blob.objects["b.jpg"] = []byte("b")
	p := seedProduct(t, env, enums.GenderMen,
		`["","https://cdn.example.com/photos/a.jpg","https://cdn.example.com/photos/b.jpg"]`)

	shown, err := env.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"", testBase + "/a.jpg", testBase + "/b.jpg"}, shown.Photos.URLs)

	_, err = env.svc.DeletePhoto(context.Background(), p.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err := env.svc.DeletePhoto(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{testBase + "/b.jpg"}, res.Product.Photos.URLs)
	assert.False(t, env.blob.has("a.jpg"))
	assert.True(t, env.blob.has("b.jpg"))
	require.Len(t, res.PhotoDeletes, 1)
	assert.Equal(t, testBase+"/a.jpg", res.PhotoDeletes[0].URL)
}

func TestDeletePhotoKeepsBlobOnConflict(t *testing.T) {
	env := newTestEnv(t)
	env.blob.objects["a.jpg"] = []byte("a")
	p := seedProduct(t, env, enums.GenderMen, `["a.jpg"]`)
	interceptUpdate(t, env, func(*gorm.DB) {
		env.db.Exec("UPDATE products SET revision = revision + 1 WHERE id = ?", p.ID)
	})

	_, err := env.svc.DeletePhoto(context.Background(), p.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.True(t, env.blob.has("a.jpg"))
}

func TestDeletePhotoRejectsUnrecognisedDocument(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env, enums.GenderMen, `[42]`)
	_, err := env.svc.DeletePhoto(context.Background(), p.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
