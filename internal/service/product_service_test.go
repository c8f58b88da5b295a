package service

import (
	"context"
	"testing"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateProduct_BearRomper(t *testing.T) {
	f := newFixture(t)
	pink := f.colorID(t, "Pink")

	p := f.createProduct(t, "Bear Romper", "20.00", nil, VariantInput{
		ColorID:   pink,
		AgeRanges: []AgeRangeInput{{MinValue: 0, MaxValue: 6, Unit: model.UnitMonths, Quantity: 5}},
	})

	assert.Equal(t, int64(1), f.count(t, &model.Product{}))
	assert.Equal(t, int64(1), f.count(t, &model.AgeRange{}))

	var ar model.AgeRange
	require.NoError(t, f.db.First(&ar).Error)
	assert.Equal(t, 0, ar.MinValue)
	assert.Equal(t, 6, ar.MaxValue)
	assert.Equal(t, model.UnitMonths, ar.Unit)

	vs := f.variants(t, p.ID)
	require.Len(t, vs, 1)
	assert.Equal(t, 5, vs[0].Quantity)
	assert.Equal(t, pink, vs[0].ColorID)
	require.NotNil(t, vs[0].AgeRangeID)
	assert.Equal(t, ar.ID, *vs[0].AgeRangeID)

	assert.Equal(t, "Baby girls", p.Category.Name)
	assert.Equal(t, "tester", p.CreatedBy)
}

func TestCreateProduct_DefaultsAndSharedAgeRange(t *testing.T) {
	f := newFixture(t)
	blue := f.colorID(t, "Blue")

	a := f.createProduct(t, "Shirt", "10", nil, VariantInput{
		ColorID:   blue,
		AgeRanges: []AgeRangeInput{{MaxValue: 2, Quantity: 1}},
	})
	b := f.createProduct(t, "Pants", "12", nil, VariantInput{
		ColorID:   blue,
		AgeRanges: []AgeRangeInput{{MinValue: 0, MaxValue: 2, Unit: model.UnitYears, Quantity: 3}},
	})

	assert.Equal(t, int64(1), f.count(t, &model.AgeRange{}), "identical bounds must reuse the range")
	va, vb := f.variants(t, a.ID), f.variants(t, b.ID)
	require.Len(t, va, 1)
	require.Len(t, vb, 1)
	assert.Equal(t, *va[0].AgeRangeID, *vb[0].AgeRangeID)
}

func TestCreateProduct_SameColorTwiceKeepsLast(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")

	p := f.createProduct(t, "Socks", "3", nil,
		VariantInput{ColorID: red, Quantity: 4},
		VariantInput{ColorID: red, Quantity: 9},
	)

	vs := f.variants(t, p.ID)
	require.Len(t, vs, 1)
	assert.Equal(t, 9, vs[0].Quantity)
	assert.Nil(t, vs[0].AgeRangeID)
}

func TestCreateProduct_ZeroQuantitySkipped(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")

	p := f.createProduct(t, "Hat", "3", nil,
		VariantInput{ColorID: red, Quantity: 0},
		VariantInput{ColorID: f.colorID(t, "Blue"), AgeRanges: []AgeRangeInput{{MaxValue: 1, Quantity: 0}}},
	)

	assert.Empty(t, f.variants(t, p.ID))
	assert.Equal(t, int64(0), f.count(t, &model.AgeRange{}))
}

func TestCreateProduct_ValidationDiscardsUpload(t *testing.T) {
	f := newFixture(t)
	staged := &StagedFile{Filename: "up.png", URL: testUploadBase + "up.png"}

	cases := []*CreateProductRequest{
		{Name: "   ", CategoryID: 1},
		{Name: "x"},
		{Name: "x", CategoryID: 1, Price: decimal.NewFromInt(-1)},
		{Name: "x", CategoryID: 1, Inventory: []VariantInput{{ColorID: 1, Quantity: -2}}},
		{Name: "x", CategoryID: 1, Inventory: []VariantInput{{ColorID: 1, AgeRanges: []AgeRangeInput{{MinValue: 5, MaxValue: 1, Quantity: 1}}}}},
		{Name: "x", CategoryID: 1, Inventory: []VariantInput{{ColorID: 1, AgeRanges: []AgeRangeInput{{MaxValue: 1, Unit: "weeks", Quantity: 1}}}}},
	}
	for i, req := range cases {
		_, err := f.products.CreateProduct(context.Background(), req, staged, "tester")
		assert.Equal(t, KindValidation, KindOf(err), "case %d: %v", i, err)
	}

	assert.Len(t, f.files.Deleted(), len(cases))
	assert.Equal(t, int64(0), f.count(t, &model.Product{}))
}

// countWrites counts the INSERT and UPDATE statements issued through f.db from now on.
func (f *fixture) countWrites(t *testing.T) *int {
	t.Helper()
	writes := new(int)
	record := func(*gorm.DB) { *writes++ }
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:count_creates", record))
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:count_updates", record))
	return writes
}

func TestCreateProduct_UnknownReferencesRejectedBeforeWriting(t *testing.T) {
	cases := []struct {
		name     string
		category string
		color    uint
	}{
		{"unknown color", "Boys", 9999},
		{"unknown category", "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			categoryID := uint(9999)
			if tc.category != "" {
				categoryID = f.categoryID(t, tc.category)
			}
			writes := f.countWrites(t)
			staged := &StagedFile{Filename: "up.png", URL: testUploadBase + "up.png"}

			_, err := f.products.CreateProduct(context.Background(), &CreateProductRequest{
				Name:       "Ghost",
				CategoryID: categoryID,
				Inventory:  []VariantInput{{ColorID: tc.color, Quantity: 1}},
			}, staged, "tester")

			assert.Equal(t, KindValidation, KindOf(err))
			assert.Zero(t, *writes)
			assert.Equal(t, int64(0), f.count(t, &model.Product{}))
			assert.Equal(t, []string{"up.png"}, f.files.Deleted())
		})
	}
}

func TestUpdateProduct_UnknownColorRejectedBeforeWriting(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")
	p := f.createProduct(t, "Cap", "10", nil, VariantInput{ColorID: red, Quantity: 3})
	writes := f.countWrites(t)

	name := "Renamed"
	_, err := f.products.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{
		Name:      &name,
		Inventory: []VariantInput{{ColorID: 9999, Quantity: 1}},
	}, nil, "tester")

	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, *writes)
	vs := f.variants(t, p.ID)
	require.Len(t, vs, 1)
	assert.Equal(t, 3, vs[0].Quantity)
}

func TestCreateProduct_PrimaryImageRule(t *testing.T) {
	f := newFixture(t)
	staged := &StagedFile{Filename: "up.png", URL: testUploadBase + "up.png"}

	p, err := f.products.CreateProduct(context.Background(), &CreateProductRequest{
		Name:       "Blanket",
		CategoryID: f.categoryID(t, "Blankets"),
		Images: []ImageInput{
			{URL: "https://cdn.example.com/a.png", IsPrimary: true},
			{URL: ""},
			{URL: "https://cdn.example.com/b.png"},
		},
	}, staged, "tester")
	require.NoError(t, err)

	require.Len(t, p.Images, 3)
	primaries := 0
	for _, img := range p.Images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, staged.URL, img.ImageURL)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestBuildImages_FirstFlaggedWins(t *testing.T) {
	images := buildImages(7, nil, []ImageInput{
		{URL: "a", IsPrimary: false},
		{URL: "b", IsPrimary: true},
		{URL: "c", IsPrimary: true},
	})
	require.Len(t, images, 3)
	assert.False(t, images[0].IsPrimary)
	assert.True(t, images[1].IsPrimary)
	assert.False(t, images[2].IsPrimary)
	for _, img := range images {
		assert.Equal(t, uint(7), img.ProductID)
	}
}

func TestUpdateProduct_ReplacesVariantSet(t *testing.T) {
	f := newFixture(t)
	pink, blue := f.colorID(t, "Pink"), f.colorID(t, "Blue")
	p := f.createProduct(t, "Dress", "30", nil,
		VariantInput{ColorID: pink, AgeRanges: []AgeRangeInput{{MaxValue: 6, Unit: model.UnitMonths, Quantity: 2}}},
		VariantInput{ColorID: blue, Quantity: 1},
	)

	name := "Summer Dress"
	updated, err := f.products.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{
		Name: &name,
		Inventory: []VariantInput{
			{ColorID: blue, AgeRanges: []AgeRangeInput{{MinValue: 1, MaxValue: 2, Quantity: 7}}},
		},
	}, nil, "editor")
	require.NoError(t, err)

	assert.Equal(t, "Summer Dress", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(30)), "unsent fields stay")
	assert.Equal(t, "editor", updated.UpdatedBy)

	vs := f.variants(t, p.ID)
	require.Len(t, vs, 1)
	assert.Equal(t, blue, vs[0].ColorID)
	assert.Equal(t, 7, vs[0].Quantity)

	// the 0-6 months range lost its only variant
	assert.Equal(t, int64(1), f.count(t, &model.AgeRange{}))
}

func TestUpdateProduct_WithoutInventoryKeepsStock(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, "Bib", "5", nil, VariantInput{ColorID: f.colorID(t, "White"), Quantity: 3})

	price := decimal.RequireFromString("6.5")
	_, err := f.products.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{Price: &price}, nil, "editor")
	require.NoError(t, err)

	vs := f.variants(t, p.ID)
	require.Len(t, vs, 1)
	assert.Equal(t, 3, vs[0].Quantity)
}

func TestUpdateProduct_ReplacesImagesAndRemovesOldFiles(t *testing.T) {
	f := newFixture(t)
	first := &StagedFile{Filename: "old.png", URL: testUploadBase + "old.png"}
	p := f.createProduct(t, "Towel", "9", first, VariantInput{ColorID: f.colorID(t, "Gray"), Quantity: 1})

	second := &StagedFile{Filename: "new.png", URL: testUploadBase + "new.png"}
	updated, err := f.products.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{}, second, "editor")
	require.NoError(t, err)

	require.Len(t, updated.Images, 1)
	assert.Equal(t, second.URL, updated.Images[0].ImageURL)
	assert.True(t, updated.Images[0].IsPrimary)
	assert.Equal(t, []string{"old.png"}, f.files.Deleted())
}

func TestUpdateProduct_NotFoundDiscardsUpload(t *testing.T) {
	f := newFixture(t)
	staged := &StagedFile{Filename: "up.png", URL: testUploadBase + "up.png"}

	_, err := f.products.UpdateProduct(context.Background(), 404, &UpdateProductRequest{}, staged, "editor")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, []string{"up.png"}, f.files.Deleted())
}

func TestDeleteProduct_KeepsSharedAgeRange(t *testing.T) {
	f := newFixture(t)
	pink := f.colorID(t, "Pink")
	shared := AgeRangeInput{MaxValue: 3, Quantity: 2}
	staged := &StagedFile{Filename: "a.png", URL: testUploadBase + "a.png"}

	a := f.createProduct(t, "A", "1", staged, VariantInput{ColorID: pink, AgeRanges: []AgeRangeInput{shared, {MaxValue: 9, Quantity: 1}}})
	b := f.createProduct(t, "B", "1", nil, VariantInput{ColorID: pink, AgeRanges: []AgeRangeInput{shared}})

	require.NoError(t, f.products.DeleteProduct(context.Background(), a.ID))

	assert.Equal(t, int64(1), f.count(t, &model.Product{}))
	assert.Equal(t, int64(0), f.count(t, &model.ProductImage{}))
	assert.Equal(t, int64(1), f.count(t, &model.AgeRange{}), "0-3 is still used by B")
	assert.Len(t, f.variants(t, b.ID), 1)
	assert.Equal(t, []string{"a.png"}, f.files.Deleted())

	err := f.products.DeleteProduct(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReads(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")
	a := f.createProduct(t, "Red Romper", "10", nil, VariantInput{ColorID: red, Quantity: 1})
	f.createProduct(t, "Blue Shorts", "10", nil, VariantInput{ColorID: red, Quantity: 1})
	ctx := context.Background()

	all, err := f.products.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := f.products.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, "Red", got.Inventory[0].Color.Name)

	_, err = f.products.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)

	found, err := f.products.FilterProducts(ctx, repository.ProductFilter{Name: "romper"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	cats, err := f.products.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(model.DefaultCategories))

	colors, err := f.products.ListColors(ctx)
	require.NoError(t, err)
	assert.Len(t, colors, len(model.DefaultColors))
}
