package service

import (
	"context"
	"testing"

	"boutique-store/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecreaseQuantity_LastUnitRemovesProduct(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")
	staged := &StagedFile{Filename: "cap.png", URL: testUploadBase + "cap.png"}
	p := f.createProduct(t, "Cap", "5", staged, VariantInput{ColorID: red, Quantity: 1})

	res, err := f.inventory.DecreaseQuantity(context.Background(), p.ID, red, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.VariantRemoved)
	assert.True(t, res.ProductRemoved)
	assert.False(t, res.AgeRangeRemoved)

	assert.Equal(t, int64(0), f.count(t, &model.Product{}))
	assert.Equal(t, int64(0), f.count(t, &model.ProductImage{}))
	assert.Equal(t, []string{"cap.png"}, f.files.Deleted())
}

func TestDecreaseQuantity_KeepsProductWithOtherVariants(t *testing.T) {
	f := newFixture(t)
	red, blue := f.colorID(t, "Red"), f.colorID(t, "Blue")
	p := f.createProduct(t, "Cap", "5", nil,
		VariantInput{ColorID: red, AgeRanges: []AgeRangeInput{{MinValue: 1, MaxValue: 2, Quantity: 1}}},
		VariantInput{ColorID: blue, Quantity: 3},
	)
	ageRangeID := *f.variants(t, p.ID)[0].AgeRangeID

	res, err := f.inventory.DecreaseQuantity(context.Background(), p.ID, red, &ageRangeID)
	require.NoError(t, err)
	assert.True(t, res.VariantRemoved)
	assert.False(t, res.ProductRemoved)
	assert.True(t, res.AgeRangeRemoved)

	assert.Equal(t, int64(1), f.count(t, &model.Product{}))
	assert.Equal(t, int64(0), f.count(t, &model.AgeRange{}))
	assert.Empty(t, f.files.Deleted())
}

func TestDecreaseQuantity_VariantSelection(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")
	p := f.createProduct(t, "Dress", "12", nil, VariantInput{
		ColorID:   red,
		AgeRanges: []AgeRangeInput{{MinValue: 2, MaxValue: 3, Quantity: 5}},
	})
	aged := f.variants(t, p.ID)[0]
	ageless := model.InventoryVariant{ProductID: p.ID, ColorID: red, Quantity: 5}
	require.NoError(t, f.db.Create(&ageless).Error)

	other := model.AgeRange{MinValue: 7, MaxValue: 8, Unit: model.UnitYears}
	require.NoError(t, f.db.Create(&other).Error)

	ctx := context.Background()
	cases := []struct {
		name       string
		ageRangeID *uint
		want       uint
	}{
		{"exact age range", aged.AgeRangeID, aged.ID},
		{"no age range", nil, ageless.ID},
		{"age range not stocked falls back to ageless row", uintPtr(other.ID), ageless.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.quantity(t, tc.want)
			res, err := f.inventory.DecreaseQuantity(ctx, p.ID, red, tc.ageRangeID)
			require.NoError(t, err)
			assert.Equal(t, before-1, res.Remaining)
			assert.Equal(t, before-1, f.quantity(t, tc.want))
		})
	}
}

func TestDecreaseQuantity_NoAgelessFallback(t *testing.T) {
	f := newFixture(t)
	red := f.colorID(t, "Red")
	p := f.createProduct(t, "Dress", "12", nil, VariantInput{
		ColorID:   red,
		AgeRanges: []AgeRangeInput{{MinValue: 2, MaxValue: 3, Quantity: 5}},
	})

	_, err := f.inventory.DecreaseQuantity(context.Background(), p.ID, red, nil)
	assert.ErrorIs(t, err, ErrInventoryNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, 5, f.variants(t, p.ID)[0].Quantity)
}

func TestDecreaseQuantity_InvalidIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inventory.DecreaseQuantity(ctx, 0, 1, nil)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.inventory.DecreaseQuantity(ctx, 1, 0, nil)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.inventory.DecreaseQuantity(ctx, 1, 1, uintPtr(0))
	assert.Equal(t, KindValidation, KindOf(err))
}
