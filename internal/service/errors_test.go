package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{newValidationError("name is required"), KindValidation},
		{fmt.Errorf("%w: id 4", ErrProductNotFound), KindNotFound},
		{ErrInventoryNotFound, KindNotFound},
		{fmt.Errorf("%w: requested 3, available 2", ErrInsufficientStock), KindBusinessRule},
		{ErrOutOfStock, KindBusinessRule},
		{ErrPriceMismatch, KindBusinessRule},
		{ErrInvalidCredentials, KindUnauthorized},
		{errors.New("connection reset"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), "%v", tc.err)
	}
}
