package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteRequest struct {
	ProductID      string  `json:"product_id" validate:"required,max=8"`
	DurationMonths int     `json:"duration_months" validate:"gt=0,lte=60"`
	Mode           string  `json:"pricing_mode" validate:"omitempty,oneof=fixed tiered"`
	Discount       float64 `validate:"gte=0"`
}

type settings struct {
	Driver   string   `env:"CART_STORAGE_DRIVER" validate:"oneof=redis postgres memory"`
	Catalog  string   `env:"CATALOG_BASE_URL" validate:"required,http_url"`
	Brokers  []string `env:"KAFKA_BROKERS" validate:"dive,hostname_port"`
	Internal string   `json:"-" validate:"required"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	err := Validate(quoteRequest{ProductID: "desk-1", DurationMonths: 12, Mode: "tiered"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONNames(t *testing.T) {
	fields := fieldsOf(t, Validate(quoteRequest{}))

	assert.Equal(t, "is required", fields["product_id"])
	assert.Equal(t, "must be greater than 0", fields["duration_months"])
	assert.NotContains(t, fields, "pricing_mode")
}

func TestValidate_Messages(t *testing.T) {
	fields := fieldsOf(t, Validate(quoteRequest{
		ProductID:      "far-too-long-id",
		DurationMonths: 61,
		Mode:           "hourly",
		Discount:       -1,
	}))

	assert.Equal(t, "must be at most 8 characters", fields["product_id"])
	assert.Equal(t, "must be less than or equal to 60", fields["duration_months"])
	assert.Equal(t, "must be one of: fixed tiered", fields["pricing_mode"])
	assert.Equal(t, "must be greater than or equal to 0", fields["Discount"])
}

func TestValidate_EnvNames(t *testing.T) {
	fields := fieldsOf(t, Validate(settings{
		Driver:  "sqlite",
		Catalog: "not a url",
		Brokers: []string{"localhost"},
	}))

	assert.Contains(t, fields["CART_STORAGE_DRIVER"], "one of")
	assert.Equal(t, "must be a valid URL", fields["CATALOG_BASE_URL"])
	assert.Equal(t, "must be a host:port pair", fields["KAFKA_BROKERS[0]"])
	assert.Equal(t, "is required", fields["Internal"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(quoteRequest{DurationMonths: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'product_id'")
	assert.Contains(t, err.Error(), "is required")
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)

	var valErr *ValidationError
	assert.False(t, errors.As(err, &valErr))
}
