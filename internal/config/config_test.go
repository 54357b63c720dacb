package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, 17, cfg.BusinessDayStartHour)
	assert.Equal(t, 7*time.Hour, cfg.UTCOffset)
	assert.True(t, cfg.DefaultTolerance.Absolute.Equal(decimalFromFloat(50)))
	assert.True(t, cfg.DefaultTolerance.Relative.Equal(decimalFromFloat(0.01)))
	assert.True(t, cfg.StockThresholds.Buns.Equal(decimalFromFloat(5)))
	assert.True(t, cfg.StockThresholds.MeatGrams.Equal(decimalFromFloat(500)))
	assert.True(t, cfg.StockThresholds.Drinks.Equal(decimalFromFloat(2)))
	assert.True(t, cfg.OverUseRatio.Equal(decimalFromFloat(1.10)))
	assert.Equal(t, 95, cfg.GramsPerPatty)
	assert.Equal(t, "closeout.db", cfg.DatabasePath)
	assert.Empty(t, cfg.Recipes)
	assert.Empty(t, cfg.CategoryRules)
}

func TestLoadOverrides(t *testing.T) {
	v := newViper(map[string]any{
		"shift.start_hour":       18,
		"shift.utc_offset_hours": 0,
		"tolerance.absolute":     100.0,
		"tolerance.fields": map[string]any{
			"Grab": map[string]any{"absolute": 500.0, "relative": 0.05},
		},
		"recipes": []map[string]any{
			{"handle": "house special", "sku": "9001", "meat_patties": 2, "buns": 1},
		},
		"categories": []map[string]any{
			{"category": "DRINK", "keywords": []string{"slushie"}},
		},
		"payments": []map[string]any{
			{"needle": "linepay", "bucket": "QR"},
		},
	})

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 18, cfg.BusinessDayStartHour)
	assert.Equal(t, time.Duration(0), cfg.UTCOffset)
	assert.True(t, cfg.DefaultTolerance.Absolute.Equal(decimalFromFloat(100)))

	require.Contains(t, cfg.FieldTolerances, "Grab")
	assert.True(t, cfg.FieldTolerances["Grab"].Absolute.Equal(decimalFromFloat(500)))

	require.Len(t, cfg.Recipes, 1)
	assert.Equal(t, "house special", cfg.Recipes[0].Handle)
	assert.Equal(t, 2, cfg.Recipes[0].MeatPatties)

	require.Len(t, cfg.CategoryRules, 1)
	assert.Equal(t, model.CategoryDrink, cfg.CategoryRules[0].Category)

	require.Len(t, cfg.PaymentSynonyms, 1)
	assert.Equal(t, model.PaymentQR, cfg.PaymentSynonyms[0].Bucket)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{
			name:      "negative absolute tolerance",
			overrides: map[string]any{"tolerance.absolute": -1.0},
		},
		{
			name:      "relative tolerance above one",
			overrides: map[string]any{"tolerance.relative": 1.5},
		},
		{
			name:      "negative stock threshold",
			overrides: map[string]any{"stock.buns_threshold": -5.0},
		},
		{
			name:      "over-use ratio below one",
			overrides: map[string]any{"stock.over_use_ratio": 0.9},
		},
		{
			name:      "zero grams per patty",
			overrides: map[string]any{"stock.grams_per_patty": 0},
		},
		{
			name: "recipe without handle or sku",
			overrides: map[string]any{
				"recipes": []map[string]any{{"meat_patties": 1, "buns": 1}},
			},
		},
		{
			name: "recipe with negative patties",
			overrides: map[string]any{
				"recipes": []map[string]any{{"handle": "x", "meat_patties": -1}},
			},
		},
		{
			name: "unknown category",
			overrides: map[string]any{
				"categories": []map[string]any{{"category": "DESSERT", "keywords": []string{"cake"}}},
			},
		},
		{
			name: "category rule without keywords",
			overrides: map[string]any{
				"categories": []map[string]any{{"category": "DRINK"}},
			},
		},
		{
			name: "unknown payment bucket",
			overrides: map[string]any{
				"payments": []map[string]any{{"needle": "x", "bucket": "Bitcoin"}},
			},
		},
		{
			name: "payment synonym without needle",
			overrides: map[string]any{
				"payments": []map[string]any{{"bucket": "QR"}},
			},
		},
		{
			name: "bad per-field tolerance",
			overrides: map[string]any{
				"tolerance.fields": map[string]any{
					"Cash": map[string]any{"absolute": -10.0},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(tt.overrides))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}
