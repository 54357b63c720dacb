// Package config loads and validates engine configuration from Viper.
// Tolerances, thresholds, the recipe table and the payment synonym table are
// all policy, not code: they ship with conservative defaults and can be
// overridden per venue in the config file.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
	"github.com/lastorders/closeout/internal/reconcile"
)

// Config is the fully validated engine configuration for one venue.
type Config struct {
	FieldTolerances      map[string]reconcile.Tolerance
	DatabasePath         string
	Recipes              []model.RecipeDefinition
	CategoryRules        []aggregate.CategoryRule
	PaymentSynonyms      []aggregate.PaymentSynonym
	DefaultTolerance     reconcile.Tolerance
	StockThresholds      reconcile.StockThresholds
	OverUseRatio         decimal.Decimal
	UTCOffset            time.Duration
	BusinessDayStartHour int
	GramsPerPatty        int
}

// raw mirrors the config file layout for unmarshalling.
type raw struct {
	Tolerance struct {
		Fields   map[string]rawTolerance `mapstructure:"fields"`
		Absolute float64                 `mapstructure:"absolute"`
		Relative float64                 `mapstructure:"relative"`
	} `mapstructure:"tolerance"`
	Recipes    []rawRecipe     `mapstructure:"recipes"`
	Categories []rawCategory   `mapstructure:"categories"`
	Payments   []rawSynonym    `mapstructure:"payments"`
	Shift      rawShift        `mapstructure:"shift"`
	Stock      rawStock        `mapstructure:"stock"`
	Database   struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
}

type rawTolerance struct {
	Absolute float64 `mapstructure:"absolute"`
	Relative float64 `mapstructure:"relative"`
}

type rawShift struct {
	StartHour      int `mapstructure:"start_hour"`
	UTCOffsetHours int `mapstructure:"utc_offset_hours"`
}

type rawStock struct {
	BunsThreshold      float64 `mapstructure:"buns_threshold"`
	MeatGramsThreshold float64 `mapstructure:"meat_grams_threshold"`
	DrinksThreshold    float64 `mapstructure:"drinks_threshold"`
	OverUseRatio       float64 `mapstructure:"over_use_ratio"`
	GramsPerPatty      int     `mapstructure:"grams_per_patty"`
}

type rawRecipe struct {
	Handle      string `mapstructure:"handle"`
	SKU         string `mapstructure:"sku"`
	MeatPatties int    `mapstructure:"meat_patties"`
	Buns        int    `mapstructure:"buns"`
}

type rawCategory struct {
	Category string   `mapstructure:"category"`
	Keywords []string `mapstructure:"keywords"`
}

type rawSynonym struct {
	Needle string `mapstructure:"needle"`
	Bucket string `mapstructure:"bucket"`
}

// SetDefaults registers the conservative default values with viper. Call
// before Load so an absent config file still yields a working setup.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("shift.start_hour", 17)
	v.SetDefault("shift.utc_offset_hours", 7)
	v.SetDefault("tolerance.absolute", 50)
	v.SetDefault("tolerance.relative", 0.01)
	v.SetDefault("stock.buns_threshold", 5)
	v.SetDefault("stock.meat_grams_threshold", 500)
	v.SetDefault("stock.drinks_threshold", 2)
	v.SetDefault("stock.over_use_ratio", 1.10)
	v.SetDefault("stock.grams_per_patty", 95)
	v.SetDefault("database.path", "closeout.db")
}

// Load reads and validates the engine configuration from the given viper
// instance. Any malformed value is fatal: silently reconciling against wrong
// thresholds would be worse than failing.
func Load(v *viper.Viper) (*Config, error) {
	var r raw
	if err := v.Unmarshal(&r); err != nil {
		return nil, common.NewConfigError("file", err)
	}

	cfg := &Config{
		BusinessDayStartHour: r.Shift.StartHour,
		UTCOffset:            time.Duration(r.Shift.UTCOffsetHours) * time.Hour,
		DefaultTolerance: reconcile.Tolerance{
			Absolute: decimal.NewFromFloat(r.Tolerance.Absolute),
			Relative: decimal.NewFromFloat(r.Tolerance.Relative),
		},
		StockThresholds: reconcile.StockThresholds{
			Buns:      decimal.NewFromFloat(r.Stock.BunsThreshold),
			MeatGrams: decimal.NewFromFloat(r.Stock.MeatGramsThreshold),
			Drinks:    decimal.NewFromFloat(r.Stock.DrinksThreshold),
		},
		OverUseRatio:  decimal.NewFromFloat(r.Stock.OverUseRatio),
		GramsPerPatty: r.Stock.GramsPerPatty,
		DatabasePath:  r.Database.Path,
	}

	if err := validateTolerance("tolerance", r.Tolerance.Absolute, r.Tolerance.Relative); err != nil {
		return nil, err
	}

	if len(r.Tolerance.Fields) > 0 {
		cfg.FieldTolerances = make(map[string]reconcile.Tolerance, len(r.Tolerance.Fields))
		for field, t := range r.Tolerance.Fields {
			if err := validateTolerance("tolerance.fields."+field, t.Absolute, t.Relative); err != nil {
				return nil, err
			}
			cfg.FieldTolerances[field] = reconcile.Tolerance{
				Absolute: decimal.NewFromFloat(t.Absolute),
				Relative: decimal.NewFromFloat(t.Relative),
			}
		}
	}

	if r.Stock.BunsThreshold < 0 || r.Stock.MeatGramsThreshold < 0 || r.Stock.DrinksThreshold < 0 {
		return nil, common.NewConfigError("stock", fmt.Errorf("thresholds must not be negative"))
	}
	if r.Stock.OverUseRatio < 1 {
		return nil, common.NewConfigError("stock.over_use_ratio",
			fmt.Errorf("ratio %v below 1 would flag normal usage", r.Stock.OverUseRatio))
	}
	if r.Stock.GramsPerPatty <= 0 {
		return nil, common.NewConfigError("stock.grams_per_patty",
			fmt.Errorf("portion weight must be positive"))
	}

	for i, rec := range r.Recipes {
		if rec.Handle == "" && rec.SKU == "" {
			return nil, common.NewConfigError(fmt.Sprintf("recipes[%d]", i),
				fmt.Errorf("recipe needs a handle or a SKU"))
		}
		if rec.MeatPatties < 0 || rec.Buns < 0 {
			return nil, common.NewConfigError(fmt.Sprintf("recipes[%d]", i),
				fmt.Errorf("ingredient counts must not be negative"))
		}
		cfg.Recipes = append(cfg.Recipes, model.RecipeDefinition{
			Handle:      rec.Handle,
			SKU:         rec.SKU,
			MeatPatties: rec.MeatPatties,
			Buns:        rec.Buns,
		})
	}

	for i, cat := range r.Categories {
		category, err := parseCategory(cat.Category)
		if err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("categories[%d]", i), err)
		}
		if len(cat.Keywords) == 0 {
			return nil, common.NewConfigError(fmt.Sprintf("categories[%d]", i),
				fmt.Errorf("rule has no keywords"))
		}
		cfg.CategoryRules = append(cfg.CategoryRules, aggregate.CategoryRule{
			Category: category,
			Keywords: cat.Keywords,
		})
	}

	for i, syn := range r.Payments {
		bucket, err := parseBucket(syn.Bucket)
		if err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("payments[%d]", i), err)
		}
		if syn.Needle == "" {
			return nil, common.NewConfigError(fmt.Sprintf("payments[%d]", i),
				fmt.Errorf("synonym has no needle"))
		}
		cfg.PaymentSynonyms = append(cfg.PaymentSynonyms, aggregate.PaymentSynonym{
			Needle: syn.Needle,
			Bucket: bucket,
		})
	}

	return cfg, nil
}

func validateTolerance(field string, absolute, relative float64) error {
	if absolute < 0 {
		return common.NewConfigError(field, fmt.Errorf("absolute tolerance must not be negative"))
	}
	if relative < 0 || relative > 1 {
		return common.NewConfigError(field, fmt.Errorf("relative tolerance must be between 0 and 1"))
	}
	return nil
}

func parseCategory(s string) (model.Category, error) {
	switch model.Category(s) {
	case model.CategoryBurger, model.CategoryDrink, model.CategorySide,
		model.CategoryExtra, model.CategoryOther:
		return model.Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func parseBucket(s string) (model.PaymentBucket, error) {
	for _, b := range model.PaymentBucketOrder {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown payment bucket %q", s)
}
