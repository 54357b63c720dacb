package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lastorders/closeout/internal/cli"
	"github.com/lastorders/closeout/internal/usage"
)

func recipesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "Show the effective recipe table",
		Long: `Show the recipe table used for ingredient usage estimation.

Recipes are matched in order, most specific first; items that match nothing
fall back to a name-based guess and are annotated on the report.`,
		RunE: runRecipes,
	}
}

func runRecipes(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	recipes := cfg.Recipes
	source := "config"
	if len(recipes) == 0 {
		recipes = usage.DefaultRecipes
		source = "built-in"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-28s %-8s %8s %6s\n", "Handle", "SKU", "Patties", "Buns"))
	for _, r := range recipes {
		b.WriteString(fmt.Sprintf("%-28s %-8s %8d %6d\n", r.Handle, r.SKU, r.MeatPatties, r.Buns))
	}
	b.WriteString(fmt.Sprintf("\n%d recipes (%s), %dg of meat per patty",
		len(recipes), source, cfg.GramsPerPatty))

	fmt.Println(cli.RenderBox("Recipe Table", b.String()))
	return nil
}
