package model

// RecipeDefinition maps a sellable item handle/SKU to the raw ingredient
// units it consumes. Double and triple variants encode their patty count
// directly; chicken items carry MeatPatties 0 and still consume a bun.
type RecipeDefinition struct {
	Handle      string
	SKU         string
	MeatPatties int
	Buns        int
}
