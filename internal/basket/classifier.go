// Package basket sorts purchased items into coarse basket groups.
package basket

import "strings"

// Class is one of the four basket composition groups.
type Class string

const (
	Healthy Class = "healthy"
	Snacks  Class = "snacks"
	Alcohol Class = "alcohol"
	Other   Class = "other"
)

// Rule pairs a class with the substrings that select it.
type Rule struct {
	Class    Class
	Keywords []string
}

// Table is an ordered rule list; the first rule with a match wins.
type Table struct {
	Version string
	Rules   []Rule
}

// DefaultTable checks alcohol before snacks before healthy, so "wine" next to
// "fruit" is always alcohol.
var DefaultTable = Table{
	Version: "2025-11",
	Rules: []Rule{
		{Class: Alcohol, Keywords: []string{
			"alcohol", "beer", "wine", "spirit", "vodka", "whisky", "whiskey",
			"rum", "gin", "cider", "lager", "liqueur",
		}},
		{Class: Snacks, Keywords: []string{
			"snack", "chips", "crisps", "sweet", "candy", "chocolate", "dessert",
			"cookie", "biscuit", "cake", "pastry", "cracker",
		}},
		{Class: Healthy, Keywords: []string{
			"fruit", "vegetable", "veggie", "produce", "salad", "grain", "whole",
			"protein", "meat", "fish", "seafood", "egg", "dairy", "yoghurt",
			"yogurt", "milk", "nut", "seed", "legume", "bean",
		}},
	},
}

// Classify uses DefaultTable.
func Classify(mainCategory, subCategory, itemName string) Class {
	return DefaultTable.Classify(mainCategory, subCategory, itemName)
}

// Classify lower-cases the three fields joined by spaces and returns the
// class of the first rule with a substring hit, or Other.
func (t Table) Classify(mainCategory, subCategory, itemName string) Class {
	combined := strings.ToLower(mainCategory + " " + subCategory + " " + itemName)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(combined, kw) {
				return rule.Class
			}
		}
	}
	return Other
}
