// Package drilldown navigates the category and merchant hierarchies produced
// by analytics.Aggregate.
//
// States are immutable values with unexported fields. A selection can only
// move one level deeper and Back only pops one level, so a state never names
// a sub-category without its parent.
package drilldown

import "encoding/json"

type (
	CategoryLevel string
	MerchantLevel string
)

const (
	LevelMain CategoryLevel = "main"
	LevelSub  CategoryLevel = "sub"
	LevelItem CategoryLevel = "item"

	LevelMerchant         MerchantLevel = "merchant"
	LevelMerchantCategory MerchantLevel = "category"
	LevelMerchantSub      MerchantLevel = "sub"
)

// CategoryState is the position in the category → sub-category → item tree.
// The zero value is the top level.
type CategoryState struct {
	level    CategoryLevel
	category string
	sub      string
}

// CategoryAt builds the deepest state the given selections allow.
// A sub-category without a category is ignored.
func CategoryAt(category, sub string) CategoryState {
	s := CategoryState{}
	if category == "" {
		return s
	}
	s = s.Select(category)
	if sub != "" {
		s = s.Select(sub)
	}
	return s
}

func (s CategoryState) Level() CategoryLevel {
	if s.level == "" {
		return LevelMain
	}
	return s.level
}

func (s CategoryState) Category() string    { return s.category }
func (s CategoryState) SubCategory() string { return s.sub }

// Select descends one level into name. At the item level it is a no-op.
func (s CategoryState) Select(name string) CategoryState {
	if name == "" {
		return s
	}
	switch s.Level() {
	case LevelMain:
		return CategoryState{level: LevelSub, category: name}
	case LevelSub:
		return CategoryState{level: LevelItem, category: s.category, sub: name}
	default:
		return s
	}
}

// Back pops one level and clears the deeper selection.
func (s CategoryState) Back() CategoryState {
	switch s.Level() {
	case LevelItem:
		return CategoryState{level: LevelSub, category: s.category}
	default:
		return CategoryState{}
	}
}

func (s CategoryState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind                string        `json:"kind"`
		Level               CategoryLevel `json:"level"`
		SelectedCategory    string        `json:"selectedCategory,omitempty"`
		SelectedSubCategory string        `json:"selectedSubCategory,omitempty"`
	}{"category", s.Level(), s.category, s.sub})
}

// MerchantState is the position in the merchant → category → sub-category
// tree. The zero value is the top level.
type MerchantState struct {
	level    MerchantLevel
	merchant string
	category string
}

// MerchantAt builds the deepest state the given selections allow.
func MerchantAt(merchant, category string) MerchantState {
	s := MerchantState{}
	if merchant == "" {
		return s
	}
	s = s.Select(merchant)
	if category != "" {
		s = s.Select(category)
	}
	return s
}

func (s MerchantState) Level() MerchantLevel {
	if s.level == "" {
		return LevelMerchant
	}
	return s.level
}

func (s MerchantState) Merchant() string { return s.merchant }
func (s MerchantState) Category() string { return s.category }

// Select descends one level into name. At the sub-category level it is a no-op.
func (s MerchantState) Select(name string) MerchantState {
	if name == "" {
		return s
	}
	switch s.Level() {
	case LevelMerchant:
		return MerchantState{level: LevelMerchantCategory, merchant: name}
	case LevelMerchantCategory:
		return MerchantState{level: LevelMerchantSub, merchant: s.merchant, category: name}
	default:
		return s
	}
}

// Back pops one level and clears the deeper selection.
func (s MerchantState) Back() MerchantState {
	switch s.Level() {
	case LevelMerchantSub:
		return MerchantState{level: LevelMerchantCategory, merchant: s.merchant}
	default:
		return MerchantState{}
	}
}

func (s MerchantState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind             string        `json:"kind"`
		Level            MerchantLevel `json:"level"`
		SelectedMerchant string        `json:"selectedMerchant,omitempty"`
		SelectedCategory string        `json:"selectedCategory,omitempty"`
	}{"merchant", s.Level(), s.merchant, s.category})
}
