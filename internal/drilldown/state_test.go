package drilldown

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryStateTransitions(t *testing.T) {
	var s CategoryState
	assert.Equal(t, LevelMain, s.Level())

	s = s.Select("Groceries")
	assert.Equal(t, LevelSub, s.Level())
	assert.Equal(t, "Groceries", s.Category())

	s = s.Select("Dairy")
	assert.Equal(t, LevelItem, s.Level())
	assert.Equal(t, "Dairy", s.SubCategory())

	assert.Equal(t, s, s.Select("Milk"), "selection at the leaf is a no-op")

	s = s.Back()
	assert.Equal(t, LevelSub, s.Level())
	assert.Empty(t, s.SubCategory())
	assert.Equal(t, "Groceries", s.Category())

	s = s.Back()
	assert.Equal(t, CategoryState{}, s)
	assert.Equal(t, CategoryState{}, s.Back())
}

func TestCategoryAt(t *testing.T) {
	assert.Equal(t, LevelMain, CategoryAt("", "Dairy").Level())
	assert.Equal(t, LevelSub, CategoryAt("Groceries", "").Level())
	assert.Equal(t, LevelItem, CategoryAt("Groceries", "Dairy").Level())
}

func TestMerchantStateTransitions(t *testing.T) {
	s := MerchantState{}.Select("Tesco").Select("Groceries")
	assert.Equal(t, LevelMerchantSub, s.Level())
	assert.Equal(t, "Tesco", s.Merchant())
	assert.Equal(t, "Groceries", s.Category())

	s = s.Back()
	assert.Equal(t, LevelMerchantCategory, s.Level())
	assert.Empty(t, s.Category())
	assert.Equal(t, LevelMerchant, s.Back().Level())
	assert.Equal(t, MerchantAt("Tesco", "Groceries"), MerchantState{}.Select("Tesco").Select("Groceries"))
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(CategoryAt("Groceries", "Dairy"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"category","level":"item","selectedCategory":"Groceries","selectedSubCategory":"Dairy"}`, string(data))

	data, err = json.Marshal(MerchantState{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"merchant","level":"merchant"}`, string(data))
}
