package normalize

import (
	"sort"
	"strings"
	"unicode"

	"receipts/internal/core"
)

// StoreTypeResolver maps merchant names to a store type.
type StoreTypeResolver struct {
	entries []storeEntry
}

type storeEntry struct {
	key       string
	storeType string
}

// NewStoreTypeResolver builds a resolver from merchant name → store type.
// Longer merchant keys are tried first so the most specific prefix wins.
func NewStoreTypeResolver(byMerchant map[string]string) *StoreTypeResolver {
	entries := make([]storeEntry, 0, len(byMerchant))
	for name, st := range byMerchant {
		key := MerchantKey(name)
		st = strings.TrimSpace(st)
		if key == "" || st == "" {
			continue
		}
		entries = append(entries, storeEntry{key: key, storeType: st})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].key) != len(entries[j].key) {
			return len(entries[i].key) > len(entries[j].key)
		}
		return entries[i].key < entries[j].key
	})
	return &StoreTypeResolver{entries: entries}
}

// Resolve tries an exact key match, then a prefix match, then the type the
// record carried itself, then "Other". A nil resolver skips the lookups.
func (r *StoreTypeResolver) Resolve(merchant, fallback string) string {
	if r != nil {
		key := MerchantKey(merchant)
		if key != "" {
			for _, e := range r.entries {
				if e.key == key {
					return e.storeType
				}
			}
			for _, e := range r.entries {
				if strings.HasPrefix(key, e.key) {
					return e.storeType
				}
			}
		}
	}
	if fb := strings.TrimSpace(fallback); fb != "" {
		return fb
	}
	return core.DefaultStore
}

// MerchantKey lower-cases a merchant name and keeps letters and digits only.
func MerchantKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
