package auth

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LegacyAccountID is the identifier assigned to a token set loaded from a
// legacy single-account document.
const LegacyAccountID = "default"

// registry is the full persisted credential state. It round-trips as a
// single JSON document; there are no partial updates.
type registry struct {
	Accounts      map[string]*TokenSet `json:"accounts"`
	ActiveAccount string               `json:"active_account,omitempty"`
}

// newRegistry returns an empty registry.
func newRegistry() *registry {
	return &registry{Accounts: make(map[string]*TokenSet)}
}

// decodeRegistry parses a stored document. Two shapes are recognised: the
// current multi-account form and the legacy single-TokenSet form, which is
// normalised here once so no other operation has to special-case it.
func decodeRegistry(data []byte) (*registry, error) {
	var reg registry
	if err := json.Unmarshal(data, &reg); err == nil && reg.Accounts != nil {
		return &reg, nil
	}

	var legacy TokenSet
	if err := json.Unmarshal(data, &legacy); err != nil || legacy.AccessToken == "" {
		return nil, fmt.Errorf("unrecognised token store document")
	}

	return &registry{
		Accounts:      map[string]*TokenSet{LegacyAccountID: &legacy},
		ActiveAccount: LegacyAccountID,
	}, nil
}

// accountIDs returns the registered identifiers in sorted order.
func (r *registry) accountIDs() []string {
	ids := make([]string, 0, len(r.Accounts))
	for id := range r.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// activeTokenSet resolves the active account's tokens. Returns empty
// values when no account is registered or the active reference dangles.
func (r *registry) activeTokenSet() (string, *TokenSet) {
	if r.ActiveAccount == "" {
		return "", nil
	}
	ts, ok := r.Accounts[r.ActiveAccount]
	if !ok {
		return "", nil
	}
	return r.ActiveAccount, ts
}
