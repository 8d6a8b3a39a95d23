package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/goccy/go-json"
)

// Key identifies one cached analytics response.
type Key struct {
	Endpoint string
	Hash     string
}

// String converts the structured key into the string used in Redis/map.
func (k Key) String() string {
	// <ENDPOINT>:<HASH_HEX>
	return k.Endpoint + ":" + k.Hash
}

// BuildKey hashes the JSON encoding of params under endpoint.
//
// params should be a struct holding already-normalized parameters (defaults
// applied). Struct fields encode in declaration order and map keys are sorted,
// so equal content always yields an equal key.
func BuildKey(endpoint string, params any) (Key, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return Key{}, err
	}

	sum := sha256.Sum256(body)

	return Key{
		Endpoint: strings.TrimSpace(endpoint),
		Hash:     hex.EncodeToString(sum[:16]),
	}, nil
}

// parseKey splits a Key.String() back into its parts.
func parseKey(key string) (Key, bool) {
	endpoint, hash, ok := strings.Cut(key, ":")
	if !ok || endpoint == "" || hash == "" {
		return Key{}, false
	}
	return Key{Endpoint: endpoint, Hash: hash}, true
}
