package store

import (
	"crypto/sha256"
	"fmt"
)

// ContentHash returns the hex SHA-256 of src. Cache entries are keyed by it.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}

// ScriptsHashKey is the metadata key under which the hash of the outline
// scripts that filled the cache is stored.
const ScriptsHashKey = "scripts_hash"

// ScriptsChanged reports whether current differs from the stored scripts
// hash. A cache with no stored hash counts as changed.
func (s *Store) ScriptsChanged(current string) bool {
	stored, err := s.GetMetadata(ScriptsHashKey)
	if err != nil || stored == "" {
		return true
	}
	return stored != current
}
