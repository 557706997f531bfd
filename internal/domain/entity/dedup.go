package entity

import "fmt"

// DedupMode decides which conversations count as "the same" for GetOrCreate.
//
// DedupDirectional keys on the exact (owner, counterpart, listing) triple, so the
// same two users with swapped roles on one listing get two conversations.
// DedupUnordered treats the participant pair as a set.
type DedupMode string

const (
	DedupDirectional DedupMode = "directional"
	DedupUnordered   DedupMode = "unordered"
)

func ParseDedupMode(s string) (DedupMode, error) {
	switch DedupMode(s) {
	case "", DedupDirectional:
		return DedupDirectional, nil
	case DedupUnordered:
		return DedupUnordered, nil
	}
	return "", fmt.Errorf("unknown conversation dedup mode %q", s)
}

type DedupKey struct {
	OwnerID       string
	CounterpartID string
	ListingID     string
}

// Orientations lists the role assignments a lookup has to try under mode.
func (k DedupKey) Orientations(mode DedupMode) []DedupKey {
	if mode == DedupUnordered && k.OwnerID != k.CounterpartID {
		return []DedupKey{k, {OwnerID: k.CounterpartID, CounterpartID: k.OwnerID, ListingID: k.ListingID}}
	}
	return []DedupKey{k}
}

func (k DedupKey) Matches(c *Conversation, mode DedupMode) bool {
	for _, o := range k.Orientations(mode) {
		if c.OwnerID == o.OwnerID && c.CounterpartID == o.CounterpartID && c.ListingID == o.ListingID {
			return true
		}
	}
	return false
}
