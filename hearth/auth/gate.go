package auth

import "github.com/disgoorg/snowflake/v2"

// PermissionGate decides whether a resolved identity may use the economy.
// Evaluated before any call reaches the core; the core assumes it passed.
type PermissionGate interface {
	Allow(identity *Identity) bool
}

// BanList denies a fixed set of user ids and allows everyone else.
type BanList struct {
	banned map[snowflake.ID]struct{}
}

func NewBanList(ids []snowflake.ID) *BanList {
	banned := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		banned[id] = struct{}{}
	}
	return &BanList{banned: banned}
}

func (b *BanList) Allow(identity *Identity) bool {
	_, found := b.banned[identity.ID]
	return !found
}
