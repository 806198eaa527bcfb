package listing

import (
	"cmp"

	"github.com/vietddude/guildhall/internal/core/domain"
)

const (
	OrderName    Order = "name"
	OrderMembers Order = "members"
	OrderNewest  Order = "newest"
	OrderOldest  Order = "oldest"
)

// GuildOrders are the sort orders offered on the guild index.
func GuildOrders() map[Order]Comparator[domain.Guild] {
	return map[Order]Comparator[domain.Guild]{
		OrderName: ByName[domain.Guild],
		OrderMembers: func(a, b domain.Guild) int {
			return cmp.Compare(b.MemberCount(), a.MemberCount())
		},
		OrderNewest: func(a, b domain.Guild) int {
			return cmp.Compare(b.ID, a.ID)
		},
		OrderOldest: func(a, b domain.Guild) int {
			return cmp.Compare(a.ID, b.ID)
		},
	}
}

// CommunityOrders are the sort orders offered on the community index.
func CommunityOrders() map[Order]Comparator[domain.Community] {
	return map[Order]Comparator[domain.Community]{
		OrderName: ByName[domain.Community],
		OrderMembers: func(a, b domain.Community) int {
			return cmp.Compare(b.MemberCount, a.MemberCount)
		},
	}
}

// NewGuildController creates a controller ordered by member count.
func NewGuildController(guilds []domain.Guild) *Controller[domain.Guild] {
	return NewController(guilds, GuildOrders(), OrderMembers)
}

// NewCommunityController creates a controller ordered by member count.
func NewCommunityController(communities []domain.Community) *Controller[domain.Community] {
	return NewController(communities, CommunityOrders(), OrderMembers)
}
