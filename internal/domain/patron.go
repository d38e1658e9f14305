package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a patron subscription level. Higher tiers include lower ones.
type Tier string

const (
	TierNone      Tier = "NONE"
	TierSupporter Tier = "SUPPORTER"
	TierSuperfan  Tier = "SUPERFAN"
)

var tierRank = map[Tier]int{TierNone: 0, TierSupporter: 1, TierSuperfan: 2}

func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := tierRank[t]
	return t, ok
}

// Includes reports whether t grants access to content gated at need.
func (t Tier) Includes(need Tier) bool {
	have, ok := tierRank[t]
	if !ok {
		have = 0
	}
	return have >= tierRank[need]
}

type TierInfo struct {
	Tier    Tier            `db:"tier"`
	Name    string          `db:"name"`
	Monthly decimal.Decimal `db:"monthly"`
	Perks   string          `db:"perks"`
}

const (
	PatronActive   = "ACTIVE"
	PatronPastDue  = "PAST_DUE"
	PatronCanceled = "CANCELED"
)

type Patron struct {
	Email     string `db:"email"`
	Tier      Tier   `db:"tier"`
	Status    string `db:"status"`
	PeriodEnd int64  `db:"period_end"`
	UpdatedAt string `db:"updated_at"`
}

// Effective is the tier the patron can use right now.
func (p Patron) Effective(now time.Time) Tier {
	if p.Status != PatronActive || now.Unix() >= p.PeriodEnd {
		return TierNone
	}
	return p.Tier
}
