package entity

import (
	"fmt"
	"math"
	"time"
)

// Role is the account classification returned as userType.
type Role int

const (
	RoleUser Role = iota
	RoleMember
	RoleReseller
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleReseller:
		return "reseller"
	case RoleMember:
		return "member"
	case RoleUser:
		return "user"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps the upstream userType. The API calls resellers "admin".
func ParseRole(userType string) (Role, error) {
	switch userType {
	case "owner":
		return RoleOwner, nil
	case "admin", "reseller":
		return RoleReseller, nil
	case "member":
		return RoleMember, nil
	case "user", "":
		return RoleUser, nil
	default:
		return RoleUser, fmt.Errorf("%w: %q", ErrUnknownRole, userType)
	}
}

// Link is a navigation target shown for a tier.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// PerkTab lists the perks of a purchasable membership.
type PerkTab struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Perks   []string `json:"perks"`
	Upgrade *Link    `json:"upgrade,omitempty"`
}

// TierView is everything the account pages render for a role.
type TierView struct {
	Role           string    `json:"role"`
	Tier           string    `json:"tier"`
	LifetimeAccess bool      `json:"lifetimeAccess"`
	ShowsExpiry    bool      `json:"showsExpiry"`
	Tabs           []PerkTab `json:"tabs"`
	Panel          *Link     `json:"panel,omitempty"`
}

var (
	silverPerks = []string{
		"Cheaper product pricing",
		"Collage / Profile Maker access",
		"ID Rent priority access",
	}
	resellerPerks = []string{
		"Lowest possible prices",
		"Bulk tools & reseller dashboard",
		"Collage / Profile Maker access",
		"Highest priority ID Rent access",
	}
	buySilver       = &Link{Label: "Buy Silver Membership", Href: "/games/membership/silver-membership"}
	buyReseller     = &Link{Label: "Buy Reseller Membership", Href: "/games/membership/reseller-membership"}
	upgradeReseller = &Link{Label: "Upgrade to Reseller", Href: "/games/membership/reseller-membership"}
)

// ResolveTier maps a role to its view. Every Role has its own case.
func ResolveTier(r Role) (TierView, error) {
	switch r {
	case RoleOwner:
		return TierView{
			Role:           r.String(),
			Tier:           "Owner",
			LifetimeAccess: true,
			Panel:          &Link{Label: "Admin Panel", Href: "/owner-panal"},
		}, nil
	case RoleReseller:
		return TierView{
			Role:        r.String(),
			Tier:        "Reseller",
			ShowsExpiry: true,
			Tabs: []PerkTab{
				{Key: "silver", Label: "Silver", Perks: silverPerks},
				{Key: "reseller", Label: "Reseller", Perks: resellerPerks},
			},
			Panel: &Link{Label: "Reseller Panel", Href: "/admin-panal"},
		}, nil
	case RoleMember:
		return TierView{
			Role:        r.String(),
			Tier:        "Silver",
			ShowsExpiry: true,
			Tabs: []PerkTab{
				{Key: "silver", Label: "Silver", Perks: silverPerks, Upgrade: upgradeReseller},
				{Key: "reseller", Label: "Reseller", Perks: resellerPerks, Upgrade: buyReseller},
			},
		}, nil
	case RoleUser:
		return TierView{
			Role: r.String(),
			Tier: "Free User",
			Tabs: []PerkTab{
				{Key: "silver", Label: "Silver", Perks: silverPerks, Upgrade: buySilver},
				{Key: "reseller", Label: "Reseller", Perks: resellerPerks, Upgrade: buyReseller},
			},
		}, nil
	}
	return TierView{}, fmt.Errorf("%w: %s", ErrUnknownRole, r)
}

// DaysLeft is the number of started days until expiry, never negative.
func DaysLeft(expiry, now time.Time) int {
	d := expiry.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
