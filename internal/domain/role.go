package domain

import (
	"sort"
	"strings"
	"time"
)

type Feature string
type Action string

const (
	FeatureTour    Feature = "tour"
	FeatureHotel   Feature = "hotel"
	FeatureVoucher Feature = "voucher"
	FeatureOrder   Feature = "order"
	FeatureUser    Feature = "user"
	FeatureRole    Feature = "role"
	FeatureAccount Feature = "account"
)

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Features and Actions are listed in the order the admin grid displays them.
var (
	Features = []Feature{FeatureTour, FeatureHotel, FeatureVoucher, FeatureOrder, FeatureUser, FeatureRole, FeatureAccount}
	Actions  = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}
)

// Permission builds the "<feature>_<action>" capability string.
func Permission(f Feature, a Action) string {
	return string(f) + "_" + string(a)
}

// AllPermissions lists every permission in the catalogue.
func AllPermissions() []string {
	out := make([]string, 0, len(Features)*len(Actions))
	for _, f := range Features {
		for _, a := range Actions {
			out = append(out, Permission(f, a))
		}
	}
	sort.Strings(out)
	return out
}

func IsKnownPermission(p string) bool {
	i := strings.LastIndexByte(p, '_')
	if i <= 0 {
		return false
	}
	f, a := Feature(p[:i]), Action(p[i+1:])
	return containsFeature(f) && containsAction(a)
}

func containsFeature(f Feature) bool {
	for _, x := range Features {
		if x == f {
			return true
		}
	}
	return false
}

func containsAction(a Action) bool {
	for _, x := range Actions {
		if x == a {
			return true
		}
	}
	return false
}

// NormalizePermissions trims, dedupes and sorts a permission list and rejects
// strings outside the catalogue.
func NormalizePermissions(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !IsKnownPermission(p) {
			return nil, Invalid("unknown permission %q", p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

type Role struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	Deleted     bool      `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Role) Has(p string) bool {
	if r == nil {
		return false
	}
	for _, x := range r.Permissions {
		if x == p {
			return true
		}
	}
	return false
}

type RoleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// RolePermissions is one entry of the flat PATCH /roles/permissions body.
type RolePermissions struct {
	ID          int64    `json:"id"`
	Permissions []string `json:"permissions"`
}

type GridRole struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// GridRow is one feature/action line of the delegation screen; Granted is
// keyed by role id.
type GridRow struct {
	Feature    Feature        `json:"feature"`
	Action     Action         `json:"action"`
	Permission string         `json:"permission"`
	Granted    map[int64]bool `json:"granted"`
}

// PermissionGrid is the feature × role × action boolean matrix.
type PermissionGrid struct {
	Roles []GridRole `json:"roles"`
	Rows  []GridRow  `json:"rows"`
}

func BuildGrid(roles []*Role) *PermissionGrid {
	g := &PermissionGrid{
		Roles: make([]GridRole, 0, len(roles)),
		Rows:  make([]GridRow, 0, len(Features)*len(Actions)),
	}
	for _, r := range roles {
		g.Roles = append(g.Roles, GridRole{ID: r.ID, Title: r.Title})
	}
	for _, f := range Features {
		for _, a := range Actions {
			p := Permission(f, a)
			row := GridRow{Feature: f, Action: a, Permission: p, Granted: make(map[int64]bool, len(roles))}
			for _, r := range roles {
				row.Granted[r.ID] = r.Has(p)
			}
			g.Rows = append(g.Rows, row)
		}
	}
	return g
}

// Set toggles one cell. Unknown rows are ignored.
func (g *PermissionGrid) Set(roleID int64, f Feature, a Action, on bool) {
	for i := range g.Rows {
		if g.Rows[i].Feature == f && g.Rows[i].Action == a {
			if g.Rows[i].Granted == nil {
				g.Rows[i].Granted = map[int64]bool{}
			}
			g.Rows[i].Granted[roleID] = on
			return
		}
	}
}

// Flatten turns the grid back into one permission list per role, holding
// exactly the checked cells.
func (g *PermissionGrid) Flatten() ([]RolePermissions, error) {
	keys := make([]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		keys = append(keys, Permission(row.Feature, row.Action))
	}
	if _, err := NormalizePermissions(keys); err != nil {
		return nil, err
	}

	out := make([]RolePermissions, 0, len(g.Roles))
	for _, r := range g.Roles {
		granted := []string{}
		for i, row := range g.Rows {
			if row.Granted[r.ID] {
				granted = append(granted, keys[i])
			}
		}
		perms, err := NormalizePermissions(granted)
		if err != nil {
			return nil, err
		}
		out = append(out, RolePermissions{ID: r.ID, Permissions: perms})
	}
	return out, nil
}
