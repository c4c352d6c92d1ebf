package models

// Role is one of the fixed portal roles a user may hold. A user holds a set of
// roles; authority is resolved from the highest-ranked one.
type Role string

const (
	// System administration
	RoleRoot       Role = "root"
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"

	// Management company / council representatives
	RoleComplexChairman       Role = "complex_chairman"
	RoleBuildingChairman      Role = "building_chairman"
	RoleComplexRepresentative Role = "complex_representative"

	// Owners
	RoleApartmentOwner Role = "apartment_owner"
	RoleParkingOwner   Role = "parking_owner"
	RoleStoreOwner     Role = "store_owner"

	// Residents
	RoleApartmentResident   Role = "apartment_resident"
	RoleParkingResident     Role = "parking_resident"
	RoleStoreRepresentative Role = "store_representative"

	// Content
	RoleEditor Role = "editor"

	// Default
	RoleGuest Role = "guest"
)

// Tier is the coarse authority/display bucket derived from a user's
// highest-ranked role.
type Tier string

const (
	TierAdmin      Tier = "admin"
	TierManagement Tier = "management"
	TierOwner      Tier = "owner"
	TierResident   Tier = "resident"
	TierEditor     Tier = "editor"
	TierGuest      Tier = "guest"
)

// priorityUnknown ranks below every catalog role so malformed input can never
// outrank a real one.
const priorityUnknown = 1 << 20

// Priority returns the rank priority of a role. Lower value = higher
// authority. Priorities are unique per role.
//
// The switch must stay exhaustive over the role constants: a role added
// without a priority here falls to the bottom of the hierarchy.
func (r Role) Priority() int {
	switch r {
	case RoleRoot:
		return 10
	case RoleSuperAdmin:
		return 20
	case RoleAdmin:
		return 30
	case RoleModerator:
		return 40
	case RoleComplexChairman:
		return 50
	case RoleBuildingChairman:
		return 60
	case RoleComplexRepresentative:
		return 70
	case RoleApartmentOwner:
		return 80
	case RoleParkingOwner:
		return 90
	case RoleStoreOwner:
		return 100
	case RoleApartmentResident:
		return 110
	case RoleParkingResident:
		return 120
	case RoleStoreRepresentative:
		return 130
	case RoleEditor:
		return 140
	case RoleGuest:
		return 150
	}
	return priorityUnknown
}

// Tier maps every role to exactly one tier.
func (r Role) Tier() Tier {
	switch r {
	case RoleRoot, RoleSuperAdmin, RoleAdmin, RoleModerator:
		return TierAdmin
	case RoleComplexChairman, RoleBuildingChairman, RoleComplexRepresentative:
		return TierManagement
	case RoleApartmentOwner, RoleParkingOwner, RoleStoreOwner:
		return TierOwner
	case RoleApartmentResident, RoleParkingResident, RoleStoreRepresentative:
		return TierResident
	case RoleEditor:
		return TierEditor
	case RoleGuest:
		return TierGuest
	}
	return TierGuest
}

// IsValid reports whether r is one of the catalog roles.
func (r Role) IsValid() bool {
	return r.Priority() != priorityUnknown
}

// AllRoles returns every catalog role in rank order (highest authority first).
func AllRoles() []Role {
	return []Role{
		RoleRoot,
		RoleSuperAdmin,
		RoleAdmin,
		RoleModerator,
		RoleComplexChairman,
		RoleBuildingChairman,
		RoleComplexRepresentative,
		RoleApartmentOwner,
		RoleParkingOwner,
		RoleStoreOwner,
		RoleApartmentResident,
		RoleParkingResident,
		RoleStoreRepresentative,
		RoleEditor,
		RoleGuest,
	}
}

// HighestRank returns the role with the minimum priority in the set.
// An empty set resolves to Guest.
func HighestRank(roles []Role) Role {
	best := RoleGuest
	bestPriority := priorityUnknown
	for _, r := range roles {
		if p := r.Priority(); p < bestPriority {
			best = r
			bestPriority = p
		}
	}
	return best
}

// RankConfig describes how a resolved rank is presented. Display only: it
// carries no authority semantics beyond Tier.
type RankConfig struct {
	Role        Role   `json:"role"`
	Tier        Tier   `json:"tier"`
	Label       string `json:"label"`
	ShortLabel  string `json:"short_label"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// ResolveRankConfig resolves the display configuration for a role set via
// HighestRank.
func ResolveRankConfig(roles []Role) RankConfig {
	return RankConfigOf(HighestRank(roles))
}

// RankConfigOf returns the display configuration of a single role.
func RankConfigOf(r Role) RankConfig {
	switch r {
	case RoleRoot:
		return RankConfig{r, TierAdmin, "Главный администратор", "root", "Полный доступ ко всем функциям портала", "#b71c1c", "shield-star"}
	case RoleSuperAdmin:
		return RankConfig{r, TierAdmin, "Старший администратор", "админ", "Управление администраторами и пользователями", "#c62828", "shield-plus"}
	case RoleAdmin:
		return RankConfig{r, TierAdmin, "Администратор", "админ", "Управление пользователями и контентом", "#d32f2f", "shield"}
	case RoleModerator:
		return RankConfig{r, TierAdmin, "Модератор", "модер", "Модерация публикаций и объявлений", "#e53935", "gavel"}
	case RoleComplexChairman:
		return RankConfig{r, TierManagement, "Председатель совета комплекса", "председатель", "Председатель совета жилого комплекса", "#1565c0", "award"}
	case RoleBuildingChairman:
		return RankConfig{r, TierManagement, "Председатель совета дома", "председатель", "Председатель совета многоквартирного дома", "#1976d2", "award"}
	case RoleComplexRepresentative:
		return RankConfig{r, TierManagement, "Представитель управляющей компании", "УК", "Сотрудник управляющей компании комплекса", "#1e88e5", "briefcase"}
	case RoleApartmentOwner:
		return RankConfig{r, TierOwner, "Собственник квартиры", "собственник", "Подтверждённый собственник квартиры", "#2e7d32", "home"}
	case RoleParkingOwner:
		return RankConfig{r, TierOwner, "Собственник машиноместа", "собственник", "Подтверждённый собственник машиноместа", "#388e3c", "car"}
	case RoleStoreOwner:
		return RankConfig{r, TierOwner, "Собственник помещения", "собственник", "Собственник коммерческого помещения", "#43a047", "store"}
	case RoleApartmentResident:
		return RankConfig{r, TierResident, "Житель", "житель", "Проживает в квартире комплекса", "#00695c", "users"}
	case RoleParkingResident:
		return RankConfig{r, TierResident, "Пользователь паркинга", "житель", "Пользуется машиноместом в комплексе", "#00796b", "car"}
	case RoleStoreRepresentative:
		return RankConfig{r, TierResident, "Представитель арендатора", "арендатор", "Представитель арендатора коммерческого помещения", "#00897b", "store"}
	case RoleEditor:
		return RankConfig{r, TierEditor, "Редактор", "редактор", "Публикует новости и материалы портала", "#6a1b9a", "pen"}
	case RoleGuest:
		return RankConfig{r, TierGuest, "Гость", "гость", "Пользователь без подтверждённой роли", "#757575", "user"}
	}
	return RankConfigOf(RoleGuest)
}

// CanAssignRole reports whether an actor holding actingRoles may grant or
// revoke targetRole on another user. The hierarchy is fixed:
//
//   - Root assigns anything;
//   - SuperAdmin assigns anything except Root;
//   - everyone else (including Admin) assigns only roles outside the
//     Root/SuperAdmin/Admin band.
//
// Pure function of its inputs; the coarse "may open the role editor" check is
// a separate authorization concern handled at the transport layer.
func CanAssignRole(actingRoles []Role, targetRole Role) bool {
	for _, r := range actingRoles {
		if r == RoleRoot {
			return true
		}
	}
	for _, r := range actingRoles {
		if r == RoleSuperAdmin {
			return targetRole != RoleRoot
		}
	}
	switch targetRole {
	case RoleRoot, RoleSuperAdmin, RoleAdmin:
		return false
	}
	return true
}
