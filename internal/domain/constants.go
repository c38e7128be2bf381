package domain

// Trip member roles
const (
	RoleAdmin       = "ADMIN"
	RoleEditor      = "EDITOR"
	RoleContributor = "CONTRIBUTOR"
	RoleViewer      = "VIEWER"
)

var memberRoles = map[string]struct{}{
	RoleAdmin:       {},
	RoleEditor:      {},
	RoleContributor: {},
	RoleViewer:      {},
}

func ValidMemberRole(role string) bool {
	_, ok := memberRoles[role]
	return ok
}

// CanManageFocusSessions is the single capability check for starting and
// ending focus sessions.
func CanManageFocusSessions(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}

// CanEditItinerary gates itinerary writes; viewers are read-only.
func CanEditItinerary(role string) bool {
	return role != RoleViewer && ValidMemberRole(role)
}

// CanManageMembers gates membership changes.
func CanManageMembers(role string) bool {
	return role == RoleAdmin
}

// Survey field types
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldRadio    = "radio"
	FieldCheckbox = "checkbox"
	FieldRating   = "rating"
)

// Audit actions
const (
	AuditLogin        = "auth.login"
	AuditRegister     = "auth.register"
	AuditLogout       = "auth.logout"
	AuditGoogleLogin  = "auth.google"
	AuditFocusStart   = "focus.start"
	AuditFocusEnd     = "focus.end"
	AuditFocusDenied  = "focus.denied"
	AuditMemberChange = "trip.member_change"
)
