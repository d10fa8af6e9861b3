package rbac

// Permissions
const (
	// granted to any authenticated user
	PermissionListProjects   = "project:list"
	PermissionCreateProject  = "project:create"
	PermissionEditMembership = "project:members"
	PermissionListUsers      = "user:list"
	PermissionManageTasks    = "task:manage"   // further scoped to team membership
	PermissionManageUpdates  = "update:manage" // further scoped to the author

	// sensitive operations
	PermissionManageProject = "project:manage" // read/update/delete a single project
)

// Roles
const (
	RoleUser      = "user"
	RoleStaff     = "staff"
	RoleSuperuser = "superuser"
)

var userPermissions = []string{
	PermissionListProjects,
	PermissionCreateProject,
	PermissionEditMembership,
	PermissionListUsers,
	PermissionManageTasks,
	PermissionManageUpdates,
}

// permissions granted to each role
var rolePermissions = map[string][]string{
	RoleUser:      userPermissions,
	RoleStaff:     userPermissions,
	RoleSuperuser: append(append([]string{}, userPermissions...), PermissionManageProject),
}

// Policy names the visibility rule a query runs under, so that "everyone can
// see it" is an explicit decision rather than a missing filter.
type Policy string

const (
	// PolicyVisibleToAllAuthenticated: any authenticated caller sees every row.
	PolicyVisibleToAllAuthenticated Policy = "visible_to_all_authenticated"
	// PolicyTeamMembersOnly: rows are visible only to team members of the owning project.
	PolicyTeamMembersOnly Policy = "team_members_only"
	// PolicyAuthorOnly: rows are visible only to the user who wrote them.
	PolicyAuthorOnly Policy = "author_only"
	// PolicySuperuserOnly: rows are visible only to superusers; others get "not found".
	PolicySuperuserOnly Policy = "superuser_only"
)

// Subject is the authenticated caller as seen by the permission checks.
type Subject struct {
	UserID      int64
	IsSuperuser bool
	IsStaff     bool
}

// GetUserRole derives the role from the user's flags.
func GetUserRole(s Subject) string {
	switch {
	case s.IsSuperuser:
		return RoleSuperuser
	case s.IsStaff:
		return RoleStaff
	default:
		return RoleUser
	}
}

// HasPermission reports whether s holds permission.
func HasPermission(s Subject, permission string) bool {
	permissions, ok := rolePermissions[GetUserRole(s)]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission is HasPermission returning a *PermissionDeniedError.
func CheckPermission(s Subject, permission string) error {
	if !HasPermission(s, permission) {
		return &PermissionDeniedError{
			UserID:     s.UserID,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError reports a missing permission.
type PermissionDeniedError struct {
	UserID     int64
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}

// Relation describes a row relative to the subject asking for it.
type Relation struct {
	IsTeamMember bool
	IsAuthor     bool
}

// Allows reports whether s may see a row with relation rel under the policy.
func (p Policy) Allows(s Subject, rel Relation) bool {
	switch p {
	case PolicyVisibleToAllAuthenticated:
		return s.UserID != 0
	case PolicyTeamMembersOnly:
		return rel.IsTeamMember
	case PolicyAuthorOnly:
		return rel.IsAuthor
	case PolicySuperuserOnly:
		return s.IsSuperuser
	default:
		return false
	}
}
