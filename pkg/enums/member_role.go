package enums

import "fmt"

// MemberRole is the role of a pharmacy staff member on the dashboard.
type MemberRole string

const (
	MemberRolePharmacist MemberRole = "pharmacist"
	MemberRoleManager    MemberRole = "manager"
	MemberRoleAdmin      MemberRole = "admin"
)

var validMemberRoles = []MemberRole{
	MemberRolePharmacist,
	MemberRoleManager,
	MemberRoleAdmin,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// CanManageOrders reports whether the role may move orders through their lifecycle.
func (m MemberRole) CanManageOrders() bool {
	return m.IsValid()
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
