package enums

import "fmt"

// UserRole identifies how an account participates in the marketplace.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleBuyer    UserRole = "buyer"
	UserRoleDelivery UserRole = "delivery"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleBuyer,
	UserRoleDelivery,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsOrderOwner reports whether the role can own pickup orders.
func (u UserRole) IsOrderOwner() bool {
	return u == UserRoleCustomer || u == UserRoleBuyer
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
