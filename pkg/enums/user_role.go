package enums

// UserRole controls access to the admin back-office routes.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	return r == UserRoleCustomer || r == UserRoleAdmin
}
