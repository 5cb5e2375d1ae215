package domain

import "time"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	Verified  bool      `json:"verified" bson:"verified"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsSeller() bool { return u.Role == RoleSeller }
func (u *User) IsBuyer() bool  { return u.Role == RoleBuyer }

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
