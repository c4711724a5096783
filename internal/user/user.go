package user

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        int        `json:"userId"`
	Email     string     `json:"email"`
	Password  string     `json:"password,omitempty"`
	FullName  string     `json:"fullName"`
	Avatar    string     `json:"avatar,omitempty"`
	AvatarKey string     `json:"avatarKey,omitempty"`
	Role      Role       `json:"role"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Customer is a user row as shown in the admin console.
type Customer struct {
	User
	OrderCount int   `json:"orderCount"`
	TotalPaid  int64 `json:"totalPaid"`
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
