package auth

import "time"

// User is an identity record in the directory. Secrets never live here;
// credentials are stored separately so directory reads cannot leak them.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CIN         string    `json:"cin,omitempty"`
	City        string    `json:"city,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserUpdate carries a partial update. Nil fields are left unchanged. The
// username is deliberately absent: it keys the credential record, so renaming
// would orphan the stored secret.
type UserUpdate struct {
	DisplayName *string
	Email       *string
	Role        *Role
	CIN         *string
	City        *string
	Address     *string
}

// NewUser is the payload for Service.AddUser: a directory record plus the
// initial secret.
type NewUser struct {
	Username    string
	DisplayName string
	Email       string
	Role        Role
	CIN         string
	City        string
	Address     string
	Secret      string
}
