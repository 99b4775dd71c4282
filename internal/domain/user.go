package domain

const (
	RoleCustomer = "cliente"
	RoleAdmin    = "admin"
)

type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Role    string `json:"role"`
	Hash    string `json:"password_hash,omitempty"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Public strips the password hash.
func (u User) Public() User {
	u.Hash = ""
	return u
}
