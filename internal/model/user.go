package model

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Areas lists the Kuwait governorates a member can register under.
var Areas = []string{
	"Capital",
	"Hawalli",
	"Farwaniya",
	"Ahmadi",
	"Jahra",
	"Mubarak Al-Kabeer",
}

// ValidArea reports whether area is one of the known governorates.
func ValidArea(area string) bool {
	for _, a := range Areas {
		if a == area {
			return true
		}
	}
	return false
}

// User represents a registered member. Phone is the canonical phone
// number (country code digits followed by local digits, no separators)
// and is the unique key of the users collection. The struct doubles as
// the persisted record, so PasswordHash is serialized; handlers must
// never return a User directly in a response body.
type User struct {
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	Area         string `json:"area"`
	PasswordHash string `json:"password"`
	Points       int    `json:"points"`
	Role         string `json:"role,omitempty"`
}

// LeaderboardEntry is the public projection of a User for ranking views.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Area   string `json:"area"`
	Points int    `json:"points"`
}

// SignupRequest is the payload for creating a new account.
type SignupRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
	Area        string `json:"area" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest carries a password reset.
type ResetPasswordRequest struct {
	Phone       string `json:"phone" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}
