package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	FullName    string    `json:"full_name"`
	Phone       *string   `json:"phone,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	University  *string   `json:"university,omitempty"`   // student
	CompanyName *string   `json:"company_name,omitempty"` // business
	AgencyName  *string   `json:"agency_name,omitempty"`  // agent
	UpdatedAt   time.Time `json:"updated_at"`
}

// Credential is a locally stored password identity.
type Credential struct {
	UID          string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
