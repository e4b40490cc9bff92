package account

import "time"

// User is a registered account. Token fields hold SHA-256 digests, never the
// tokens mailed to the user.
type User struct {
	ID                   int64
	Username             string
	PasswordHash         []byte
	Email                string
	Phone                *string
	IsVerified           bool
	IsPhoneVerified      bool
	VerificationToken    *string
	SMSCode              *string
	SMSCodeExpiresAt     *time.Time
	ResetToken           *string
	ResetTokenExpiresAt  *time.Time
	StripeCustomerID     *string
	StripeSubscriptionID *string
	CreatedAt            time.Time
}

// Profile is the client-facing view of a user.
type Profile struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"`
	IsVerified      bool      `json:"isVerified"`
	IsPhoneVerified bool      `json:"isPhoneVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Phone:           u.Phone,
		IsVerified:      u.IsVerified,
		IsPhoneVerified: u.IsPhoneVerified,
		CreatedAt:       u.CreatedAt,
	}
}
