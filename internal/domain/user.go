package domain

import (
	"fmt"
	"time"
)

// Tier represents a user's subscription level
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Quota ceilings per tier. A question limit of 0 means unlimited.
const (
	FreeFileLimit    = 10
	PremiumFileLimit = 100

	FreeDomainLimit    = 3
	PremiumDomainLimit = 10

	FreeQuestionLimit    = 25
	PremiumQuestionLimit = 0
)

// FileLimit returns the total-file ceiling for the tier
func (t Tier) FileLimit() int {
	if t == TierPremium {
		return PremiumFileLimit
	}
	return FreeFileLimit
}

// DomainLimit returns the domain-count ceiling for the tier
func (t Tier) DomainLimit() int {
	if t == TierPremium {
		return PremiumDomainLimit
	}
	return FreeDomainLimit
}

// QuestionLimit returns the rolling-24h question ceiling for the tier.
// Zero means no ceiling.
func (t Tier) QuestionLimit() int {
	if t == TierPremium {
		return PremiumQuestionLimit
	}
	return FreeQuestionLimit
}

// User represents an account in the system
type User struct {
	ID         string
	Name       string
	Surname    string
	Email      string
	Tier       Tier
	PictureURL string
	CreatedAt  time.Time
}

// NewUser creates a new User instance on the free tier
func NewUser(id, name, surname, email string, createdAt time.Time) *User {
	return &User{
		ID:        id,
		Name:      name,
		Surname:   surname,
		Email:     email,
		Tier:      TierFree,
		CreatedAt: createdAt,
	}
}

// ValidateUser validates a User instance
func ValidateUser(u *User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if u.Email == "" {
		return fmt.Errorf("user Email is required")
	}

	if !isValidTier(u.Tier) {
		return fmt.Errorf("user Tier is invalid: %s", u.Tier)
	}

	return nil
}

// isValidTier checks if a Tier is valid
func isValidTier(t Tier) bool {
	switch t {
	case TierFree, TierPremium:
		return true
	}
	return false
}
