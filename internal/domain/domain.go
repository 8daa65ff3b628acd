package domain

import (
	"fmt"
	"time"
)

// DomainType distinguishes the undeletable default domain from
// user-created ones. Every user keeps at least one default domain; it
// can be emptied but never removed.
type DomainType int

const (
	DomainTypeDefault DomainType = 0
	DomainTypeUser    DomainType = 1
)

// Domain is a named, user-owned grouping of files. It is the unit of
// question-answering scope: queries run against the files of the
// user's currently selected domain.
type Domain struct {
	ID        string
	UserID    string
	Name      string
	Type      DomainType
	CreatedAt time.Time
}

// NewDomain creates a new Domain instance
func NewDomain(id, userID, name string, domainType DomainType, createdAt time.Time) *Domain {
	return &Domain{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Type:      domainType,
		CreatedAt: createdAt,
	}
}

// ValidateDomain validates a Domain instance
func ValidateDomain(d *Domain) error {
	if d == nil {
		return fmt.Errorf("domain cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("domain ID is required")
	}

	if d.UserID == "" {
		return fmt.Errorf("domain UserID is required")
	}

	if d.Name == "" {
		return fmt.Errorf("domain Name is required")
	}

	if d.Type != DomainTypeDefault && d.Type != DomainTypeUser {
		return fmt.Errorf("domain Type is invalid: %d", d.Type)
	}

	return nil
}

// DeleteDomainOutcome is the result of a domain deletion attempt.
type DeleteDomainOutcome int

const (
	// DeleteDomainProtected means the caller tried to delete the
	// default domain, which can only be emptied.
	DeleteDomainProtected DeleteDomainOutcome = iota
	// DeleteDomainNotFound means no domain matched.
	DeleteDomainNotFound
	// DeleteDomainDeleted means the domain, its files, and all their
	// content rows were removed.
	DeleteDomainDeleted
)

func (o DeleteDomainOutcome) String() string {
	switch o {
	case DeleteDomainProtected:
		return "protected"
	case DeleteDomainNotFound:
		return "not_found"
	case DeleteDomainDeleted:
		return "deleted"
	}
	return fmt.Sprintf("unknown(%d)", int(o))
}
