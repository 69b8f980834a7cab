// Package models holds the regulatory domain taxonomy.
package models

import (
	"strings"
	"time"

	id "lexaudit/pkg/domain"
)

// Domain is a regulatory theme texts and reviews are filed under, for
// example "Environment" or "Workplace safety".
type Domain struct {
	ID        id.DomainID
	CompanyID id.CompanyID
	Name      string
	CreatedAt time.Time
}

// NewDomain constructs a Domain with a fresh id.
func NewDomain(companyID id.CompanyID, name string, now time.Time) *Domain {
	return &Domain{
		ID:        id.NewDomainID(),
		CompanyID: companyID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
	}
}
