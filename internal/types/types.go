// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Role is the closed set of profile roles. Non platform-admin profiles always
// belong to a tenant.
type Role string

const (
	RoleTenantAdmin   Role = "TENANT_ADMIN"
	RoleTenantMember  Role = "TENANT_MEMBER"
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTenantAdmin, RoleTenantMember, RolePlatformAdmin:
		return true
	}
	return false
}

// TenantType describes which side of the marketplace a tenant participates on.
type TenantType string

const (
	TenantTypeDemand TenantType = "DEMAND"
	TenantTypeSupply TenantType = "SUPPLY"
	TenantTypeBoth   TenantType = "BOTH"
)

func (t TenantType) Valid() bool {
	switch t {
	case TenantTypeDemand, TenantTypeSupply, TenantTypeBoth:
		return true
	}
	return false
}

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "ACTIVE"
	TenantStatusInactive TenantStatus = "INACTIVE"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive:
		return true
	}
	return false
}

// ListingStatus is a two-state lifecycle, toggled as a pure function of the
// stored value, never of client input.
type ListingStatus string

const (
	ListingStatusPublished ListingStatus = "PUBLISHED"
	ListingStatusStopped   ListingStatus = "STOPPED"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusPublished, ListingStatusStopped:
		return true
	}
	return false
}

func (s ListingStatus) Toggle() ListingStatus {
	if s == ListingStatusPublished {
		return ListingStatusStopped
	}
	return ListingStatusPublished
}

type Tenant struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	Type       TenantType   `db:"tenant_type" json:"tenant_type"`
	Status     TenantStatus `db:"status" json:"status"`
	Prefecture string       `db:"prefecture" json:"prefecture"`
	City       string       `db:"city" json:"city"`
	Phone      string       `db:"phone" json:"phone"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// Profile is the business user record, keyed by the identity provider's
// subject id. Exactly one per subject.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	TenantID  *string   `db:"tenant_id" json:"tenant_id"`
	Active    bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Listing struct {
	ID            string        `db:"id" json:"id"`
	OwnerTenantID string        `db:"owner_tenant_id" json:"owner_tenant_id"`
	Category      string        `db:"category" json:"category"`
	Name          string        `db:"name" json:"name"`
	Manufacturer  string        `db:"manufacturer" json:"manufacturer"`
	Model         string        `db:"model" json:"model"`
	Location      string        `db:"location" json:"location"`
	PriceRental   *int64        `db:"price_rental" json:"price_rental,omitempty"`
	PriceSale     *int64        `db:"price_sale" json:"price_sale,omitempty"`
	Status        ListingStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Session is the read-only projection of an identity provider session.
type Session struct {
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Outcome states which layer of identity resolution succeeded or failed.
// Callers branch on it to render the right remediation, so the states are
// never collapsed.
type Outcome string

const (
	OutcomeNoSession      Outcome = "NO_SESSION"
	OutcomeSessionError   Outcome = "SESSION_ERROR"
	OutcomeProfileMissing Outcome = "PROFILE_MISSING"
	OutcomeProfileError   Outcome = "PROFILE_ERROR"
	OutcomeTenantError    Outcome = "TENANT_ERROR"
	OutcomeResolved       Outcome = "RESOLVED"
)

// ResolvedIdentity is the request-scoped projection of session, profile and
// tenant. It is computed, never persisted.
type ResolvedIdentity struct {
	Outcome Outcome  `json:"outcome"`
	Session *Session `json:"session,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
	Tenant  *Tenant  `json:"tenant,omitempty"`
	Err     string   `json:"error,omitempty"`
}

// Authenticated reports whether the identity provider recognised the caller,
// regardless of whether the business profile resolved.
func (r *ResolvedIdentity) Authenticated() bool {
	switch r.Outcome {
	case OutcomeNoSession, OutcomeSessionError:
		return false
	}
	return true
}

// ActiveTenantMember reports whether the caller is fully resolved, active,
// and belongs to a tenant. This is the precondition for owner mutations.
func (r *ResolvedIdentity) ActiveTenantMember() bool {
	return r.Outcome == OutcomeResolved &&
		r.Profile != nil &&
		r.Profile.Active &&
		r.Profile.TenantID != nil
}
