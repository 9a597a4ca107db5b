// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Medium is the kind of a third-party identifier.
type Medium string

const (
	MediumEmail Medium = "email"
	MediumPhone Medium = "msisdn"
)

// Valid reports whether m is a supported medium.
func (m Medium) Valid() bool { return m == MediumEmail || m == MediumPhone }

// SharedState is the binding state of a Pid against the configured identity server.
type SharedState string

const (
	NotShared            SharedState = "not_shared"              // never submitted
	NotVerifiedForBind   SharedState = "not_verified_for_bind"   // bind submitted, awaiting verification
	NotVerifiedForUnbind SharedState = "not_verified_for_unbind" // unbind submitted, awaiting verification
	Shared               SharedState = "shared"                  // bound to the identity server
)

// Valid reports whether s is one of the known states.
func (s SharedState) Valid() bool {
	switch s {
	case NotShared, NotVerifiedForBind, NotVerifiedForUnbind, Shared:
		return true
	}
	return false
}

// Pending reports whether s waits for out-of-band verification.
func (s SharedState) Pending() bool {
	return s == NotVerifiedForBind || s == NotVerifiedForUnbind
}

// PidKey identifies a Pid within one account.
type PidKey struct {
	Medium  Medium
	Address string
}

// NormalizeKey lower-cases the medium and trims both fields. ok is false for an unknown
// medium or an empty address.
func NormalizeKey(medium, address string) (PidKey, bool) {
	k := PidKey{
		Medium:  Medium(strings.ToLower(strings.TrimSpace(medium))),
		Address: strings.TrimSpace(address),
	}
	return k, k.Medium.Valid() && k.Address != ""
}

// Pid is a third-party identifier (email address or phone number) attached to an account.
type Pid struct {
	Medium  Medium
	Address string
	State   SharedState
}

// Key returns the registry key of p.
func (p Pid) Key() PidKey { return PidKey{Medium: p.Medium, Address: p.Address} }

// Account is the owner of a discovery configuration.
type Account struct {
	ID          uuid.UUID
	Homeserver  string // homeserver base URL
	AccessToken string // homeserver access token used for bind/unbind
}

// Settings is the persisted discovery configuration of an account.
type Settings struct {
	Account
	IdentityServer string // "" when disconnected
	Pids           []Pid
}

// BindStatus is the result of a bind/unbind call against the servers.
type BindStatus int

const (
	// BindPending means the server waits for out-of-band verification.
	BindPending BindStatus = iota
	// BindConfirmed means the server applied the change.
	BindConfirmed
)

func (s BindStatus) String() string {
	if s == BindConfirmed {
		return "confirmed"
	}
	return "pending"
}

// BindSession is the identity-server validation session behind a pending bind.
type BindSession struct {
	Sid          string    `json:"sid"`
	ClientSecret string    `json:"client_secret"`
	SendAttempt  int       `json:"send_attempt"`
	Server       string    `json:"server"`
	CreatedAt    time.Time `json:"created_at"`
}

// VerificationEvent is an externally pushed notice that a pending Pid may have been verified.
type VerificationEvent struct {
	AccountID uuid.UUID
	Medium    Medium
	Address   string
	Bind      bool
}

// ReconcileResult reports the outcome of re-checking one pending Pid.
type ReconcileResult struct {
	Pid Pid   // state after the re-check
	Err error // non-fatal; the Pid stays pending
}

// DiscoveryView is what the discovery screen renders for one account.
type DiscoveryView struct {
	Settings
	Change    ChangeServerState
	Listening bool
}
