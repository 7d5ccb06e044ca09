package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sample-app/internal/validate"
)

var (
	// ErrInvalidEmail indicates an email address that fails the format check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword indicates a password that does not meet the strength rules.
	ErrWeakPassword = errors.New("password does not meet requirements")
	// ErrInvalidZipCode indicates a postal code that does not match its country format.
	ErrInvalidZipCode = errors.New("invalid zip code")
)

// Address is a postal address owned by a single user.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Street, a.City, a.State, a.ZipCode, a.Country)
}

// Profile carries the optional user attributes accepted at registration.
type Profile struct {
	FirstName string
	LastName  string
	IsAdmin   bool
}

// User represents an application user. The password hash is only reachable
// through SetPassword and CheckPassword.
type User struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	IsActive  bool
	IsAdmin   bool
	CreatedAt time.Time
	LastLogin *time.Time

	passwordHash string
	addresses    []Address
}

// NewUser validates the email, hashes the password with the default scheme
// and returns an active user.
func NewUser(username, email, password string, profile Profile) (*User, error) {
	return NewUserWithScheme(username, email, password, profile, SchemeSHA256)
}

// NewUserWithScheme is NewUser with an explicit password hashing scheme.
func NewUserWithScheme(username, email, password string, profile Profile, scheme PasswordScheme) (*User, error) {
	if !validate.Email(email) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	user := &User{
		Username:  username,
		Email:     email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		IsActive:  true,
		IsAdmin:   profile.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := user.SetPasswordWith(scheme, password); err != nil {
		return nil, err
	}
	return user, nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetPassword validates raw and stores its salted SHA-256 hash.
func (u *User) SetPassword(raw string) error {
	return u.SetPasswordWith(SchemeSHA256, raw)
}

// SetPasswordWith validates raw and stores its hash under scheme.
func (u *User) SetPasswordWith(scheme PasswordScheme, raw string) error {
	if !validate.Password(raw) {
		return ErrWeakPassword
	}
	hash, err := HashPassword(scheme, raw)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// CheckPassword reports whether raw matches the stored hash. A user without
// a password never matches.
func (u *User) CheckPassword(raw string) bool {
	if u.passwordHash == "" {
		return false
	}
	return VerifyPassword(u.passwordHash, raw)
}

// HasPassword reports whether a password hash has been set.
func (u *User) HasPassword() bool {
	return u.passwordHash != ""
}

// AddAddress attaches a copy of addr to the user. The country defaults to
// US and the zip code must match the country format.
func (u *User) AddAddress(addr Address) error {
	if addr.Country == "" {
		addr.Country = "US"
	}
	if !validate.ZipCode(addr.ZipCode, addr.Country) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidZipCode, addr.ZipCode, addr.Country)
	}
	u.addresses = append(u.addresses, addr)
	return nil
}

// Addresses returns a copy of the user's addresses.
func (u *User) Addresses() []Address {
	out := make([]Address, len(u.addresses))
	copy(out, u.addresses)
	return out
}

// MarkLogin records a successful login at t.
func (u *User) MarkLogin(t time.Time) {
	u.LastLogin = &t
}
