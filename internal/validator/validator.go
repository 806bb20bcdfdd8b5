package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidKind     = errors.New("invalid listing kind")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidCoords   = errors.New("invalid coordinates")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

var listingKinds = map[string]bool{
	"abandoned": true,
	"donation":  true,
	"product":   true,
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateListingKind(kind string) error {
	if !listingKinds[kind] {
		return ErrInvalidKind
	}
	return nil
}

func ValidateTitle(title string) error {
	if title == "" || len(title) > 200 {
		return ErrInvalidTitle
	}
	return nil
}

func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoords
	}
	return nil
}
