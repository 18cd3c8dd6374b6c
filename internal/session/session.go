// Package session provides session identity derivation and registration
// validation for Healthbot.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/capshealth/healthbot/internal/models"
)

// dateLayout is the calendar date format used throughout (YYYY-MM-DD).
const dateLayout = "2006-01-02"

// invalidDate is substituted into the session base string when the date of
// birth cannot be parsed. Degenerate but accepted output, not a fault.
const invalidDate = "Invalid Date"

// Validation error variables. Consent is deliberately distinct from field
// validation so callers can surface it separately.
var (
	ErrFirstNameRequired   = errors.New("first name is required")
	ErrFirstNameTooShort   = errors.New("first name must be at least 2 characters")
	ErrLastNameRequired    = errors.New("last name is required")
	ErrLastNameTooShort    = errors.New("last name must be at least 2 characters")
	ErrDateOfBirthRequired = errors.New("date of birth is required")
	ErrDateOfBirthInvalid  = errors.New("please enter a valid date of birth")
	ErrTooYoung            = errors.New("you must be at least 13 years old to use this service")
	ErrConsentRequired     = errors.New("you must accept the privacy policy")
)

// Age bounds enforced before registration is accepted.
const (
	MinAge = 13
	MaxAge = 120
)

// DeriveSessionID maps identity fields to a session identifier.
//
// The first component is a deterministic, non-cryptographic 32-bit rolling
// hash of "last_first_YYYY-MM-DD" (normalized), rendered in base-36 and
// truncated to 8 characters, so the prefix is human-traceable per person.
// The second component encodes the current Unix-millisecond timestamp in
// base-36, which makes the full identifier practically unique per
// registration. The timestamp suffix means the full ID cannot be re-derived
// from identity fields alone; only the prefix is stable.
func DeriveSessionID(firstName, lastName, dateOfBirth string) string {
	base := fmt.Sprintf("%s_%s_%s",
		strings.ToLower(strings.TrimSpace(lastName)),
		strings.ToLower(strings.TrimSpace(firstName)),
		formatDOB(dateOfBirth))

	hash := rollingHash32(base)
	prefix := strconv.FormatInt(abs64(int64(hash)), 36)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	suffix := strconv.FormatInt(time.Now().UnixMilli(), 36)
	id := prefix + "_" + suffix
	slog.Debug("session.DeriveSessionID: derived identifier", "prefix", prefix)
	return id
}

// HashPrefix returns only the deterministic hash component of the session
// identifier for the given identity fields.
func HashPrefix(firstName, lastName, dateOfBirth string) string {
	id := DeriveSessionID(firstName, lastName, dateOfBirth)
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[:i]
	}
	return id
}

// rollingHash32 computes h = h*31 + codeUnit over the string's UTF-16 code
// units, wrapped to the 32-bit signed range.
func rollingHash32(s string) int32 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(cu)
	}
	return h
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// formatDOB renders the date of birth as YYYY-MM-DD, or the literal
// "Invalid Date" when it cannot be parsed.
func formatDOB(dateOfBirth string) string {
	t, err := parseDOB(dateOfBirth)
	if err != nil {
		return invalidDate
	}
	return t.Format(dateLayout)
}

func parseDOB(dateOfBirth string) (time.Time, error) {
	s := strings.TrimSpace(dateOfBirth)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CalculateAge computes whole years between the date of birth and now,
// decrementing by one when now's month/day precedes the birthday.
func CalculateAge(dateOfBirth string, now time.Time) (int, error) {
	birth, err := parseDOB(dateOfBirth)
	if err != nil {
		return 0, ErrDateOfBirthInvalid
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}

// ValidateRegistration checks a registration request against the field and
// consent rules. Field failures and consent failure return distinct errors.
func ValidateRegistration(req models.RegistrationRequest, now time.Time) error {
	first := strings.TrimSpace(req.FirstName)
	if first == "" {
		return ErrFirstNameRequired
	}
	if utf8.RuneCountInString(first) < 2 {
		return ErrFirstNameTooShort
	}
	last := strings.TrimSpace(req.LastName)
	if last == "" {
		return ErrLastNameRequired
	}
	if utf8.RuneCountInString(last) < 2 {
		return ErrLastNameTooShort
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		return ErrDateOfBirthRequired
	}
	age, err := CalculateAge(req.DateOfBirth, now)
	if err != nil {
		return err
	}
	if age < MinAge {
		return ErrTooYoung
	}
	if age > MaxAge {
		return ErrDateOfBirthInvalid
	}
	if !req.Consent {
		return ErrConsentRequired
	}
	return nil
}

// BuildUserDetails assembles the user details record from a validated
// registration request.
func BuildUserDetails(req models.RegistrationRequest, now time.Time) (models.UserDetails, error) {
	age, err := CalculateAge(req.DateOfBirth, now)
	if err != nil {
		return models.UserDetails{}, err
	}
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	return models.UserDetails{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: strings.TrimSpace(req.DateOfBirth),
		Age:         age,
		FullName:    first + " " + last,
	}, nil
}
