package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/capshealth/healthbot/internal/models"
)

func TestHashPrefixDeterministic(t *testing.T) {
	a := HashPrefix("Ann", "Lee", "2010-05-01")
	b := HashPrefix("Ann", "Lee", "2010-05-01")
	if a != b {
		t.Errorf("Expected identical prefixes for identical identity, got %q and %q", a, b)
	}
	if a == "" {
		t.Error("Expected a non-empty hash prefix")
	}
	if len(a) > 8 {
		t.Errorf("Expected prefix of at most 8 characters, got %q", a)
	}
}

func TestHashPrefixNormalizesCaseAndWhitespace(t *testing.T) {
	a := HashPrefix("Ann", "Lee", "2010-05-01")
	b := HashPrefix("  ANN ", " lee  ", "2010-05-01")
	if a != b {
		t.Errorf("Expected normalization to yield identical prefixes, got %q and %q", a, b)
	}
}

func TestHashPrefixDiffersAcrossIdentities(t *testing.T) {
	a := HashPrefix("Ann", "Lee", "2010-05-01")
	b := HashPrefix("Bob", "Lee", "2010-05-01")
	if a == b {
		t.Errorf("Expected different identities to hash differently, both got %q", a)
	}
}

func TestDeriveSessionIDFormat(t *testing.T) {
	id := DeriveSessionID("Ann", "Lee", "2010-05-01")
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 {
		t.Fatalf("Expected prefix_suffix format, got %q", id)
	}
	if parts[0] != HashPrefix("Ann", "Lee", "2010-05-01") {
		t.Errorf("Expected the prefix component to match HashPrefix, got %q", parts[0])
	}
	if parts[1] == "" {
		t.Error("Expected a non-empty timestamp suffix")
	}
}

func TestDeriveSessionIDHandlesInvalidDate(t *testing.T) {
	// An unparseable date of birth degrades to a fixed placeholder, never an error
	a := HashPrefix("Ann", "Lee", "not-a-date")
	b := HashPrefix("Ann", "Lee", "also-not-a-date")
	if a != b {
		t.Errorf("Expected all invalid dates to hash identically, got %q and %q", a, b)
	}
	c := HashPrefix("Ann", "Lee", "2010-05-01")
	if a == c {
		t.Error("Expected an invalid date to hash differently from a valid one")
	}
}

func TestCalculateAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  string
		want int
	}{
		{"birthday already passed this year", "2010-05-01", 14},
		{"birthday later this year", "2010-07-01", 13},
		{"birthday today", "2010-06-15", 14},
		{"birthday tomorrow", "2010-06-16", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateAge(tt.dob, now)
			if err != nil {
				t.Fatalf("CalculateAge failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected age %d, got %d", tt.want, got)
			}
		})
	}

	if _, err := CalculateAge("garbage", now); !errors.Is(err, ErrDateOfBirthInvalid) {
		t.Errorf("Expected ErrDateOfBirthInvalid for unparseable date, got %v", err)
	}
}

func TestValidateRegistration(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	valid := models.RegistrationRequest{
		FirstName:   "Ann",
		LastName:    "Lee",
		DateOfBirth: "2010-05-01",
		Consent:     true,
	}

	if err := ValidateRegistration(valid, now); err != nil {
		t.Errorf("Expected valid registration to pass, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(r *models.RegistrationRequest)
		wantErr error
	}{
		{"missing first name", func(r *models.RegistrationRequest) { r.FirstName = "   " }, ErrFirstNameRequired},
		{"short first name", func(r *models.RegistrationRequest) { r.FirstName = "A" }, ErrFirstNameTooShort},
		{"single-rune first name", func(r *models.RegistrationRequest) { r.FirstName = "王" }, ErrFirstNameTooShort},
		{"missing last name", func(r *models.RegistrationRequest) { r.LastName = "" }, ErrLastNameRequired},
		{"short last name", func(r *models.RegistrationRequest) { r.LastName = " B " }, ErrLastNameTooShort},
		{"single-rune last name", func(r *models.RegistrationRequest) { r.LastName = "李" }, ErrLastNameTooShort},
		{"two-rune names", func(r *models.RegistrationRequest) { r.FirstName, r.LastName = "二郎", "王李" }, nil},
		{"missing date of birth", func(r *models.RegistrationRequest) { r.DateOfBirth = "" }, ErrDateOfBirthRequired},
		{"invalid date of birth", func(r *models.RegistrationRequest) { r.DateOfBirth = "banana" }, ErrDateOfBirthInvalid},
		{"under minimum age", func(r *models.RegistrationRequest) { r.DateOfBirth = "2015-01-01" }, ErrTooYoung},
		{"exactly minimum age", func(r *models.RegistrationRequest) { r.DateOfBirth = "2011-06-15" }, nil},
		{"exactly maximum age", func(r *models.RegistrationRequest) { r.DateOfBirth = "1904-06-15" }, nil},
		{"just over maximum age", func(r *models.RegistrationRequest) { r.DateOfBirth = "1903-06-15" }, ErrDateOfBirthInvalid},
		{"over maximum age", func(r *models.RegistrationRequest) { r.DateOfBirth = "1900-01-01" }, ErrDateOfBirthInvalid},
		{"missing consent", func(r *models.RegistrationRequest) { r.Consent = false }, ErrConsentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRegistration(req, now)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildUserDetails(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	details, err := BuildUserDetails(models.RegistrationRequest{
		FirstName:   "  Ann ",
		LastName:    " Lee ",
		DateOfBirth: "2010-05-01",
		Consent:     true,
	}, now)
	if err != nil {
		t.Fatalf("BuildUserDetails failed: %v", err)
	}

	if details.FirstName != "Ann" || details.LastName != "Lee" {
		t.Errorf("Expected trimmed names, got %q %q", details.FirstName, details.LastName)
	}
	if details.FullName != "Ann Lee" {
		t.Errorf("Expected full name %q, got %q", "Ann Lee", details.FullName)
	}
	if details.Age != 14 {
		t.Errorf("Expected age 14, got %d", details.Age)
	}
	if details.DateOfBirth != "2010-05-01" {
		t.Errorf("Expected date of birth preserved, got %q", details.DateOfBirth)
	}
}
