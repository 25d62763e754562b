package backendfake

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is an account held by the fake backend.
type User struct {
	ID           int
	Email        string
	PasswordHash string
	// Profile holds every other profile field, e.g. first_name, user_type.
	Profile map[string]any
}

// document renders the profile the way the API returns it.
func (u *User) document() map[string]any {
	doc := make(map[string]any, len(u.Profile)+2)
	for k, v := range u.Profile {
		doc[k] = v
	}
	doc["id"] = u.ID
	doc["email"] = u.Email
	return doc
}

func (u *User) subject() string {
	return strconv.Itoa(u.ID)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower {
		problems = append(problems, "Password must contain uppercase and lowercase letters.")
	}
	if !hasNumber {
		problems = append(problems, "Password must contain at least one number.")
	}
	return problems
}

func HashPassword(password string) (string, error) {
	// MinCost keeps test suites fast
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateRegistration returns DRF-style field errors for a registration body.
func (b *Backend) validateRegistration(body map[string]any) map[string][]string {
	errs := map[string][]string{}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = []string{"This field is required."}
	case !strings.Contains(email, "@"):
		errs["email"] = []string{"Enter a valid email address."}
	case b.userByEmail(email) != nil:
		errs["email"] = []string{"user with this email already exists."}
	}

	if password == "" {
		errs["password"] = []string{"This field is required."}
	} else if problems := ValidatePasswordStrength(password); len(problems) > 0 {
		errs["password"] = problems
	}

	if confirm, ok := body["password2"].(string); ok && confirm != password {
		errs["password2"] = []string{"Password fields didn't match."}
	}
	return errs
}

// AddUser registers an account directly, bypassing the HTTP API.
func (b *Backend) AddUser(email, password string, profile map[string]any) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[backendfake AddUser] failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, hash, profile), nil
}

func (b *Backend) addUserLocked(email, hash string, profile map[string]any) *User {
	b.nextUserID++
	if profile == nil {
		profile = map[string]any{}
	}
	u := &User{ID: b.nextUserID, Email: email, PasswordHash: hash, Profile: profile}
	b.users[u.ID] = u
	return u
}

func (b *Backend) userByEmail(email string) *User {
	for _, u := range b.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
