package store

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/guregu/null/v5"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	GivenName      string    `json:"given_name"`
	Surname        string    `json:"surname"`
	JobTitle       string    `json:"job_title"`
	Department     string    `json:"department"`
	OfficeLocation string    `json:"office_location"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastLogin      time.Time `json:"last_login"`
}

// UserProfile is what the identity provider reports at sign-in.
// Empty profile fields leave the stored value unchanged on re-login.
type UserProfile struct {
	ID             string `json:"id" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Name           string `json:"name"`
	GivenName      string `json:"given_name"`
	Surname        string `json:"surname"`
	JobTitle       string `json:"job_title"`
	Department     string `json:"department"`
	OfficeLocation string `json:"office_location"`
}

// ApplyTo copies the non-empty profile fields onto u.
func (p UserProfile) ApplyTo(u *User) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.Email, p.Email)
	set(&u.Name, p.Name)
	set(&u.GivenName, p.GivenName)
	set(&u.Surname, p.Surname)
	set(&u.JobTitle, p.JobTitle)
	set(&u.Department, p.Department)
	set(&u.OfficeLocation, p.OfficeLocation)
}

// UserFields is a partial update: only Valid members are written.
type UserFields struct {
	Email          null.String `json:"email"`
	Name           null.String `json:"name"`
	GivenName      null.String `json:"given_name"`
	Surname        null.String `json:"surname"`
	JobTitle       null.String `json:"job_title"`
	Department     null.String `json:"department"`
	OfficeLocation null.String `json:"office_location"`
	Role           null.String `json:"role"`
	IsActive       null.Bool   `json:"is_active"`
}

func (f UserFields) Empty() bool {
	return !f.Email.Valid && !f.Name.Valid && !f.GivenName.Valid && !f.Surname.Valid &&
		!f.JobTitle.Valid && !f.Department.Valid && !f.OfficeLocation.Valid &&
		!f.Role.Valid && !f.IsActive.Valid
}

// Check rejects a malformed email or unknown role.
func (f UserFields) Check() error {
	if f.Email.Valid {
		if _, err := mail.ParseAddress(f.Email.String); err != nil {
			return fmt.Errorf("invalid email %q", f.Email.String)
		}
	}
	if f.Role.Valid {
		if _, err := ParseRole(f.Role.String); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo writes the set members onto u. Call Check first.
func (f UserFields) ApplyTo(u *User) {
	setString := func(dst *string, v null.String) {
		if v.Valid {
			*dst = v.String
		}
	}
	setString(&u.Email, f.Email)
	setString(&u.Name, f.Name)
	setString(&u.GivenName, f.GivenName)
	setString(&u.Surname, f.Surname)
	setString(&u.JobTitle, f.JobTitle)
	setString(&u.Department, f.Department)
	setString(&u.OfficeLocation, f.OfficeLocation)
	if f.Role.Valid {
		r, _ := ParseRole(f.Role.String)
		u.Role = r
	}
	if f.IsActive.Valid {
		u.IsActive = f.IsActive.Bool
	}
}

// UserUpdate is one entry of a batch update.
type UserUpdate struct {
	ID     string     `json:"id"`
	Fields UserFields `json:"fields"`
}

type UserStats struct {
	Total    int          `json:"total_users"`
	Active   int          `json:"active_users"`
	Inactive int          `json:"inactive_users"`
	ByRole   map[Role]int `json:"role_distribution"`
}

// CountUsers folds users into a UserStats.
func CountUsers(users []User) UserStats {
	st := UserStats{ByRole: map[Role]int{}}
	for _, u := range users {
		st.Total++
		if u.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
		st.ByRole[u.Role]++
	}
	return st
}
