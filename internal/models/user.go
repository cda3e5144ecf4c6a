package models

import "time"

// User is an account holder. Email is stored trimmed and lower-cased.
type User struct {
	Base
	Name            string    `gorm:"size:50;not null" json:"name"`
	LastName        string    `gorm:"size:50;not null" json:"lastName"`
	DateOfBirth     time.Time `gorm:"type:date;not null" json:"dateOfBirth"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password        string    `gorm:"not null" json:"-"`
	ProfileImageURL *string   `gorm:"size:512" json:"profileImageUrl,omitempty"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	LastName        string    `json:"lastName"`
	DateOfBirth     string    `json:"dateOfBirth"`
	Age             int       `json:"age"`
	Email           string    `json:"email"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

// AgeAt returns the user's age in whole years at the given instant.
func (u *User) AgeAt(now time.Time) int {
	dob := u.DateOfBirth
	if dob.IsZero() {
		return 0
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Profile converts the user into its public representation.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:              u.ID,
		Name:            u.Name,
		LastName:        u.LastName,
		DateOfBirth:     u.DateOfBirth.Format(DateLayout),
		Age:             u.AgeAt(time.Now()),
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// DateLayout is the calendar-date format used for dates of birth.
const DateLayout = "2006-01-02"
