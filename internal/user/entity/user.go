package entity

import "time"

// User represents an account row in the `users` table. Email is the login id.
type User struct {
	ID            int64      `db:"id"`
	Email         string     `db:"email"`
	Name          string     `db:"name"`
	Phone         string     `db:"phone"`
	Age           *int       `db:"age"`
	Rating        int        `db:"rating"`
	Notifications bool       `db:"notifications"`
	CorporationID *int64     `db:"corporation_id"`
	PasswordHash  string     `db:"password_hash"`
	IsActive      bool       `db:"is_active"`
	IsStaff       bool       `db:"is_staff"`
	DateJoined    time.Time  `db:"date_joined"`
	LastLogin     *time.Time `db:"last_login"`
}

// Public is the representation returned to clients; it never carries the
// password hash.
type Public struct {
	ID    int64  `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone"`
	Age   *int   `db:"age" json:"age"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone, Age: u.Age}
}
