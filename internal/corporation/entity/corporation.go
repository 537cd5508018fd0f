package entity

import "time"

// Corporation is an organisation that hosts events. Users linked to it act
// as its representatives.
type Corporation struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Description  string    `db:"description" json:"description"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
