package entity

import "github.com/ovaphlow/pitchfork/service-community/pkg/database"

// Event is organized by a corporation and always ends after it starts.
type Event struct {
	ID          int64         `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	StartDate   database.Date `db:"start_date" json:"start"`
	EndDate     database.Date `db:"end_date" json:"end"`
	OrganizerID int64         `db:"organizer_id" json:"organizer"`
}

// Detail is an event with its registration count.
type Detail struct {
	Event
	Participants int `db:"participants" json:"participants"`
}

type EventUser struct {
	ID      int64 `db:"id"`
	UserID  int64 `db:"user_id"`
	EventID int64 `db:"event_id"`
}
