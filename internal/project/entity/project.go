package entity

import "github.com/ovaphlow/pitchfork/service-community/pkg/database"

// Project is owned by its main user; deleting the owner deletes the project.
type Project struct {
	ID          int64         `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	DateProj    database.Date `db:"date_proj" json:"date_proj"`
	URL         string        `db:"url" json:"url"`
	MainUserID  int64         `db:"main_user_id" json:"main_user"`
}

type ProjectUser struct {
	ID        int64 `db:"id"`
	UserID    int64 `db:"user_id"`
	ProjectID int64 `db:"project_id"`
}
