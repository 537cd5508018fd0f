package entity

// Skill is a globally shared skill title.
type Skill struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// SkillUser links a user to a skill; the (user, skill) pair is unique.
type SkillUser struct {
	ID      int64 `db:"id"`
	UserID  int64 `db:"user_id"`
	SkillID int64 `db:"skill_id"`
}
