package model

import "time"

// Comment is a user comment on a song. Managed through GORM.
type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	SongID    string    `gorm:"index;size:36;not null" json:"songId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	// Display name of the author, joined in for list responses.
	Username string `gorm:"->;-:migration" json:"username,omitempty"`
}

// TableName sets the table name for Comment.
func (Comment) TableName() string {
	return "comments"
}
