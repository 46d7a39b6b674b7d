package model

import "time"

// The social relations are pure join rows: the presence or absence of a row
// is the state, keyed by a unique pair. These models are managed through
// GORM, unlike the older raw-SQL entities.

// Like marks that a user liked a song.
type Like struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_like_pair;not null" json:"userId"`
	SongID    string    `gorm:"uniqueIndex:idx_like_pair;size:36;not null" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName sets the table name for Like.
func (Like) TableName() string {
	return "likes"
}

// Favorite marks that a user saved a song to their favorites.
type Favorite struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_favorite_pair;not null" json:"userId"`
	SongID    string    `gorm:"uniqueIndex:idx_favorite_pair;size:36;not null" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName sets the table name for Favorite.
func (Favorite) TableName() string {
	return "favorites"
}

// Follow marks that one user follows another.
type Follow struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FollowerID  int64     `gorm:"uniqueIndex:idx_follow_pair;not null" json:"followerId"`
	FollowingID int64     `gorm:"uniqueIndex:idx_follow_pair;not null" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName sets the table name for Follow.
func (Follow) TableName() string {
	return "follows"
}
