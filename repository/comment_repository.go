package repository

import (
	"context"
	"fmt"

	"tunesmith/model"

	"gorm.io/gorm"
)

// CommentRepository manages song comments.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// CreateComment inserts a comment.
func (r *CommentRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment owned by the caller. Scoping the delete to
// (id, user_id) makes a foreign delete match zero rows.
func (r *CommentRepository) DeleteComment(ctx context.Context, commentID, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", commentID, userID).
		Delete(&model.Comment{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListBySong returns a song's comments with author names, newest first.
func (r *CommentRepository) ListBySong(ctx context.Context, songID string) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, users.username AS username").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.song_id = ?", songID).
		Order("comments.created_at DESC").
		Scan(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for song %s: %w", songID, err)
	}
	return comments, nil
}

// CountBySong returns the number of comments on a song.
func (r *CommentRepository) CountBySong(ctx context.Context, songID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("song_id = ?", songID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count comments for song %s: %w", songID, err)
	}
	return count, nil
}
