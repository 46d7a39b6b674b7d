package repository

import (
	"context"
	"fmt"

	"tunesmith/model"

	"gorm.io/gorm"
)

// SocialRepository manages the like/favorite/follow join rows. State is the
// presence or absence of a row; toggling is delete-if-exists else insert,
// which makes a double toggle an involution.
type SocialRepository struct {
	db *gorm.DB
}

// NewSocialRepository creates a new SocialRepository.
func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// ToggleLike flips the like state for (userID, songID). Returns the new
// state: true when the song is now liked.
func (r *SocialRepository) ToggleLike(ctx context.Context, userID int64, songID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Delete(&model.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete like row: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := model.Like{UserID: userID, SongID: songID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		return false, fmt.Errorf("failed to create like row: %w", err)
	}
	return true, nil
}

// ToggleFavorite flips the favorite state for (userID, songID).
func (r *SocialRepository) ToggleFavorite(ctx context.Context, userID int64, songID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete favorite row: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	favorite := model.Favorite{UserID: userID, SongID: songID}
	if err := r.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return false, fmt.Errorf("failed to create favorite row: %w", err)
	}
	return true, nil
}

// ToggleFollow flips the follow state for (followerID, followingID).
// Following yourself is rejected.
func (r *SocialRepository) ToggleFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	if followerID == followingID {
		return false, model.NewValidationError("followingId", "cannot follow yourself")
	}

	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete follow row: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	follow := model.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Create(&follow).Error; err != nil {
		return false, fmt.Errorf("failed to create follow row: %w", err)
	}
	return true, nil
}

// IsFollowing reports whether follower follows following.
func (r *SocialRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count follow rows: %w", err)
	}
	return count > 0, nil
}

// HasLiked reports whether the user has liked the song.
func (r *SocialRepository) HasLiked(ctx context.Context, userID int64, songID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count like rows: %w", err)
	}
	return count > 0, nil
}

// CountLikes returns how many users liked a song.
func (r *SocialRepository) CountLikes(ctx context.Context, songID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("song_id = ?", songID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count likes for song %s: %w", songID, err)
	}
	return count, nil
}

// CountFollowers returns how many users follow the given user.
func (r *SocialRepository) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("following_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count followers for user %d: %w", userID, err)
	}
	return count, nil
}

// CountFollowing returns how many users the given user follows.
func (r *SocialRepository) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count following for user %d: %w", userID, err)
	}
	return count, nil
}

// ListFollowerIDs returns the IDs of users following the given user,
// newest first.
func (r *SocialRepository) ListFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("following_id = ?", userID).
		Order("created_at DESC").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list follower IDs for user %d: %w", userID, err)
	}
	return ids, nil
}

// ListFollowingIDs returns the IDs of users the given user follows,
// newest first.
func (r *SocialRepository) ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list following IDs for user %d: %w", userID, err)
	}
	return ids, nil
}

// ListFavoriteSongIDs returns the user's favorited song IDs, newest first.
func (r *SocialRepository) ListFavoriteSongIDs(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("song_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites for user %d: %w", userID, err)
	}
	return ids, nil
}
