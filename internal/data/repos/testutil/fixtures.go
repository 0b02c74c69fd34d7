package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    "pw",
		FirstName:   "A",
		LastName:    "B",
		Role:        domain.RoleMember,
		CanDownload: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedReviewer(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	if err := tx.WithContext(ctx).Model(u).Update("role", domain.RoleReviewer).Error; err != nil {
		tb.Fatalf("seed reviewer: %v", err)
	}
	u.Role = domain.RoleReviewer
	return u
}

func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, uploaderID uuid.UUID) *domain.Asset {
	tb.Helper()
	id := uuid.New()
	a := &domain.Asset{
		ID:               id,
		UploadedByID:     uploaderID,
		Type:             domain.AssetTypeImage,
		FileKey:          fmt.Sprintf("image/%s/%s-pic.jpg", uploaderID, id),
		OriginalFilename: "pic.jpg",
		MimeType:         "image/jpeg",
		FileSize:         1024,
		ProcessingStatus: domain.ProcessingPending,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	return a
}

func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID uuid.UUID) *domain.Review {
	tb.Helper()
	r := &domain.Review{
		ID:      uuid.New(),
		AssetID: assetID,
		Status:  domain.ReviewPending,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return r
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID uuid.UUID, jobType string) *domain.ProcessingJob {
	tb.Helper()
	j := &domain.ProcessingJob{
		ID:      uuid.New(),
		AssetID: assetID,
		JobType: jobType,
		Status:  domain.JobQueued,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func SeedNotification(tb testing.TB, ctx context.Context, tx *gorm.DB, recipientID uuid.UUID) *domain.Notification {
	tb.Helper()
	n := &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        domain.NotificationReviewCompleted,
		Title:       "review completed",
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed notification: %v", err)
	}
	return n
}
