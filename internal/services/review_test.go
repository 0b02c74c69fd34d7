package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	reviewsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/reviews"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/testutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
)

func newReviewServiceForTest(t *testing.T, tx *gorm.DB) ReviewService {
	t.Helper()
	log := testutil.Logger(t)
	return NewReviewService(
		tx,
		log,
		reviewsrepo.NewReviewRepo(tx, log),
		assetsrepo.NewAssetRepo(tx, log),
		activityrepo.NewActivityRepo(tx, log),
		activityrepo.NewNotificationRepo(tx, log),
	)
}

func TestSubmitForReviewGuards(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newReviewServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	stranger := testutil.SeedUser(t, ctx, tx, "stranger@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)

	// Still PENDING processing: not reviewable yet.
	_, err := svc.SubmitForReview(dbc, uploader.ID, asset.ID)
	assert.Equal(t, apierr.CodeConflict, apierr.From(err).Code)

	require.NoError(t, tx.Model(asset).Update("processing_status", domain.ProcessingCompleted).Error)

	_, err = svc.SubmitForReview(dbc, stranger.ID, asset.ID)
	assert.Equal(t, apierr.CodeForbidden, apierr.From(err).Code)

	review, err := svc.SubmitForReview(dbc, uploader.ID, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, review.Status)

	// One pending review per asset.
	_, err = svc.SubmitForReview(dbc, uploader.ID, asset.ID)
	assert.Equal(t, apierr.CodeConflict, apierr.From(err).Code)
}

func TestDecideApprovedFansOut(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newReviewServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	reviewer := testutil.SeedReviewer(t, ctx, tx, "reviewer@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)
	require.NoError(t, tx.Model(asset).Update("processing_status", domain.ProcessingCompleted).Error)
	review := testutil.SeedReview(t, ctx, tx, asset.ID)

	decided, err := svc.Decide(dbc, reviewer, review.ID, Decision{
		Status:   domain.ReviewApproved,
		Comments: "looks good",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, decided.Status)
	require.NotNil(t, decided.ReviewerID)
	assert.Equal(t, reviewer.ID, *decided.ReviewerID)
	assert.NotNil(t, decided.DecidedAt)

	var got domain.Asset
	require.NoError(t, tx.First(&got, "id = ?", asset.ID).Error)
	assert.True(t, got.ReadyForPublishing)

	var activities int64
	require.NoError(t, tx.Model(&domain.Activity{}).
		Where("asset_id = ? AND type = ?", asset.ID, domain.ActivityAssetApproved).
		Count(&activities).Error)
	assert.EqualValues(t, 1, activities)

	var notifications []*domain.Notification
	require.NoError(t, tx.Where("recipient_id = ?", uploader.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationReviewCompleted, notifications[0].Type)
}

func TestDecideTerminalReviewConflicts(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newReviewServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	reviewer := testutil.SeedReviewer(t, ctx, tx, "reviewer@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)
	review := testutil.SeedReview(t, ctx, tx, asset.ID)

	_, err := svc.Decide(dbc, reviewer, review.ID, Decision{Status: domain.ReviewRejected})
	require.NoError(t, err)

	// A decided review never transitions again, whatever the target.
	for _, status := range []domain.ReviewStatus{domain.ReviewApproved, domain.ReviewRejected, domain.ReviewNeedsRevision} {
		_, err := svc.Decide(dbc, reviewer, review.ID, Decision{Status: status})
		assert.Equal(t, apierr.CodeConflict, apierr.From(err).Code, "re-deciding as %s", status)
	}
}

func TestDecideNeedsRevisionFlipsAssetBack(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newReviewServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	reviewer := testutil.SeedReviewer(t, ctx, tx, "reviewer@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)
	review := testutil.SeedReview(t, ctx, tx, asset.ID)

	_, err := svc.Decide(dbc, reviewer, review.ID, Decision{
		Status:  domain.ReviewNeedsRevision,
		Reasons: []string{"wrong aspect ratio"},
	})
	require.NoError(t, err)

	var got domain.Asset
	require.NoError(t, tx.First(&got, "id = ?", asset.ID).Error)
	assert.Equal(t, domain.ProcessingNeedsRevision, got.ProcessingStatus)
	assert.False(t, got.ReadyForPublishing)
}

func TestDecideRequiresReviewCapableRole(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newReviewServiceForTest(t, tx)

	member := testutil.SeedUser(t, ctx, tx, "member@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, member.ID)
	review := testutil.SeedReview(t, ctx, tx, asset.ID)

	_, err := svc.Decide(dbc, member, review.ID, Decision{Status: domain.ReviewApproved})
	assert.Equal(t, apierr.CodeForbidden, apierr.From(err).Code)

	_, err = svc.Decide(dbc, member, review.ID, Decision{Status: "MAYBE"})
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)
}
