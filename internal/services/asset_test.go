package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/testutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
)

func newAssetServiceForTest(t *testing.T, tx *gorm.DB) AssetService {
	t.Helper()
	log := testutil.Logger(t)
	return NewAssetService(
		tx,
		log,
		&fakeBucket{},
		assetsrepo.NewAssetRepo(tx, log),
		assetsrepo.NewVariantRepo(tx, log),
		assetsrepo.NewAnalyticsRepo(tx, log),
		activityrepo.NewActivityRepo(tx, log),
	)
}

func TestGetVisibilityRules(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newAssetServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	stranger := testutil.SeedUser(t, ctx, tx, "stranger@test.dev")
	reviewer := testutil.SeedReviewer(t, ctx, tx, "reviewer@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)

	// Unpublished: visible to the uploader and reviewers, invisible to others.
	_, err := svc.Get(dbc, uploader.ID, uploader.Role, asset.ID)
	require.NoError(t, err)
	_, err = svc.Get(dbc, reviewer.ID, reviewer.Role, asset.ID)
	require.NoError(t, err)
	_, err = svc.Get(dbc, stranger.ID, stranger.Role, asset.ID)
	assert.Equal(t, apierr.CodeNotFound, apierr.From(err).Code)

	require.NoError(t, tx.Model(asset).Update("ready_for_publishing", true).Error)
	_, err = svc.Get(dbc, stranger.ID, stranger.Role, asset.ID)
	require.NoError(t, err)

	// Archiving hides it from non-owners again.
	require.NoError(t, tx.Model(asset).Update("is_archived", true).Error)
	_, err = svc.Get(dbc, stranger.ID, stranger.Role, asset.ID)
	assert.Equal(t, apierr.CodeNotFound, apierr.From(err).Code)
	_, err = svc.Get(dbc, uploader.ID, uploader.Role, asset.ID)
	require.NoError(t, err)
}

func TestArchiveIsUploaderOnlyAndIdempotent(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newAssetServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	stranger := testutil.SeedUser(t, ctx, tx, "stranger@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)

	err := svc.Archive(dbc, stranger.ID, asset.ID)
	assert.Equal(t, apierr.CodeForbidden, apierr.From(err).Code)

	require.NoError(t, svc.Archive(dbc, uploader.ID, asset.ID))
	require.NoError(t, svc.Archive(dbc, uploader.ID, asset.ID))

	var got domain.Asset
	require.NoError(t, tx.First(&got, "id = ?", asset.ID).Error)
	assert.True(t, got.IsArchived)

	// Idempotent: only the first call writes an activity row.
	var archives int64
	require.NoError(t, tx.Model(&domain.Activity{}).
		Where("asset_id = ? AND type = ?", asset.ID, domain.ActivityAssetArchived).
		Count(&archives).Error)
	assert.EqualValues(t, 1, archives)
}

func TestDownloadURLGatesAndRecords(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newAssetServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)

	blocked := *uploader
	blocked.CanDownload = false
	_, err := svc.DownloadURL(dbc, &blocked, asset.ID, "")
	assert.Equal(t, apierr.CodeForbidden, apierr.From(err).Code)

	grant, err := svc.DownloadURL(dbc, uploader, asset.ID, "renamed.jpg")
	require.NoError(t, err)
	assert.Equal(t, "renamed.jpg", grant.FileName)
	assert.NotEmpty(t, grant.URL)

	var got domain.Asset
	require.NoError(t, tx.First(&got, "id = ?", asset.ID).Error)
	assert.EqualValues(t, 1, got.DownloadCount)

	analytics := assetsrepo.NewAnalyticsRepo(tx, testutil.Logger(t))
	row, err := analytics.GetByAssetAndDay(dbc, asset.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 1, row.DownloadCount)
}

func TestRecordViewSkipsArchivedAssets(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newAssetServiceForTest(t, tx)

	uploader := testutil.SeedUser(t, ctx, tx, "uploader@test.dev")
	viewer := testutil.SeedUser(t, ctx, tx, "viewer@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, uploader.ID)

	require.NoError(t, svc.RecordView(dbc, viewer.ID, asset.ID))
	require.NoError(t, tx.Model(asset).Update("is_archived", true).Error)
	require.NoError(t, svc.RecordView(dbc, viewer.ID, asset.ID))

	// The second view, against the archived asset, left no trace.
	var views int64
	require.NoError(t, tx.Model(&domain.Activity{}).
		Where("asset_id = ? AND type = ?", asset.ID, domain.ActivityAssetViewed).
		Count(&views).Error)
	assert.EqualValues(t, 1, views)

	analytics := assetsrepo.NewAnalyticsRepo(tx, testutil.Logger(t))
	row, err := analytics.GetByAssetAndDay(dbc, asset.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 1, row.ViewCount)
}
