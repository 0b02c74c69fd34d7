package assets

import (
	"context"
	"testing"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/testutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
)

func TestUpsertReplacesSameKind(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewVariantRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "u@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, user.ID)

	_, err := repo.Upsert(dbc, &domain.AssetVariant{
		AssetID:    asset.ID,
		Kind:       domain.VariantThumbnail,
		StorageKey: "variants/" + asset.ID.String() + "/thumbnail.jpg",
		MimeType:   "image/jpeg",
		Width:      320,
		Height:     200,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Reprocessing writes the same kind again with new dimensions.
	_, err = repo.Upsert(dbc, &domain.AssetVariant{
		AssetID:    asset.ID,
		Kind:       domain.VariantThumbnail,
		StorageKey: "variants/" + asset.ID.String() + "/thumbnail.jpg",
		MimeType:   "image/jpeg",
		Width:      320,
		Height:     180,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	variants, err := repo.GetByAssetID(dbc, asset.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("expected one row per (asset, kind), got %d", len(variants))
	}
	if variants[0].Height != 180 {
		t.Fatalf("expected the rerun to win, got height %d", variants[0].Height)
	}
}

func TestVariantsOfDifferentKindsCoexist(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewVariantRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "u@test.dev")
	asset := testutil.SeedAsset(t, ctx, tx, user.ID)

	for _, kind := range []domain.VariantKind{domain.VariantThumbnail, domain.VariantPreview} {
		if _, err := repo.Upsert(dbc, &domain.AssetVariant{
			AssetID:    asset.ID,
			Kind:       kind,
			StorageKey: "variants/x",
		}); err != nil {
			t.Fatalf("upsert %s: %v", kind, err)
		}
	}

	variants, err := repo.GetByAssetID(dbc, asset.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}

	if err := repo.DeleteByAssetID(dbc, asset.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	variants, err = repo.GetByAssetID(dbc, asset.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected no variants after delete, got %d", len(variants))
	}
}
