package activity

import (
	"context"
	"testing"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/testutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
)

func TestMarkReadIsScopedToRecipient(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewNotificationRepo(tx, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice@test.dev")
	bob := testutil.SeedUser(t, ctx, tx, "bob@test.dev")
	n := testutil.SeedNotification(t, ctx, tx, alice.ID)

	// Another recipient touching the row affects nothing.
	rows, err := repo.MarkRead(dbc, n.ID, bob.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows for a foreign notification, got %d", rows)
	}

	rows, err = repo.MarkRead(dbc, n.ID, alice.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}

	unread, err := repo.ListByRecipient(dbc, alice.ID, true, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
}

func TestMarkAllReadAndUnreadFilter(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewNotificationRepo(tx, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice@test.dev")
	for i := 0; i < 3; i++ {
		testutil.SeedNotification(t, ctx, tx, alice.ID)
	}

	unread, err := repo.ListByRecipient(dbc, alice.ID, true, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unread) != 3 {
		t.Fatalf("expected 3 unread, got %d", len(unread))
	}

	if err := repo.MarkAllRead(dbc, alice.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	unread, err = repo.ListByRecipient(dbc, alice.ID, true, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected 0 unread after mark all, got %d", len(unread))
	}

	all, err := repo.ListByRecipient(dbc, alice.ID, false, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("limit not applied, got %d", len(all))
	}
}
