package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

func TestCreateAndGetActiveLease(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Projector", "", 0, 3)
	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", model.RoleUser)
	until := time.Now().Add(48 * time.Hour)

	id, err := CreateActiveLease(ctx, database, item.ID, user.ID, 2, until, nil)
	if err != nil {
		t.Fatalf("CreateActiveLease: %v", err)
	}

	lease, err := GetActiveLease(ctx, database, id)
	if err != nil {
		t.Fatalf("GetActiveLease: %v", err)
	}
	if lease.Quantity != 2 || lease.ItemName != "Projector" || lease.HolderName != "alice" {
		t.Errorf("unexpected lease: %+v", lease)
	}
	if lease.RequestID != nil {
		t.Error("direct lease should have no request reference")
	}
}

func TestDeleteActiveLease(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Projector", "", 0, 3)
	user, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleUser)
	id, _ := CreateActiveLease(ctx, database, item.ID, user.ID, 1, time.Now().Add(time.Hour), nil)

	if err := DeleteActiveLease(ctx, database, id); err != nil {
		t.Fatalf("DeleteActiveLease: %v", err)
	}

	lease, _ := GetActiveLease(ctx, database, id)
	if lease != nil {
		t.Error("expected lease gone after delete")
	}

	if err := DeleteActiveLease(ctx, database, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestActiveLeasesForSplitsOverdue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Projector", "", 0, 5)
	user, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleUser)
	now := time.Now()

	CreateActiveLease(ctx, database, item.ID, user.ID, 1, now.Add(24*time.Hour), nil)
	CreateActiveLease(ctx, database, item.ID, user.ID, 2, now.Add(-24*time.Hour), nil)

	current, overdue, err := ActiveLeasesFor(ctx, database, item.ID, now)
	if err != nil {
		t.Fatalf("ActiveLeasesFor: %v", err)
	}
	if len(current) != 1 || current[0].Quantity != 1 {
		t.Errorf("unexpected current leases: %+v", current)
	}
	if len(overdue) != 1 || overdue[0].Quantity != 2 {
		t.Errorf("unexpected overdue leases: %+v", overdue)
	}
}

func TestListLeasesFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	projector, _ := CreateItem(ctx, database, "Projector", "", 0, 5)
	camera, _ := CreateItem(ctx, database, "Camera", "", 0, 5)
	alice, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "", "hash", model.RoleUser)
	until := time.Now().Add(time.Hour)

	CreateActiveLease(ctx, database, projector.ID, alice.ID, 1, until, nil)
	CreateActiveLease(ctx, database, camera.ID, alice.ID, 1, until, nil)
	CreateActiveLease(ctx, database, camera.ID, bob.ID, 1, until, nil)

	byItem, err := ListLeases(ctx, database, camera.ID, 0)
	if err != nil {
		t.Fatalf("ListLeases: %v", err)
	}
	if len(byItem) != 2 {
		t.Errorf("expected 2 camera leases, got %d", len(byItem))
	}

	byHolder, _ := ListLeases(ctx, database, 0, alice.ID)
	if len(byHolder) != 2 {
		t.Errorf("expected 2 leases for alice, got %d", len(byHolder))
	}

	both, _ := ListLeases(ctx, database, camera.ID, bob.ID)
	if len(both) != 1 {
		t.Errorf("expected 1 lease, got %d", len(both))
	}
}

func TestLeasesDueWithin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Projector", "", 0, 5)
	user, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleUser)
	now := time.Now()

	CreateActiveLease(ctx, database, item.ID, user.ID, 1, now.Add(12*time.Hour), nil)  // due soon
	CreateActiveLease(ctx, database, item.ID, user.ID, 1, now.Add(100*time.Hour), nil) // far out
	CreateActiveLease(ctx, database, item.ID, user.ID, 1, now.Add(-time.Hour), nil)    // already overdue

	due, err := LeasesDueWithin(ctx, database, now, 72*time.Hour)
	if err != nil {
		t.Fatalf("LeasesDueWithin: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 lease due within window, got %d", len(due))
	}
	if due[0].Overdue(now) {
		t.Error("due lease should not already be overdue")
	}
}
