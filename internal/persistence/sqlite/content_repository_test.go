package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/study-portal/internal/persistence"
)

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	t.Run("stores and deletes sessions", func(t *testing.T) {
		t.Parallel()

		repo := NewSessionRepository(setupTestPool(t))
		ctx := context.Background()

		session := persistence.Session{
			ID:        "sid-1",
			UserID:    "user-1",
			Role:      "admin",
			CreatedAt: testReference,
			ExpiresAt: testReference.Add(2 * time.Hour),
		}
		if err := repo.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		stored, err := repo.GetSession(ctx, "sid-1")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if stored.UserID != "user-1" || stored.Role != "admin" || !stored.ExpiresAt.Equal(session.ExpiresAt) {
			t.Fatalf("unexpected session: %+v", stored)
		}

		if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
			t.Fatalf("second DeleteSession should be a no-op: %v", err)
		}
		if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("prunes sessions at or before the reference", func(t *testing.T) {
		t.Parallel()

		repo := NewSessionRepository(setupTestPool(t))
		ctx := context.Background()

		expiries := map[string]time.Time{
			"expired": testReference.Add(-time.Second),
			"edge":    testReference,
			"live":    testReference.Add(time.Nanosecond),
		}
		for id, expiresAt := range expiries {
			err := repo.CreateSession(ctx, persistence.Session{ID: id, UserID: "u", Role: "student", CreatedAt: testReference.Add(-time.Hour), ExpiresAt: expiresAt})
			if err != nil {
				t.Fatalf("CreateSession(%s) failed: %v", id, err)
			}
		}

		if err := repo.DeleteExpiredSessions(ctx, testReference); err != nil {
			t.Fatalf("DeleteExpiredSessions failed: %v", err)
		}

		for _, id := range []string{"expired", "edge"} {
			if _, err := repo.GetSession(ctx, id); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected %s to be pruned, got %v", id, err)
			}
		}
		if _, err := repo.GetSession(ctx, "live"); err != nil {
			t.Fatalf("expected live session to remain: %v", err)
		}
	})

	t.Run("rejects incomplete sessions", func(t *testing.T) {
		t.Parallel()

		repo := NewSessionRepository(setupTestPool(t))
		err := repo.CreateSession(context.Background(), persistence.Session{ID: "sid", UserID: "u", Role: "student"})
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation for missing expiry, got %v", err)
		}
	})
}

func TestMaterialRepository(t *testing.T) {
	t.Parallel()

	repo := NewMaterialRepository(setupTestPool(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		material := persistence.Material{
			ID:             fmt.Sprintf("mat-%d", i),
			Title:          fmt.Sprintf("Chapter %d", i),
			StoredFileName: fmt.Sprintf("file-%d.pdf", i),
			UploaderID:     "admin-1",
			Type:           "pdf",
			CreatedAt:      testReference,
		}
		if i == 2 {
			material.Type = "text"
			material.StoredFileName = "file-2.txt"
		}
		if err := repo.CreateMaterial(ctx, material); err != nil {
			t.Fatalf("CreateMaterial failed: %v", err)
		}
	}

	list, err := repo.ListMaterials(ctx)
	if err != nil {
		t.Fatalf("ListMaterials failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(list))
	}
	// identical timestamps fall back to insertion order, newest first
	if list[0].ID != "mat-2" || list[2].ID != "mat-0" {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}

	got, err := repo.GetMaterial(ctx, "mat-2")
	if err != nil {
		t.Fatalf("GetMaterial failed: %v", err)
	}
	if got.Type != "text" || got.StoredFileName != "file-2.txt" {
		t.Fatalf("unexpected material: %+v", got)
	}

	if _, err := repo.GetMaterial(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bad := persistence.Material{ID: "mat-x", StoredFileName: "x.doc", UploaderID: "admin-1", Type: "doc", CreatedAt: testReference}
	if err := repo.CreateMaterial(ctx, bad); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for unknown type, got %v", err)
	}
}

func TestAnnouncementRepository(t *testing.T) {
	t.Parallel()

	pool := setupTestPool(t)
	users := NewUserRepository(pool)
	repo := NewAnnouncementRepository(pool)
	ctx := context.Background()

	if err := users.CreateUser(ctx, newTestUser("admin-1", "admin", "admin")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	older := persistence.Announcement{ID: "ann-1", Message: "Welcome", CreatorID: "admin-1", CreatedAt: testReference}
	newer := persistence.Announcement{ID: "ann-2", Message: "Exam on Friday", CreatorID: "admin-1", CreatedAt: testReference.Add(time.Minute)}
	orphan := persistence.Announcement{ID: "ann-3", Message: "Legacy", CreatorID: "removed", CreatedAt: testReference.Add(-time.Minute)}
	for _, a := range []persistence.Announcement{older, newer, orphan} {
		if err := repo.CreateAnnouncement(ctx, a); err != nil {
			t.Fatalf("CreateAnnouncement(%s) failed: %v", a.ID, err)
		}
	}

	list, err := repo.ListAnnouncements(ctx)
	if err != nil {
		t.Fatalf("ListAnnouncements failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 announcements, got %d", len(list))
	}
	if list[0].ID != "ann-2" || list[1].ID != "ann-1" || list[2].ID != "ann-3" {
		t.Fatalf("expected newest first, got %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].CreatorUsername != "admin" {
		t.Fatalf("expected creator username to resolve, got %q", list[0].CreatorUsername)
	}
	if list[2].CreatorUsername != "" {
		t.Fatalf("expected empty username for unknown creator, got %q", list[2].CreatorUsername)
	}
}
