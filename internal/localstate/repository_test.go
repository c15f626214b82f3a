package localstate

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/db"
)

func testRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestLastWorkspacePath_Lifecycle(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if got, err := repo.LastWorkspacePath(ctx); err != nil || got != "" {
		t.Fatalf("empty db read = (%q, %v), want empty", got, err)
	}

	if err := repo.SetLastWorkspacePath(ctx, "/data/ws1"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if got, _ := repo.LastWorkspacePath(ctx); got != "/data/ws1" {
		t.Fatalf("read = %q, want /data/ws1", got)
	}

	if err := repo.SetLastWorkspacePath(ctx, "/data/ws2"); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	if got, _ := repo.LastWorkspacePath(ctx); got != "/data/ws2" {
		t.Fatalf("read after overwrite = %q, want /data/ws2", got)
	}

	if err := repo.ClearLastWorkspacePath(ctx); err != nil {
		t.Fatalf("clear error: %v", err)
	}
	if got, _ := repo.LastWorkspacePath(ctx); got != "" {
		t.Fatalf("read after clear = %q, want empty", got)
	}
}

func TestRecentWorkspaces_RoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	list := []backend.Workspace{
		{Name: "a", Path: "/ws/a", UpdatedAt: "2026-08-01T00:00:00Z"},
		{Name: "b", Path: "/ws/b"},
	}
	if err := repo.SetRecentWorkspaces(ctx, list); err != nil {
		t.Fatalf("set error: %v", err)
	}

	got, err := repo.RecentWorkspaces(ctx)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Path != "/ws/b" {
		t.Fatalf("list = %+v", got)
	}
}

func TestRecentWorkspaces_CappedAtLimit(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	var list []backend.Workspace
	for i := 0; i < RecentWorkspaceLimit+5; i++ {
		list = append(list, backend.Workspace{Path: fmt.Sprintf("/ws/%d", i)})
	}
	if err := repo.SetRecentWorkspaces(ctx, list); err != nil {
		t.Fatalf("set error: %v", err)
	}

	got, _ := repo.RecentWorkspaces(ctx)
	if len(got) != RecentWorkspaceLimit {
		t.Fatalf("len = %d, want %d", len(got), RecentWorkspaceLimit)
	}
	if got[0].Path != "/ws/0" {
		t.Fatalf("cap must keep the head of the list, got %q first", got[0].Path)
	}
}

func TestRecentWorkspaces_CorruptCacheReadsEmpty(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.set(ctx, keyRecentWorkspaces, "{not json"); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	got, err := repo.RecentWorkspaces(ctx)
	if err != nil {
		t.Fatalf("corrupt cache must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("corrupt cache = %+v, want empty", got)
	}
}

func TestDeconstructionFile_PerWorkspace(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	repo.SetDeconstructionFile(ctx, "/ws/a", "alt.json")
	repo.SetDeconstructionFile(ctx, "/ws/b", "v2.json")

	if got, _ := repo.DeconstructionFile(ctx, "/ws/a"); got != "alt.json" {
		t.Fatalf("ws/a file = %q", got)
	}
	if got, _ := repo.DeconstructionFile(ctx, "/ws/b"); got != "v2.json" {
		t.Fatalf("ws/b file = %q", got)
	}

	repo.ClearDeconstructionFile(ctx, "/ws/a")
	if got, _ := repo.DeconstructionFile(ctx, "/ws/a"); got != "" {
		t.Fatalf("cleared selection = %q, want empty", got)
	}
	if got, _ := repo.DeconstructionFile(ctx, "/ws/b"); got != "v2.json" {
		t.Fatal("clearing one workspace must not touch another")
	}
}

func TestAnnotations_RoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if got, err := repo.Annotations(ctx, "slug"); err != nil || len(got) != 0 {
		t.Fatalf("empty read = (%v, %v), want empty map", got, err)
	}

	in := map[string]string{"shot-1": "太长了", "shot-2": "保留"}
	if err := repo.SetAnnotations(ctx, "slug", in); err != nil {
		t.Fatalf("set error: %v", err)
	}

	got, _ := repo.Annotations(ctx, "slug")
	if got["shot-1"] != "太长了" || got["shot-2"] != "保留" {
		t.Fatalf("annotations = %v", got)
	}
}

func TestLastSourceURL_RoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.SetLastSourceURL(ctx, "https://youtu.be/abc123"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if got, _ := repo.LastSourceURL(ctx); got != "https://youtu.be/abc123" {
		t.Fatalf("url = %q", got)
	}
}
