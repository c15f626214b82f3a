// Package localstate persists per-machine workbench state: the last opened
// workspace, the recent-workspace cache, per-workspace deconstruction file
// selections, and user annotations. It replaces the browser-local storage the
// web client used; the backend remains the source of truth.
package localstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
)

const (
	keyLastWorkspace    = "ai-shot-last-workspace"
	keyRecentWorkspaces = "ai-shot-recent-workspaces"
	keyLastSourceURL    = "ai-shot-last-source-url"

	deconFilePrefix   = "decon-file:"
	annotationsPrefix = "annotations:"
)

// RecentWorkspaceLimit caps the cached recent-workspace list.
const RecentWorkspaceLimit = 20

type Repository interface {
	LastWorkspacePath(ctx context.Context) (string, error)
	SetLastWorkspacePath(ctx context.Context, path string) error
	ClearLastWorkspacePath(ctx context.Context) error

	RecentWorkspaces(ctx context.Context) ([]backend.Workspace, error)
	SetRecentWorkspaces(ctx context.Context, list []backend.Workspace) error

	DeconstructionFile(ctx context.Context, workspacePath string) (string, error)
	SetDeconstructionFile(ctx context.Context, workspacePath, file string) error
	ClearDeconstructionFile(ctx context.Context, workspacePath string) error

	Annotations(ctx context.Context, slug string) (map[string]string, error)
	SetAnnotations(ctx context.Context, slug string, annotations map[string]string) error

	LastSourceURL(ctx context.Context) (string, error)
	SetLastSourceURL(ctx context.Context, url string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

func (r *SQLiteRepository) delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM local_state WHERE key = ?", key)
	return err
}

func (r *SQLiteRepository) LastWorkspacePath(ctx context.Context) (string, error) {
	return r.get(ctx, keyLastWorkspace)
}

func (r *SQLiteRepository) SetLastWorkspacePath(ctx context.Context, path string) error {
	return r.set(ctx, keyLastWorkspace, path)
}

func (r *SQLiteRepository) ClearLastWorkspacePath(ctx context.Context) error {
	return r.delete(ctx, keyLastWorkspace)
}

// RecentWorkspaces returns the cached workspace list. A corrupt cache reads
// as empty rather than failing.
func (r *SQLiteRepository) RecentWorkspaces(ctx context.Context) ([]backend.Workspace, error) {
	raw, err := r.get(ctx, keyRecentWorkspaces)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var list []backend.Workspace
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, nil
	}
	return list, nil
}

func (r *SQLiteRepository) SetRecentWorkspaces(ctx context.Context, list []backend.Workspace) error {
	if len(list) > RecentWorkspaceLimit {
		list = list[:RecentWorkspaceLimit]
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode recent workspaces: %w", err)
	}
	return r.set(ctx, keyRecentWorkspaces, string(encoded))
}

func (r *SQLiteRepository) DeconstructionFile(ctx context.Context, workspacePath string) (string, error) {
	return r.get(ctx, deconFilePrefix+workspacePath)
}

func (r *SQLiteRepository) SetDeconstructionFile(ctx context.Context, workspacePath, file string) error {
	return r.set(ctx, deconFilePrefix+workspacePath, file)
}

func (r *SQLiteRepository) ClearDeconstructionFile(ctx context.Context, workspacePath string) error {
	return r.delete(ctx, deconFilePrefix+workspacePath)
}

// Annotations returns the free-text annotations for a workspace slug keyed by
// field id.
func (r *SQLiteRepository) Annotations(ctx context.Context, slug string) (map[string]string, error) {
	raw, err := r.get(ctx, annotationsPrefix+slug)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return map[string]string{}, nil
	}

	annotations := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &annotations); err != nil {
		return map[string]string{}, nil
	}
	return annotations, nil
}

func (r *SQLiteRepository) SetAnnotations(ctx context.Context, slug string, annotations map[string]string) error {
	encoded, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	return r.set(ctx, annotationsPrefix+slug, string(encoded))
}

func (r *SQLiteRepository) LastSourceURL(ctx context.Context) (string, error) {
	return r.get(ctx, keyLastSourceURL)
}

func (r *SQLiteRepository) SetLastSourceURL(ctx context.Context, url string) error {
	return r.set(ctx, keyLastSourceURL, url)
}
