package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"streakd/internal/modules/session/domain"
	sessionout "streakd/internal/modules/session/port/out"
	apperrors "streakd/internal/platform/errors"
)

// FileSnapshotStore keeps one JSON file per (user, streak).
type FileSnapshotStore struct {
	root string
}

func NewFileSnapshotStore(root string) sessionout.SnapshotStore {
	return &FileSnapshotStore{root: root}
}

func (s *FileSnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	path, err := s.path(snapshot.UserID, snapshot.StreakID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) Load(_ context.Context, userID, streakID string) (domain.Snapshot, error) {
	path, err := s.path(userID, streakID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return readSnapshot(path)
}

func (s *FileSnapshotStore) Clear(_ context.Context, userID, streakID string) error {
	path, err := s.path(userID, streakID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) List(_ context.Context, userID string) ([]domain.Snapshot, error) {
	if err := checkSegment(userID); err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(s.root, userID, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Strings(paths)
	out := make([]domain.Snapshot, 0, len(paths))
	for _, path := range paths {
		snapshot, err := readSnapshot(path)
		if errors.Is(err, domain.ErrUnreadableSnapshot) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}

func (s *FileSnapshotStore) Quarantine(_ context.Context, userID, streakID string) (string, error) {
	path, err := s.path(userID, streakID)
	if err != nil {
		return "", err
	}
	target := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("quarantine snapshot: %w", err)
	}
	return target, nil
}

func (s *FileSnapshotStore) path(userID, streakID string) (string, error) {
	if err := checkSegment(userID); err != nil {
		return "", err
	}
	if err := checkSegment(streakID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, userID, streakID+".json"), nil
}

func checkSegment(segment string) error {
	if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, `/\`) {
		return fmt.Errorf("%w: invalid snapshot key %q", apperrors.ErrInvalidInput, segment)
	}
	return nil
}

func readSnapshot(path string) (domain.Snapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, apperrors.ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snapshot := domain.Snapshot{}
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: decode %s: %v", domain.ErrUnreadableSnapshot, filepath.Base(path), err)
	}
	if snapshot.StreakID == "" {
		return domain.Snapshot{}, apperrors.ErrNoSnapshot
	}
	return snapshot, nil
}
