package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Search scans session metadata sidecars for sessions whose concept set
// contains the given concept ID. Results carry set semantics: no particular
// order is guaranteed.
func (l *Log) Search(ctx context.Context, conceptID string) ([]SessionRef, error) {
	if conceptID == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading log directory: %w", err)
	}

	var refs []SessionRef
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading sidecar %s: %w", name, err)
		}

		var meta SessionMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			// A bad sidecar shouldn't hide other sessions from search.
			l.logger.Warn("skipping unreadable session sidecar",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		for _, c := range meta.ConceptsList {
			if c == conceptID {
				refs = append(refs, SessionRef{
					SessionID:  meta.SessionID,
					OwnerID:    meta.OwnerID,
					OwnerName:  meta.OwnerName,
					Tag:        meta.Tag,
					StartTime:  meta.StartTime,
					EndTime:    meta.EndTime,
					FrameCount: meta.FrameCount,
				})
				break
			}
		}
	}

	return refs, nil
}

// Sessions lists metadata for every persisted session in the log directory.
func (l *Log) Sessions(ctx context.Context) ([]SessionMeta, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading log directory: %w", err)
	}

	var metas []SessionMeta
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading sidecar %s: %w", name, err)
		}

		var meta SessionMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			l.logger.Warn("skipping unreadable session sidecar",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		metas = append(metas, meta)
	}

	return metas, nil
}
