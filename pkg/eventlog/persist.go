package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	logExt  = ".jsonl"
	metaExt = ".meta.json"
)

// Persist serializes the session's frame sequence as one JSONL record per
// frame plus a metadata sidecar, then transitions the session to Saved.
//
// The session lock is held for the whole transition, so Persist is mutually
// exclusive with concurrent AppendFrame calls on the same session. A session
// persists exactly once; a second call returns ErrSessionClosed.
func (l *Log) Persist(ctx context.Context, s *Session) (SavedPaths, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusActive {
		return SavedPaths{}, ErrSessionClosed
	}

	if err := ctx.Err(); err != nil {
		return SavedPaths{}, err
	}

	endTime := time.Now().UTC()
	concepts := s.conceptOrderLocked()

	meta := SessionMeta{
		SessionID:       s.ID,
		OwnerID:         s.OwnerID,
		OwnerName:       s.OwnerName,
		Tag:             s.Tag,
		StartTime:       s.StartTime,
		EndTime:         endTime,
		FrameCount:      len(s.Frames),
		ConceptsCreated: len(concepts),
		ConceptsList:    concepts,
	}

	paths := SavedPaths{
		LogPath:  filepath.Join(l.dir, s.ID+logExt),
		MetaPath: filepath.Join(l.dir, s.ID+metaExt),
	}

	if err := l.writeFrameLog(paths.LogPath, s.Frames); err != nil {
		return SavedPaths{}, fmt.Errorf("writing frame log: %w", err)
	}

	if err := l.writeMeta(paths.MetaPath, meta); err != nil {
		// Leave no half-persisted session behind.
		os.Remove(paths.LogPath)
		return SavedPaths{}, fmt.Errorf("writing session metadata: %w", err)
	}

	s.Status = StatusSaved

	l.logger.Info("session persisted",
		zap.String("session_id", s.ID),
		zap.Int("frames", len(s.Frames)),
		zap.Int("concepts", len(concepts)),
		zap.String("log_path", paths.LogPath),
	)

	return paths, nil
}

// writeFrameLog writes frames as line-oriented JSON, one immutable record per
// frame, via a temp file and atomic rename.
func (l *Log) writeFrameLog(path string, frames []Frame) error {
	tmp, err := os.CreateTemp(l.dir, ".frames-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	for _, frame := range frames {
		if err := enc.Encode(frame); err != nil {
			tmp.Close()
			return fmt.Errorf("encoding frame %d: %w", frame.FrameID, err)
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// writeMeta writes the sidecar metadata record via a temp file and rename.
func (l *Log) writeMeta(path string, meta SessionMeta) error {
	tmp, err := os.CreateTemp(l.dir, ".meta-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
