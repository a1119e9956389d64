package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// maxFrameRecordBytes bounds a single JSONL frame record during replay.
const maxFrameRecordBytes = 10 * 1024 * 1024

// Replay reconstructs the full frame sequence of a persisted session.
//
// The whole log is parsed before any frame is returned: a record that fails
// to parse aborts the replay with a CorruptLogError carrying the offending
// line index, and no partial sequence is ever handed back. Returns
// NotFoundError if no log exists for the session.
func (l *Log) Replay(ctx context.Context, sessionID string) ([]Frame, error) {
	path := filepath.Join(l.dir, sessionID+logExt)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NotFoundError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("opening frame log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameRecordBytes)

	var frames []Frame
	line := 0
	for scanner.Scan() {
		line++

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, CorruptLogError{SessionID: sessionID, Line: line, Err: err}
		}

		frames = append(frames, frame)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading frame log: %w", err)
	}

	l.logger.Debug("session replayed",
		zap.String("session_id", sessionID),
		zap.Int("frames", len(frames)),
	)

	return frames, nil
}

// Meta reads the sidecar metadata record for a persisted session.
func (l *Log) Meta(sessionID string) (SessionMeta, error) {
	path := filepath.Join(l.dir, sessionID+metaExt)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SessionMeta{}, NotFoundError{SessionID: sessionID}
		}
		return SessionMeta{}, fmt.Errorf("reading session metadata: %w", err)
	}

	var meta SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return SessionMeta{}, fmt.Errorf("parsing session metadata: %w", err)
	}

	return meta, nil
}
