package eventlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// checksumDomain prefixes the export checksum input. The version suffix
// allows future algorithm migration without ambiguity.
const checksumDomain = "phasor/export/v1"

// Checksum computes the integrity checksum over a frame sequence: SHA-256
// with domain separation over each frame's serialized record in order.
func Checksum(frames []Frame) (string, error) {
	h := sha256.New()
	h.Write([]byte(checksumDomain))
	h.Write([]byte{0x00})

	for _, frame := range frames {
		data, err := json.Marshal(frame)
		if err != nil {
			return "", fmt.Errorf("marshaling frame %d: %w", frame.FrameID, err)
		}
		h.Write(data)
		h.Write([]byte{0x00})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Export replays a persisted session and bundles its frames and metadata into
// a checksummed package.
func (l *Log) Export(ctx context.Context, sessionID string) (*ExportPackage, error) {
	frames, err := l.Replay(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	meta, err := l.Meta(sessionID)
	if err != nil {
		return nil, err
	}

	checksum, err := Checksum(frames)
	if err != nil {
		return nil, err
	}

	return &ExportPackage{
		Version:    ExportVersion,
		Type:       ExportType,
		SessionID:  sessionID,
		Metadata:   meta,
		Frames:     frames,
		ExportTime: time.Now().UTC(),
		Checksum:   checksum,
	}, nil
}

// ImportAndVerify recomputes the checksum over a package's frame sequence and
// compares it with the recorded value. Returns ChecksumMismatchError when the
// package cannot be trusted.
func ImportAndVerify(pkg *ExportPackage) error {
	if pkg == nil {
		return fmt.Errorf("nil export package")
	}

	got, err := Checksum(pkg.Frames)
	if err != nil {
		return err
	}

	if got != pkg.Checksum {
		return ChecksumMismatchError{Want: pkg.Checksum, Got: got}
	}

	return nil
}
