package eventstream

import "context"

// Publisher publishes ingestion and persistence events to a stream backend.
type Publisher interface {
	PublishBatch(ctx context.Context, event *BatchIngestedEvent) error
	PublishSession(ctx context.Context, event *SessionPersistedEvent) error
	Close() error
}
