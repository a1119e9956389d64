package ingest

// Kind identifies the content type of an uploaded item.
type Kind string

const (
	KindText       Kind = "text"
	KindMarkdown   Kind = "markdown"
	KindTranscript Kind = "transcript"
)

// Item is one uploaded unit of content in a batch.
type Item struct {
	// Name identifies the item within the batch (filename or upload id).
	Name string

	// Kind is the declared content type.
	Kind Kind

	// Data is the raw item content handed to the extractor.
	Data []byte

	// Release frees the item's underlying resource (temp file, buffer
	// lease). The pipeline invokes it exactly once on every exit path,
	// success, per-item failure or whole-batch validation failure. May be
	// nil.
	Release func()
}

// releaseAll invokes each item's Release hook once.
func releaseAll(items []Item) {
	for i := range items {
		if items[i].Release != nil {
			items[i].Release()
			items[i].Release = nil
		}
	}
}
