package starsight

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for the read-only server and for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PageCreated does nothing and returns nil
func (n *NoopEventSink) PageCreated(ctx context.Context, page *Page) error {
	return nil
}

// PagePublished does nothing and returns nil
func (n *NoopEventSink) PagePublished(ctx context.Context, page *Page) error {
	return nil
}

// TopicSaved does nothing and returns nil
func (n *NoopEventSink) TopicSaved(ctx context.Context, topic *Topic) error {
	return nil
}

// NavigationSaved does nothing and returns nil
func (n *NoopEventSink) NavigationSaved(ctx context.Context, nav *Navigation) error {
	return nil
}

// AssetUploaded does nothing and returns nil
func (n *NoopEventSink) AssetUploaded(ctx context.Context, kind string, id int64, objectKey string) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for the admin CLI to report what a seed run wrote
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PageCreated logs the page creation event
func (l *LoggingEventSink) PageCreated(ctx context.Context, page *Page) error {
	l.logger.InfoContext(ctx, "page created", "page_id", page.ID, "kind", page.Kind, "slug", page.Slug)
	return nil
}

// PagePublished logs the publish event
func (l *LoggingEventSink) PagePublished(ctx context.Context, page *Page) error {
	l.logger.InfoContext(ctx, "page published", "page_id", page.ID, "slug", page.Slug)
	return nil
}

// TopicSaved logs the topic save event
func (l *LoggingEventSink) TopicSaved(ctx context.Context, topic *Topic) error {
	l.logger.InfoContext(ctx, "topic saved", "topic_id", topic.ID, "slug", topic.Slug)
	return nil
}

// NavigationSaved logs the navigation save event
func (l *LoggingEventSink) NavigationSaved(ctx context.Context, nav *Navigation) error {
	l.logger.InfoContext(ctx, "navigation saved", "navigation_id", nav.ID, "slug", nav.Slug, "links", len(nav.Links))
	return nil
}

// AssetUploaded logs the upload event
func (l *LoggingEventSink) AssetUploaded(ctx context.Context, kind string, id int64, objectKey string) error {
	l.logger.InfoContext(ctx, "asset uploaded", "kind", kind, "id", id, "object_key", objectKey)
	return nil
}
