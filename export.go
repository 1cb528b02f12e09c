package argmap

import (
	"context"
	"io"

	"github.com/agentstation/argmap/pkg/snapshot"
)

// Compile-time interface check to ensure proper implementation.
var _ Exporter = (*client)(nil)

// Exporter serializes the collection into a snapshot.
type Exporter interface {
	// ExportSnapshot returns the whole collection as a snapshot document.
	// It never writes to the collection.
	ExportSnapshot(ctx context.Context) (*snapshot.Document, error)

	// WriteSnapshot exports the collection and encodes it to w.
	WriteSnapshot(ctx context.Context, w io.Writer, format snapshot.Format) error
}

// ExportSnapshot implements Exporter.
func (c *client) ExportSnapshot(ctx context.Context) (*snapshot.Document, error) {
	return snapshot.Export(ctx, c.options.store,
		snapshot.WithClock(c.options.now),
		snapshot.WithApp(c.options.app),
	)
}

// WriteSnapshot implements Exporter.
func (c *client) WriteSnapshot(ctx context.Context, w io.Writer, format snapshot.Format) error {
	doc, err := c.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	return doc.Encode(w, format)
}
