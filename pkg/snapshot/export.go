package snapshot

import (
	"context"
	"time"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/store"
)

// ExportOption configures Export.
type ExportOption func(*exportOptions)

type exportOptions struct {
	now func() time.Time
	app string
}

// WithClock sets the clock used for exportedAt.
func WithClock(now func() time.Time) ExportOption {
	return func(o *exportOptions) {
		o.now = now
	}
}

// WithApp sets the producing application recorded in the snapshot.
func WithApp(app string) ExportOption {
	return func(o *exportOptions) {
		o.app = app
	}
}

// Export reads the whole collection and returns it as a snapshot. Records
// of each kind are ordered by creation time, then id. Export never writes.
func Export(ctx context.Context, r store.Reader, opts ...ExportOption) (*Document, error) {
	o := &exportOptions{now: time.Now, app: constants.AppName}
	for _, opt := range opts {
		opt(o)
	}

	doc := New(o.app, o.now())
	for _, kind := range artifacts.Kinds() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities, err := r.List(ctx, kind)
		if err != nil {
			return nil, errors.WrapStorage("list", kind.String(), err)
		}
		artifacts.Sort(entities)
		for _, e := range entities {
			doc.Add(e)
		}
	}
	return doc, nil
}

// New returns an empty snapshot document. Every array is present so
// consumers never see null collections.
func New(app string, exportedAt time.Time) *Document {
	return &Document{
		SchemaVersion: constants.SchemaVersion,
		ExportedAt:    exportedAt.UTC().Format(time.RFC3339),
		App:           app,
		Topics:        []TopicRecord{},
		Claims:        []ClaimRecord{},
		Rebuttals:     []RebuttalRecord{},
		Evidences:     []EvidenceRecord{},
		Questions:     []QuestionRecord{},
		Sources:       []SourceRecord{},
		Tags:          []TagRecord{},
	}
}
