package ports

import (
	"context"

	"grouprank/domain/core"
	"grouprank/domain/submission"
)

// DirectorySource reports the active image directory.
type DirectorySource interface {
	Directory() string
}

// SubmissionMirror receives a copy of every persisted submission. The result
// files remain the source of truth; mirror failures never fail a request.
type SubmissionMirror interface {
	RecordRow(ctx context.Context, directory string, row submission.FlatRow) error
	RecordBatch(ctx context.Context, directory string, batchID core.BatchID, entry submission.UserEntry) error
	Close() error
}
