package ports

import "context"

// DirectoryPicker asks the operator for a directory. An empty result with a
// nil error means the selection was cancelled.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (string, error)
}
