package ports

import "grouprank/domain/group"

// GroupLoader produces the ordered group definitions for a directory.
type GroupLoader interface {
	Load(dir string, chunkSize int) ([]group.Group, group.Source)
}
