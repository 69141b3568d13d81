package group

import "slices"

// Group is a fixed set of images shown together with one instruction.
// ID is assigned at load time and never reassigned.
type Group struct {
	ID             int      `json:"id" yaml:"-"`
	Instruction    string   `json:"instruction" yaml:"instruction"`
	InstructionCN  string   `json:"instruction_cn" yaml:"instruction_cn"`
	Images         []string `json:"images" yaml:"images"`
	ReferenceImage string   `json:"reference_image" yaml:"reference_image"`
}

// Clone returns a copy that shares no backing array with g.
func (g Group) Clone() Group {
	c := g
	c.Images = slices.Clone(g.Images)
	if c.Images == nil {
		c.Images = []string{}
	}
	return c
}

// Source records where a collection came from.
type Source string

const (
	SourceManifest     Source = "manifest"
	SourceYAMLManifest Source = "yaml_manifest"
	SourceAutoChunk    Source = "auto_chunk"
	SourceEmpty        Source = "empty"
)

// Entry is a group resolved through the presentation sequence.
type Entry struct {
	Group             Group
	PresentationIndex int
	OrigID            int
	Total             int
}

// Payload is what a client receives for one presentation index.
// ID is the navigation index; OrigID is the stable key to submit with.
type Payload struct {
	ID              int      `json:"id"`
	OrigID          int      `json:"orig_id"`
	Instruction     string   `json:"instruction"`
	InstructionCN   string   `json:"instruction_cn"`
	InstructionHTML string   `json:"instruction_html,omitempty"`
	Images          []string `json:"images"`
	ReferenceImage  string   `json:"reference_image"`
	TotalGroups     int      `json:"total_groups"`
}

// Count reports navigation progress.
type Count struct {
	TotalGroups  int `json:"total_groups"`
	CurrentIndex int `json:"current_index"`
}
