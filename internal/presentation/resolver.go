// Package presentation turns a stored group into the payload a client sees.
package presentation

import (
	"slices"
	"strings"

	"grouprank/domain/group"
	"grouprank/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Resolver builds per-request payloads. Every call shuffles a private copy of
// the image list; the stored order is never modified.
type Resolver struct {
	shuffler       ports.Shuffler
	renderMarkdown bool
}

// NewResolver creates a resolver. With renderMarkdown set, payloads carry
// instruction_html.
func NewResolver(shuffler ports.Shuffler, renderMarkdown bool) *Resolver {
	return &Resolver{shuffler: shuffler, renderMarkdown: renderMarkdown}
}

// Present builds the payload for one resolved entry.
func (r *Resolver) Present(entry group.Entry) group.Payload {
	images := slices.Clone(entry.Group.Images)
	if images == nil {
		images = []string{}
	}
	r.shuffler.Shuffle(len(images), func(i, j int) {
		images[i], images[j] = images[j], images[i]
	})

	payload := group.Payload{
		ID:             entry.PresentationIndex,
		OrigID:         entry.Group.ID,
		Instruction:    entry.Group.Instruction,
		InstructionCN:  entry.Group.InstructionCN,
		Images:         images,
		ReferenceImage: entry.Group.ReferenceImage,
		TotalGroups:    entry.Total,
	}
	if r.renderMarkdown {
		payload.InstructionHTML = RenderInstruction(entry.Group.Instruction)
	}
	return payload
}

// RenderInstruction converts a Markdown instruction to HTML. Raw HTML in the
// source is dropped and links open in a new tab.
func RenderInstruction(instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		return ""
	}
	// Parsers are single-use.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(instruction), p, renderer)))
}
