// Package markdown provides the structural chunker for Markdown files.
// Sections delimited by ATX headers become module chunks; nested headers
// are parented to their immediately enclosing section. Fenced code blocks
// never open or close a section.
package markdown

import (
	"regexp"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// header matches an ATX markdown header: level and text.
var header = regexp.MustCompile(`^(#+)\s+(.+)$`)

// MaxHeaderDepth is the deepest header level treated as a section boundary.
const MaxHeaderDepth = 6

// Chunker emits one chunk per markdown header section.
type Chunker struct{}

// New creates a Markdown chunker.
func New() *Chunker {
	return &Chunker{}
}

// Language returns the language tag this chunker handles.
func (c *Chunker) Language() string {
	return domain.LanguageMarkdown
}

// Extensions returns the file extensions mapped to Markdown.
func (c *Chunker) Extensions() []string {
	return []string{".md", ".markdown"}
}

// section is one header with its body span.
type section struct {
	line  int // 1-based header line
	level int
	text  string
	end   int // 1-based last content line, trailing blanks trimmed
}

// Chunk splits the file into header sections. Content before the first
// header is not chunked; a file without headers yields no chunks. Sections
// whose body is only the header line are skipped.
func (c *Chunker) Chunk(file domain.SourceFile) ([]domain.Chunk, error) {
	if strings.TrimSpace(file.Content) == "" {
		return nil, nil
	}

	lines := strings.Split(file.Content, "\n")
	sections := scanSections(lines)

	var chunks []domain.Chunk
	// emitted maps a header line to its chunk ID, for parent resolution.
	emitted := make(map[int]string)

	for i, sec := range sections {
		if sec.end <= sec.line {
			continue // header-only section, nothing to retrieve
		}

		ch := domain.Chunk{
			ID:        domain.NewChunkID(file.Path, sec.line, domain.ChunkKindModule),
			Kind:      domain.ChunkKindModule,
			Name:      sec.text,
			Language:  domain.LanguageMarkdown,
			FilePath:  file.Path,
			StartLine: sec.line,
			EndLine:   sec.end,
			Content:   strings.Join(lines[sec.line-1:sec.end], "\n"),
		}

		// Parent is the nearest preceding emitted section with a smaller
		// header level.
		for j := i - 1; j >= 0; j-- {
			if sections[j].level < sec.level {
				if id, ok := emitted[sections[j].line]; ok {
					ch.ParentID = id
				}
				break
			}
		}

		emitted[sec.line] = ch.ID
		chunks = append(chunks, ch)
	}

	return chunks, nil
}

// scanSections locates headers outside fenced code blocks and computes each
// section's body span, which runs to the line before the next header.
func scanSections(lines []string) []section {
	var sections []section
	inFence := false

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		m := header.FindStringSubmatch(line)
		if m == nil || len(m[1]) > MaxHeaderDepth {
			continue
		}
		sections = append(sections, section{
			line:  i + 1,
			level: len(m[1]),
			text:  strings.TrimSpace(m[2]),
		})
	}

	for i := range sections {
		end := len(lines)
		if i+1 < len(sections) {
			end = sections[i+1].line - 1
		}
		// Trim trailing blank lines from the body.
		for end > sections[i].line && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}
		sections[i].end = end
	}

	return sections
}
