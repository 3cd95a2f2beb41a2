// Package python provides the structural chunker for Python source files.
//
// It performs a line-oriented structural parse: declaration headers are
// recognised lexically, nesting follows indentation, and string literals,
// comments, bracket continuations and backslash continuations are tracked so
// they never terminate a declaration early. Unbalanced brackets or an
// unterminated triple-quoted string fail the whole file as unparseable.
package python

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// declHeader matches a def/async def/class declaration header.
var declHeader = regexp.MustCompile(`^(async\s+def|def|class)\s+([A-Za-z_]\w*)`)

// Chunker emits chunks for Python declarations and module-level code.
type Chunker struct{}

// New creates a Python chunker.
func New() *Chunker {
	return &Chunker{}
}

// Language returns the language tag this chunker handles.
func (c *Chunker) Language() string {
	return domain.LanguagePython
}

// Extensions returns the file extensions mapped to Python.
func (c *Chunker) Extensions() []string {
	return []string{".py"}
}

// lineInfo is the lexical classification of one physical line.
type lineInfo struct {
	// indent is the visual indent column (tabs advance to multiples of 8).
	indent int

	// code is the line with string literal contents and comments blanked,
	// leading whitespace stripped.
	code string

	// blank is true for lines with no code, string or comment content.
	blank bool

	// comment is true for comment-only lines.
	comment bool

	// continuation is true when the line starts inside an open bracket
	// pair, a triple-quoted string, or after a backslash continuation.
	continuation bool
}

// openDecl is a declaration whose body is still being scanned.
type openDecl struct {
	chunk    domain.Chunk
	indent   int
	lastBody int // 1-based index of the last content line seen in the body
}

// Chunk parses the file and returns its chunks in source order.
func (c *Chunker) Chunk(file domain.SourceFile) ([]domain.Chunk, error) {
	if strings.TrimSpace(file.Content) == "" {
		return nil, nil
	}

	lines := strings.Split(file.Content, "\n")
	infos, err := scanLines(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, file.Path, err)
	}

	var (
		chunks         []domain.Chunk
		stack          []openDecl
		moduleLevel    bool
		decoratorStart int // pending module-level decorator, 0 when none
	)

	closeTo := func(indent int) {
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if indent > top.indent {
				break
			}
			finished := *top
			stack = stack[:len(stack)-1]
			done := finishDecl(finished, lines)
			chunks = append(chunks, done)
			// The inner body is part of the enclosing body too.
			if len(stack) > 0 && stack[len(stack)-1].lastBody < done.EndLine {
				stack[len(stack)-1].lastBody = done.EndLine
			}
		}
	}

	for i, info := range infos {
		lineNo := i + 1

		if info.blank {
			continue
		}

		if info.continuation || info.comment {
			// Continuations and comments extend the innermost open body but
			// never open, close or count as module-level statements.
			if !info.comment && len(stack) > 0 {
				stack[len(stack)-1].lastBody = lineNo
			}
			continue
		}

		closeTo(info.indent)
		if len(stack) > 0 {
			stack[len(stack)-1].lastBody = lineNo
		}

		m := declHeader.FindStringSubmatch(info.code)
		if m == nil {
			if len(stack) == 0 && !strings.HasPrefix(info.code, "@") {
				moduleLevel = true
			}
			if len(stack) == 0 && strings.HasPrefix(info.code, "@") && decoratorStart == 0 {
				decoratorStart = lineNo
			}
			continue
		}

		start := lineNo
		if len(stack) == 0 && decoratorStart > 0 {
			start = decoratorStart
		}
		decoratorStart = 0

		kind := domain.ChunkKindClass
		if m[1] != "class" {
			kind = domain.ChunkKindFunction
			if len(stack) > 0 && stack[len(stack)-1].chunk.Kind == domain.ChunkKindClass {
				kind = domain.ChunkKindMethod
			}
		}

		decl := openDecl{
			chunk: domain.Chunk{
				ID:       domain.NewChunkID(file.Path, start, kind),
				Kind:     kind,
				Name:     m[2],
				Language: domain.LanguagePython,
				FilePath: file.Path,
			},
			indent:   info.indent,
			lastBody: lineNo,
		}
		decl.chunk.StartLine = start
		if len(stack) > 0 {
			decl.chunk.ParentID = stack[len(stack)-1].chunk.ID
		}

		// A header carrying its whole body on the same line closes
		// immediately. A class header with an inline def additionally emits
		// the def as a single-line method sharing the start line.
		if inline := inlineBody(info.code); inline != "" {
			chunks = append(chunks, finishDecl(decl, lines))
			if kind == domain.ChunkKindClass {
				if im := declHeader.FindStringSubmatch(inline); im != nil {
					method := domain.Chunk{
						ID:        domain.NewChunkID(file.Path, start, domain.ChunkKindMethod),
						Kind:      domain.ChunkKindMethod,
						Name:      im[2],
						Language:  domain.LanguagePython,
						FilePath:  file.Path,
						StartLine: start,
						EndLine:   start,
						ParentID:  decl.chunk.ID,
						Content:   lines[start-1],
					}
					chunks = append(chunks, method)
				}
			}
			continue
		}

		stack = append(stack, decl)
	}

	closeTo(-1)

	if moduleLevel {
		lineCount := len(lines)
		if lineCount > 0 && lines[lineCount-1] == "" {
			lineCount--
		}
		module := domain.Chunk{
			ID:        domain.NewChunkID(file.Path, 1, domain.ChunkKindModule),
			Kind:      domain.ChunkKindModule,
			Name:      strings.TrimSuffix(filepath.Base(file.Path), ".py"),
			Language:  domain.LanguagePython,
			FilePath:  file.Path,
			StartLine: 1,
			EndLine:   lineCount,
			Content:   file.Content,
		}
		chunks = append([]domain.Chunk{module}, chunks...)
	}

	sortByStart(chunks)
	return chunks, nil
}

// finishDecl closes an open declaration and slices its content.
func finishDecl(d openDecl, lines []string) domain.Chunk {
	end := d.lastBody
	if end < d.chunk.StartLine {
		end = d.chunk.StartLine
	}
	d.chunk.EndLine = end
	d.chunk.Content = strings.Join(lines[d.chunk.StartLine-1:end], "\n")
	return d.chunk
}

// inlineBody returns the code after a header's suite colon when the body sits
// on the same line, or "" for a block body. The suite colon is the first
// colon outside any bracket pair, so parameter annotations and return
// annotations never match. Operates on string-blanked code.
func inlineBody(code string) string {
	depth := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(code[i+1:])
			}
		}
	}
	return ""
}

// sortByStart orders chunks by start line, outer declarations before the
// declarations they contain. Insertion sort: chunk counts per file are small
// and the input is already nearly ordered.
func sortByStart(chunks []domain.Chunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0; j-- {
			a, b := &chunks[j-1], &chunks[j]
			if a.StartLine < b.StartLine {
				break
			}
			if a.StartLine == b.StartLine && a.EndLine >= b.EndLine {
				break
			}
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}

// scanLines classifies each physical line, tracking string, comment, bracket
// and backslash state across lines.
func scanLines(lines []string) ([]lineInfo, error) {
	infos := make([]lineInfo, len(lines))

	var (
		tripleDelim  byte // '\'' or '"', 0 when outside a triple-quoted string
		bracketDepth int
		backslash    bool
	)

	for i, line := range lines {
		startsInString := tripleDelim != 0
		info := lineInfo{
			indent:       visualIndent(line),
			continuation: startsInString || bracketDepth > 0 || backslash,
		}
		backslash = false

		var code strings.Builder
		j := 0
		for j < len(line) {
			ch := line[j]
			if tripleDelim != 0 {
				if ch == tripleDelim && strings.HasPrefix(line[j:], strings.Repeat(string(tripleDelim), 3)) {
					tripleDelim = 0
					j += 3
					continue
				}
				j++
				continue
			}

			switch ch {
			case '#':
				j = len(line) // comment to end of line
			case '\'', '"':
				if strings.HasPrefix(line[j:], strings.Repeat(string(ch), 3)) {
					tripleDelim = ch
					j += 3
					continue
				}
				// Single-quoted string: consume to the closing quote.
				k := j + 1
				for k < len(line) {
					if line[k] == '\\' {
						k += 2
						continue
					}
					if line[k] == ch {
						break
					}
					k++
				}
				if k >= len(line) {
					return nil, fmt.Errorf("line %d: unterminated string literal", i+1)
				}
				j = k + 1
			case '(', '[', '{':
				bracketDepth++
				code.WriteByte(ch)
				j++
			case ')', ']', '}':
				bracketDepth--
				if bracketDepth < 0 {
					return nil, fmt.Errorf("line %d: unbalanced brackets", i+1)
				}
				code.WriteByte(ch)
				j++
			case '\\':
				if j == len(line)-1 {
					backslash = true
				}
				j++
			default:
				code.WriteByte(ch)
				j++
			}
		}

		trimmed := strings.TrimSpace(code.String())
		hadString := startsInString || strings.ContainsAny(line, `'"`)
		info.code = trimmed
		info.blank = trimmed == "" && !hadString && !strings.Contains(line, "#")
		info.comment = trimmed == "" && !hadString && strings.Contains(line, "#")
		infos[i] = info
	}

	if tripleDelim != 0 {
		return nil, fmt.Errorf("unterminated triple-quoted string at end of file")
	}
	if bracketDepth != 0 {
		return nil, fmt.Errorf("unbalanced brackets at end of file")
	}

	return infos, nil
}

// visualIndent computes the indent column of a line; tabs advance to the
// next multiple of 8, matching CPython's tokenizer.
func visualIndent(line string) int {
	col := 0
	for _, r := range line {
		switch r {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		default:
			return col
		}
	}
	return col
}
