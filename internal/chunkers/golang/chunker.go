// Package golang provides the structural chunker for Go source files,
// built on the standard go/parser syntax tree.
package golang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker emits chunks for Go declarations.
type Chunker struct{}

// New creates a Go chunker.
func New() *Chunker {
	return &Chunker{}
}

// Language returns the language tag this chunker handles.
func (c *Chunker) Language() string {
	return domain.LanguageGo
}

// Extensions returns the file extensions mapped to Go.
func (c *Chunker) Extensions() []string {
	return []string{".go"}
}

// Chunk parses the file and returns its chunks in source order. Type
// declarations become class chunks, functions become function chunks, and
// methods become method chunks parented to their receiver's type chunk when
// that type is declared in the same file.
func (c *Chunker) Chunk(file domain.SourceFile) ([]domain.Chunk, error) {
	if strings.TrimSpace(file.Content) == "" {
		return nil, nil
	}

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file.Path, file.Content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, file.Path, err)
	}

	lines := strings.Split(file.Content, "\n")

	var chunks []domain.Chunk
	typeIDs := make(map[string]string)
	moduleLevel := false

	// First pass: type declarations, so methods can resolve their parent.
	for _, decl := range parsed.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch gen.Tok {
		case token.TYPE:
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				start := ts.Pos()
				// A doc comment on an ungrouped type belongs to the type.
				// Grouped specs keep their own positions so IDs stay unique.
				if len(gen.Specs) == 1 && gen.Doc != nil {
					start = gen.Doc.Pos()
				}
				ch := c.newChunk(file, fset, lines, start, ts.End(), domain.ChunkKindClass, ts.Name.Name)
				typeIDs[ts.Name.Name] = ch.ID
				chunks = append(chunks, ch)
			}
		case token.VAR, token.CONST:
			moduleLevel = true
		}
	}

	// Second pass: functions and methods.
	for _, decl := range parsed.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		kind := domain.ChunkKindFunction
		parentID := ""
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			kind = domain.ChunkKindMethod
			if id, ok := typeIDs[receiverTypeName(fn.Recv.List[0].Type)]; ok {
				parentID = id
			}
		}

		start := fn.Pos()
		if fn.Doc != nil {
			start = fn.Doc.Pos()
		}

		ch := c.newChunk(file, fset, lines, start, fn.End(), kind, fn.Name.Name)
		ch.ParentID = parentID
		chunks = append(chunks, ch)
	}

	if moduleLevel {
		lineCount := len(lines)
		if lineCount > 0 && lines[lineCount-1] == "" {
			lineCount--
		}
		module := domain.Chunk{
			ID:        domain.NewChunkID(file.Path, 1, domain.ChunkKindModule),
			Kind:      domain.ChunkKindModule,
			Name:      strings.TrimSuffix(filepath.Base(file.Path), ".go"),
			Language:  domain.LanguageGo,
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

// newChunk builds a chunk spanning the given positions.
func (c *Chunker) newChunk(
	file domain.SourceFile, fset *token.FileSet, lines []string,
	start, end token.Pos, kind domain.ChunkKind, name string,
) domain.Chunk {
	startLine := fset.Position(start).Line
	endLine := fset.Position(end).Line
	if endLine > len(lines) {
		endLine = len(lines)
	}

	return domain.Chunk{
		ID:        domain.NewChunkID(file.Path, startLine, kind),
		Kind:      kind,
		Name:      name,
		Language:  domain.LanguageGo,
		FilePath:  file.Path,
		StartLine: startLine,
		EndLine:   endLine,
		Content:   strings.Join(lines[startLine-1:endLine], "\n"),
	}
}

// receiverTypeName extracts the bare type name from a method receiver
// expression, unwrapping pointers and type parameters.
func receiverTypeName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

// sortByStart orders chunks by start line, outer spans first on ties.
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
