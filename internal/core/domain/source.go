package domain

// Supported language tags.
const (
	LanguagePython   = "python"
	LanguageGo       = "go"
	LanguageMarkdown = "markdown"
)

// SourceFile is a candidate file yielded by the repository walk. It is
// ephemeral: read once per indexing pass and never persisted.
type SourceFile struct {
	// Path is the file path relative to the repository root.
	Path string

	// Language is the detected language tag.
	Language string

	// Content is the raw file text.
	Content string
}
