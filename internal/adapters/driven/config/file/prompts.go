package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptExplainSystem: `Your task is to generate clear, concise explanations of code snippets for both humans and AI to understand. Follow these guidelines:

1. Content:
   - Explain the code's purpose and functionality.
   - Use the active voice and imperative tense throughout.
   - Target developers familiar with basic concepts.
   - Scale detail based on content complexity: 100-150 words for simple snippets, 150-200 for moderate complexity, and 200-250 for highly complex content.
   - For larger snippets, provide a concise overview (2-3 sentences) before delving into specifics.

2. Focus:
   - Prioritize information from docstrings and important comments, integrating their essence without direct quoting.
   - Highlight use of standard library, popular third-party packages, and idioms.
   - Explain non-obvious code sections or design choices.

3. Boundaries:
   - Focus only on explaining functionality and purpose.
   - Avoid suggesting improvements or commenting on code quality.
   - If you are not sure, it is better to answer "I don't know" than to ask follow-up questions.`,

	driven.PromptExplainUser: `Explain the following code snippet from the file '%s'.

<CODE>
%s
</CODE>`,

	driven.PromptAnswerSystem: `You are an assistant specialized in answering questions about a codebase based on the provided reference materials.

CONTEXT HANDLING:
1. Treat the provided context as reference documentation you can consult.
2. Reference it naturally as "the documentation" or "the reference implementation".
3. If something isn't covered in the context, acknowledge the limitation.
4. Use higher-scored items as primary reference sources; don't mention scores in responses.

RESPONSE PRINCIPLES:
1. Begin with a clear, direct answer to the question.
2. Support your response with relevant information from the context.
3. Be transparent about what information is and isn't available in the context.
4. Provide a complete answer in a single step - avoid suggesting follow-up questions.
5. If you're unsure, it's better to say "I don't know" than to provide inaccurate information.

CONTEXT FORMAT:
The context consists of multiple items, each structured as follows:

<ITEM id="{id}">
<FILE_PATH>{file_path}</FILE_PATH>
<TYPE>{type}</TYPE>
<NAME>{name}</NAME>
<EXPLAIN>{explanation}</EXPLAIN>
<CONTENT>{content}</CONTENT>
</ITEM>`,

	driven.PromptAnswerUser: `<CONTEXT>
%s
</CONTEXT>

Query: %s

REMEMBER:
- Maintain a professional, respectful, and helpful tone.
- If you're unsure, it's better to say "I don't know" than to provide inaccurate information.
- The goal is to provide the most helpful and accurate response possible based solely on the query and the given context items.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.codeqa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".codeqa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# CodeQA Prompts

This directory contains customisable prompts used when indexing and answering
questions about a codebase.

## Files

- ` + "`explain_system.txt`" + ` - System prompt for chunk explanation
- ` + "`explain_user.txt`" + ` - User template for chunk explanation
- ` + "`answer_system.txt`" + ` - System prompt for grounded answering
- ` + "`answer_user.txt`" + ` - User template for grounded answering

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next
command.

## Format Placeholders

The user templates use Go fmt placeholders:
- ` + "`explain_user.txt`" + ` - first ` + "`%s`" + ` is the file path, second is the code
- ` + "`answer_user.txt`" + ` - first ` + "`%s`" + ` is the context, second is the question

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
