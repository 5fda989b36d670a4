// Package parserfacade defines the narrow boundary between corrax's core
// (IR construction, pipeline, analyses) and concrete parser libraries. The
// core never imports a tree-sitter binding or any language-specific
// grammar directly; it talks to the single Parser interface declared
// here, exactly as §6 of the system overview requires.
package parserfacade

import (
	"context"
	"fmt"

	enry "github.com/src-d/enry/v2"
)

// Language identifies the source language of a file. Configuration
// declares which languages a run accepts; the facade never invents one
// outside that set.
type Language string

// Declared languages. Concrete grammars live outside this module; adding
// a language here only changes what the facade will route and detect,
// not how it is parsed.
const (
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguageKotlin     Language = "kotlin"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageUnknown    Language = ""
)

// Position is a 1-based line/column span, with 0-based byte offsets.
type Position struct {
	StartLine, StartCol, StartOffset int
	EndLine, EndCol, EndOffset       int
}

// AST is the parsed tree handed to IR construction. It is deliberately a
// plain tree of untyped syntax kinds and tokens rather than a
// language-specific structure, so internal/ir stays parser-agnostic.
type AST struct {
	Path     string
	Language Language
	Root     *ASTNode
}

// ASTNode is one node of a parsed tree.
type ASTNode struct {
	Kind     string
	Token    string
	Pos      Position
	Props    map[string]string
	Children []*ASTNode
}

// Walk visits n and every descendant in depth-first pre-order.
func (n *ASTNode) Walk(visit func(*ASTNode)) {
	if n == nil {
		return
	}

	visit(n)

	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// Parser parses source bytes into an AST. Implementations must be
// deterministic: the same (path, source, language) always yields an
// equal tree, since IR ids and fingerprints are derived from parse
// output. The core depends only on this interface; concrete grammars are
// registered by the caller (CLI or embedding application), never
// imported here.
type Parser interface {
	Parse(ctx context.Context, path string, source []byte, language Language) (*AST, error)
}

// ParserFunc adapts a function to a Parser.
type ParserFunc func(ctx context.Context, path string, source []byte, language Language) (*AST, error)

// Parse implements Parser.
func (f ParserFunc) Parse(ctx context.Context, path string, source []byte, language Language) (*AST, error) {
	return f(ctx, path, source, language)
}

// Facade routes a file to the Parser registered for its language,
// detecting the language with enry when the caller does not declare one.
type Facade struct {
	parsers map[Language]Parser
}

// New creates a Facade with no registered parsers. Register at least one
// before calling Parse, or every call returns ErrUnsupportedLanguage.
func New() *Facade {
	return &Facade{parsers: make(map[Language]Parser)}
}

// Register associates a Parser with a language. A later call for the
// same language replaces the previous registration.
func (f *Facade) Register(lang Language, p Parser) {
	f.parsers[lang] = p
}

// ErrUnsupportedLanguage is returned when no parser is registered for the
// resolved language.
type ErrUnsupportedLanguage struct {
	Language Language
}

func (e *ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("parserfacade: no parser registered for language %q", e.Language)
}

// Parse resolves the language (using declared when non-empty, enry
// detection from path and content otherwise) and delegates to the
// registered Parser.
func (f *Facade) Parse(ctx context.Context, path string, source []byte, declared Language) (*AST, error) {
	lang := declared
	if lang == LanguageUnknown {
		lang = DetectLanguage(path, source)
	}

	p, ok := f.parsers[lang]
	if !ok {
		return nil, &ErrUnsupportedLanguage{Language: lang}
	}

	return p.Parse(ctx, path, source, lang)
}

// DetectLanguage falls back to enry's classifier when a caller omits the
// language, mapping its canonical name onto our declared Language set.
// Languages enry recognizes but that are not in the declared set resolve
// to LanguageUnknown; the facade never guesses outside configuration.
func DetectLanguage(path string, source []byte) Language {
	detected := enry.GetLanguage(path, source)

	if lang, ok := enryToLanguage[detected]; ok {
		return lang
	}

	return LanguageUnknown
}

var enryToLanguage = map[string]Language{
	"Go":         LanguageGo,
	"Python":     LanguagePython,
	"JavaScript": LanguageJavaScript,
	"TypeScript": LanguageTypeScript,
	"Rust":       LanguageRust,
	"Java":       LanguageJava,
	"Kotlin":     LanguageKotlin,
	"C":          LanguageC,
	"C++":        LanguageCPP,
}
