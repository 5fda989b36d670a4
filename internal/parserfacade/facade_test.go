package parserfacade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/parserfacade"
)

func stubParser(lang parserfacade.Language) parserfacade.Parser {
	return parserfacade.ParserFunc(func(_ context.Context, path string, _ []byte, l parserfacade.Language) (*parserfacade.AST, error) {
		return &parserfacade.AST{
			Path:     path,
			Language: l,
			Root:     &parserfacade.ASTNode{Kind: "File", Token: path},
		}, nil
	})
}

func TestFacadeParseWithDeclaredLanguage(t *testing.T) {
	t.Parallel()

	f := parserfacade.New()
	f.Register(parserfacade.LanguageGo, stubParser(parserfacade.LanguageGo))

	ast, err := f.Parse(context.Background(), "main.go", []byte("package main"), parserfacade.LanguageGo)
	require.NoError(t, err)
	assert.Equal(t, parserfacade.LanguageGo, ast.Language)
	assert.Equal(t, "File", ast.Root.Kind)
}

func TestFacadeParseDetectsLanguageWhenUndeclared(t *testing.T) {
	t.Parallel()

	f := parserfacade.New()
	f.Register(parserfacade.LanguageGo, stubParser(parserfacade.LanguageGo))

	ast, err := f.Parse(context.Background(), "main.go", []byte("package main\n\nfunc main() {}\n"), parserfacade.LanguageUnknown)
	require.NoError(t, err)
	assert.Equal(t, parserfacade.LanguageGo, ast.Language)
}

func TestFacadeParseUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	f := parserfacade.New()

	_, err := f.Parse(context.Background(), "main.rb", []byte("puts 1"), parserfacade.LanguageUnknown)
	require.Error(t, err)

	var unsupported *parserfacade.ErrUnsupportedLanguage
	assert.ErrorAs(t, err, &unsupported)
}

func TestASTNodeWalkVisitsAllDescendants(t *testing.T) {
	t.Parallel()

	root := &parserfacade.ASTNode{
		Kind: "File",
		Children: []*parserfacade.ASTNode{
			{Kind: "Function", Token: "main"},
			{Kind: "Import", Token: "fmt"},
		},
	}

	var kinds []string
	root.Walk(func(n *parserfacade.ASTNode) {
		kinds = append(kinds, n.Kind)
	})

	assert.Equal(t, []string{"File", "Function", "Import"}, kinds)
}
