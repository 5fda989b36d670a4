// Package naiveir is corrax's default Parser and BuildIRFunc: a
// line-oriented scanner with no grammar knowledge, registered for every
// declared language until a real tree-sitter-backed parser is wired in
// its place. It exists so `corrax analyze` runs end to end out of the
// box; it is not a substitute for real syntax analysis, and nodes it
// produces carry only what single-line keyword and punctuation
// heuristics can tell.
package naiveir

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/parserfacade"
)

// Line kinds the scanner assigns. BuildIR maps each to an IR node kind.
const (
	kindDecl   = "decl"
	kindImport = "import"
	kindBranch = "branch"
	kindReturn = "return"
	kindAssign = "assign"
	kindCall   = "call"
	kindLine   = "line"
)

// functionKeywords lists the leading line tokens that introduce a
// function-like declaration across the supported languages. Matching is
// a prefix check against the trimmed line, nothing more.
var functionKeywords = []string{"func ", "def ", "function ", "fn ", "public ", "private ", "static "}

var importKeywords = []string{"import ", "from ", "#include ", "require ", "use "}

var branchKeywords = []string{"if ", "elif ", "else if ", "} else if "}

// languageKeywords are tokens the identifier scanner never treats as a
// variable name. A union across the supported languages is good enough
// at this fidelity.
var languageKeywords = map[string]bool{
	"if": true, "else": true, "elif": true, "for": true, "while": true,
	"return": true, "func": true, "def": true, "function": true, "fn": true,
	"var": true, "let": true, "const": true, "new": true, "nil": true,
	"null": true, "true": true, "false": true, "None": true, "not": true,
	"and": true, "or": true, "in": true, "range": true,
}

// Parser is the thin default parserfacade.Parser: every non-blank line
// becomes a child ASTNode classified by its leading keyword or
// punctuation shape.
var Parser = parserfacade.ParserFunc(parse)

func parse(_ context.Context, path string, source []byte, language parserfacade.Language) (*parserfacade.AST, error) {
	root := &parserfacade.ASTNode{Kind: "file", Token: path}

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++

		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			continue
		}

		root.Children = append(root.Children, &parserfacade.ASTNode{
			Kind:  classify(trimmed),
			Token: trimmed,
			Pos:   parserfacade.Position{StartLine: line, EndLine: line},
		})
	}

	return &parserfacade.AST{Path: path, Language: language, Root: root}, nil
}

func classify(trimmed string) string {
	switch {
	case hasAnyPrefix(trimmed, functionKeywords):
		return kindDecl
	case hasAnyPrefix(trimmed, importKeywords):
		return kindImport
	case hasAnyPrefix(trimmed, branchKeywords):
		return kindBranch
	case trimmed == "return" || strings.HasPrefix(trimmed, "return "):
		return kindReturn
	case isAssignLine(trimmed):
		return kindAssign
	case calleeOf(trimmed) != "":
		return kindCall
	default:
		return kindLine
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}

// isAssignLine treats " = " or " := " (not a comparison) as an
// assignment.
func isAssignLine(trimmed string) bool {
	if strings.Contains(trimmed, "==") {
		return false
	}

	_, _, ok := splitAssign(trimmed)

	return ok
}

// splitAssign splits an assignment line into its left- and right-hand
// sides around " := " or " = ".
func splitAssign(line string) (lhs, rhs string, ok bool) {
	for _, op := range []string{" := ", " = "} {
		idx := strings.Index(line, op)
		if idx > 0 {
			return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(op):]), true
		}
	}

	return "", "", false
}

// BuildIR is the thin default pipeline.BuildIRFunc. One KindFile node
// anchors the document; each "decl" line opens a KindFunction scope that
// contains the statement nodes (branches, assignments, call sites,
// return sites) built from the lines after it. Statements above the
// first declaration land in a synthesized "<module>" function, the way
// script-level code executes in module scope. Path-shaped import
// targets are recorded for dependency-graph construction; bare package
// imports are dropped as external.
func BuildIR(ast *parserfacade.AST, fingerprint ir.Fingerprint) (*ir.IRDocument, error) {
	fileID := ir.FileID{Path: ast.Path, Language: string(ast.Language)}
	doc := ir.NewIRDocument(fileID, fingerprint)

	fileNode := ir.NewNode(ast.Path, ir.KindFile, ast.Path, 1, 1)
	doc.AddNode(fileNode)

	if ast.Root == nil {
		return doc, nil
	}

	b := &builder{doc: doc, fileNode: fileNode, path: ast.Path}

	for _, child := range ast.Root.Children {
		b.addLine(child)
	}

	b.close()

	return doc, nil
}

type builder struct {
	doc      *ir.IRDocument
	fileNode *ir.Node
	path     string

	current  *ir.Node
	moduleFn *ir.Node
	lastLine int
}

func (b *builder) addLine(n *parserfacade.ASTNode) {
	b.lastLine = n.Pos.EndLine

	switch n.Kind {
	case kindDecl:
		b.openFunction(n)
	case kindImport:
		b.addImport(n.Token)
	case kindBranch:
		b.contain(b.branchNode(n))
	case kindReturn:
		b.contain(b.returnNode(n))
	case kindAssign:
		b.contain(b.assignNode(n))
	case kindCall:
		b.contain(b.callNode(n))
	}
}

func (b *builder) openFunction(n *parserfacade.ASTNode) {
	b.closeCurrent(n.Pos.StartLine - 1)

	fn := ir.NewNode(b.path, ir.KindFunction, declName(n.Token), n.Pos.StartLine, n.Pos.EndLine)
	b.doc.AddNode(fn)
	b.doc.AddEdge(ir.NewEdge(b.fileNode.ID, fn.ID, ir.EdgeContains))
	b.current = fn
}

// contain attaches a statement node to the enclosing function,
// synthesizing the module-scope function for statements outside any
// declaration.
func (b *builder) contain(stmt *ir.Node) {
	b.doc.AddNode(stmt)

	owner := b.current
	if owner == nil {
		if b.moduleFn == nil {
			b.moduleFn = ir.NewNode(b.path, ir.KindFunction, "<module>", 1, 1)
			b.doc.AddNode(b.moduleFn)
			b.doc.AddEdge(ir.NewEdge(b.fileNode.ID, b.moduleFn.ID, ir.EdgeContains))
		}

		owner = b.moduleFn
	}

	b.doc.AddEdge(ir.NewEdge(owner.ID, stmt.ID, ir.EdgeContains))
}

func (b *builder) branchNode(n *parserfacade.ASTNode) *ir.Node {
	return ir.NewNode(b.path, ir.KindBranch, "if", n.Pos.StartLine, n.Pos.EndLine).
		WithAttr(ir.AttrCondition, branchCondition(n.Token)).
		WithAttr(ir.AttrUses, identList(n.Token))
}

func (b *builder) returnNode(n *parserfacade.ASTNode) *ir.Node {
	return ir.NewNode(b.path, ir.KindReturnSite, "return", n.Pos.StartLine, n.Pos.EndLine).
		WithAttr(ir.AttrUses, identList(strings.TrimPrefix(n.Token, "return")))
}

// assignNode builds either a CallSite (when the right-hand side is a
// call, so source/sink matchers see the callee name with the assigned
// variable as its def) or a plain Assignment.
func (b *builder) assignNode(n *parserfacade.ASTNode) *ir.Node {
	lhs, rhs, _ := splitAssign(n.Token)

	def := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(lhs, "var "), "let "), "const ")

	if callee := calleeOf(rhs); callee != "" {
		return ir.NewNode(b.path, ir.KindCallSite, callee, n.Pos.StartLine, n.Pos.EndLine).
			WithAttr(ir.AttrDefs, def).
			WithAttr(ir.AttrUses, identList(argsOf(rhs)))
	}

	return ir.NewNode(b.path, ir.KindAssignment, n.Token, n.Pos.StartLine, n.Pos.EndLine).
		WithAttr(ir.AttrDefs, def).
		WithAttr(ir.AttrUses, identList(rhs))
}

func (b *builder) callNode(n *parserfacade.ASTNode) *ir.Node {
	return ir.NewNode(b.path, ir.KindCallSite, calleeOf(n.Token), n.Pos.StartLine, n.Pos.EndLine).
		WithAttr(ir.AttrUses, identList(argsOf(n.Token)))
}

// addImport records path-shaped targets only: a bare package name
// cannot be resolved to a repository file at this fidelity, and the
// dependency graph ignores external imports anyway.
func (b *builder) addImport(token string) {
	fields := strings.Fields(token)
	if len(fields) < 2 {
		return
	}

	target := strings.Trim(fields[1], `"'<>();`)
	if strings.ContainsRune(target, '/') || strings.ContainsRune(target, '.') {
		b.doc.Imports = append(b.doc.Imports, target)
	}
}

// closeCurrent patches the span of the function being left behind.
func (b *builder) closeCurrent(endLine int) {
	if b.current != nil && endLine > b.current.EndLine {
		b.current.EndLine = endLine
	}
}

func (b *builder) close() {
	b.closeCurrent(b.lastLine)

	if b.moduleFn != nil {
		b.moduleFn.EndLine = b.lastLine
	}
}

// declName extracts the token following the first whitespace-delimited
// keyword on a decl line, falling back to the whole line when no such
// token exists.
func declName(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return line
	}

	name := fields[1]
	name = strings.TrimSuffix(name, "(")
	name = strings.SplitN(name, "(", 2)[0]

	return name
}

// branchCondition strips the branch keyword and block punctuation,
// leaving the raw condition text (e.g. "x > 10").
func branchCondition(token string) string {
	for _, kw := range branchKeywords {
		token = strings.TrimPrefix(token, kw)
	}

	token = strings.TrimSuffix(strings.TrimSuffix(token, "{"), ":")
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "(")
	token = strings.TrimSuffix(token, ")")

	return strings.TrimSpace(token)
}

// calleeOf returns the dotted identifier immediately preceding an
// opening parenthesis at the start of expr, or "".
func calleeOf(expr string) string {
	open := strings.IndexByte(expr, '(')
	if open <= 0 {
		return ""
	}

	name := expr[:open]
	if name == "" || !isDottedIdent(name) {
		return ""
	}

	return name
}

// argsOf returns the text between a call's outermost parentheses.
func argsOf(expr string) string {
	open := strings.IndexByte(expr, '(')
	if open < 0 {
		return ""
	}

	closing := strings.LastIndexByte(expr, ')')
	if closing <= open {
		return expr[open+1:]
	}

	return expr[open+1 : closing]
}

func isDottedIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// identList scans expr for identifier tokens, skipping keywords and
// numbers, and joins them comma-separated for the def/use attributes.
func identList(expr string) string {
	var idents []string

	seen := make(map[string]bool)

	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}

		tok := expr[start:end]
		start = -1

		if languageKeywords[tok] || seen[tok] || !isDottedIdent(tok) || isNumeric(tok) {
			return
		}

		seen[tok] = true

		idents = append(idents, tok)
	}

	for i, r := range expr {
		isIdentRune := r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')

		if isIdentRune {
			if start < 0 {
				start = i
			}

			continue
		}

		flush(i)
	}

	flush(len(expr))

	return strings.Join(idents, ",")
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}

	return true
}
