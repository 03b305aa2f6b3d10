// Package lint provides a static check for work order status literals.
//
// Statuses are a closed set declared as constants in the domain package.
// The analyzer reports string literals used where a domain.Status is
// expected, outside the domain package itself:
//   - conversions such as domain.Status("received")
//   - comparisons such as wo.Status == "received"
//   - switch cases on a Status value
//
// Literals that match a declared constant get the constant's name as a
// suggestion; anything else is reported as an unknown status.
//
// Usage:
//
//	go install github.com/example/workorders/cmd/workorder-lint@latest
//	workorder-lint ./...
package lint

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer is the status literal analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "statuslint",
	Doc:      "reports string literals used as work order statuses",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const (
	domainPkgName  = "domain"
	statusTypeName = "Status"
)

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() == domainPkgName {
		return nil, nil
	}
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
		(*ast.BinaryExpr)(nil),
		(*ast.SwitchStmt)(nil),
	}
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.CallExpr:
			checkConversion(pass, n)
		case *ast.BinaryExpr:
			checkComparison(pass, n)
		case *ast.SwitchStmt:
			checkSwitch(pass, n)
		}
	})
	return nil, nil
}

// checkConversion reports domain.Status("...").
func checkConversion(pass *analysis.Pass, call *ast.CallExpr) {
	if len(call.Args) != 1 {
		return
	}
	tv, ok := pass.TypesInfo.Types[call.Fun]
	if !ok || !tv.IsType() {
		return
	}
	named := statusType(tv.Type)
	if named == nil {
		return
	}
	if lit := stringLit(call.Args[0]); lit != nil {
		report(pass, named, lit, "conversion")
	}
}

// checkComparison reports a Status compared against a string literal.
func checkComparison(pass *analysis.Pass, bin *ast.BinaryExpr) {
	if bin.Op != token.EQL && bin.Op != token.NEQ {
		return
	}
	for _, pair := range [][2]ast.Expr{{bin.X, bin.Y}, {bin.Y, bin.X}} {
		named := statusType(pass.TypesInfo.TypeOf(pair[0]))
		if named == nil {
			continue
		}
		if lit := stringLit(pair[1]); lit != nil {
			report(pass, named, lit, "comparison")
			return
		}
	}
}

// checkSwitch reports string literal cases in a switch on a Status.
func checkSwitch(pass *analysis.Pass, sw *ast.SwitchStmt) {
	if sw.Tag == nil {
		return
	}
	named := statusType(pass.TypesInfo.TypeOf(sw.Tag))
	if named == nil {
		return
	}
	for _, stmt := range sw.Body.List {
		clause, ok := stmt.(*ast.CaseClause)
		if !ok {
			continue
		}
		for _, expr := range clause.List {
			if lit := stringLit(expr); lit != nil {
				report(pass, named, lit, "case")
			}
		}
	}
}

func report(pass *analysis.Pass, named *types.Named, lit *ast.BasicLit, where string) {
	value := constant.StringVal(constant.MakeFromLiteral(lit.Value, lit.Kind, 0))
	if name := constantFor(named, value); name != "" {
		pass.Reportf(lit.Pos(), "status literal %q in %s: use %s.%s", value, where, domainPkgName, name)
		return
	}
	pass.Reportf(lit.Pos(), "unknown status %q in %s", value, where)
}

// statusType returns t as the domain Status type, or nil.
func statusType(t types.Type) *types.Named {
	named, ok := t.(*types.Named)
	if !ok {
		return nil
	}
	obj := named.Obj()
	if obj.Name() != statusTypeName || obj.Pkg() == nil || obj.Pkg().Name() != domainPkgName {
		return nil
	}
	return named
}

// constantFor finds the package-level constant of type named holding value.
func constantFor(named *types.Named, value string) string {
	scope := named.Obj().Pkg().Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok || !types.Identical(c.Type(), named) || c.Val().Kind() != constant.String {
			continue
		}
		if constant.StringVal(c.Val()) == value {
			return name
		}
	}
	return ""
}

func stringLit(expr ast.Expr) *ast.BasicLit {
	if lit, ok := astutil.Unparen(expr).(*ast.BasicLit); ok && lit.Kind == token.STRING {
		return lit
	}
	return nil
}
