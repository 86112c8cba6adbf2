package convert

import (
	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/ir"
)

// matchesIntercept reports whether qualifiedName matches one of the
// --intercept regexes, grounded on the original compiler's interceptor
// extension (code/frontend/src/extensions/interceptor_extension.cpp):
// a name matching the intercepted-namespace list is substituted with an
// opaque literal rather than converted.
func matchesIntercept(cc *ConversionContext, qualifiedName string) bool {
	for _, re := range cc.interceptRe {
		if re.MatchString(qualifiedName) {
			return true
		}
	}
	return false
}

// InterceptFuncDecl returns the cached opaque Literal standing in for decl
// if its qualified name is intercepted, along with true. ok is false (and
// the caller should fall through to ordinary lowering) when nothing
// matches.
func InterceptFuncDecl(cc *ConversionContext, decl srcast.FuncDecl, qualifiedName string) (*ir.Node, bool, error) {
	if !matchesIntercept(cc, qualifiedName) {
		return nil, false, nil
	}
	if cached, ok := cc.intercepted[qualifiedName]; ok {
		return cached, true, nil
	}
	ft, err := funcDeclType(cc, decl, false)
	if err != nil {
		return nil, true, err
	}
	lit, err := cc.M.Literal(qualifiedName, ft)
	if err != nil {
		return nil, true, err
	}
	lit.Annotate(ir.AnnotationIntercepted, qualifiedName)
	cc.intercepted[qualifiedName] = lit
	cc.funcLambdas[decl] = lit
	return lit, true, nil
}

// InterceptGlobal is the same substitution for a global variable reference:
// the original's ValueDeclPostVisit swaps a global's ordinary literal for
// one carrying its qualified name instead, so a downstream linking step can
// bind it to the intercepted party's own storage rather than the aggregate
// this converter builds for ordinary globals.
func InterceptGlobal(cc *ConversionContext, decl srcast.VarDecl, qualifiedName string) (*ir.Node, bool, error) {
	if !matchesIntercept(cc, qualifiedName) {
		return nil, false, nil
	}
	if cached, ok := cc.intercepted[qualifiedName]; ok {
		return cached, true, nil
	}
	typ, err := LowerType(cc, decl.Type())
	if err != nil {
		return nil, true, err
	}
	lit, err := cc.M.Literal(qualifiedName, typ)
	if err != nil {
		return nil, true, err
	}
	lit.Annotate(ir.AnnotationIntercepted, qualifiedName)
	cc.intercepted[qualifiedName] = lit
	return lit, true, nil
}
