package dialectd

import "github.com/leapstack-labs/gotmpl/internal/grammar"

// exprRules is the shared rule registry for dialect D's expression
// grammar: literal/link/chain/unary/binary/nested/expression/filter/
// pipeline, each an opaque handle the converter in
// exprgrammar.go dispatches on by switching on Match.Rule.
var exprRules = grammar.NewRegistry()

var (
	ruleNoneLit     = exprRules.New("none_literal")
	ruleBoolLit     = exprRules.New("boolean_literal")
	ruleNumberLit   = exprRules.New("number_literal")
	ruleStringLit   = exprRules.New("string_literal")
	ruleSuperLit    = exprRules.New("super_literal")
	ruleVariableLit = exprRules.New("variable_literal")
	ruleIdent       = exprRules.New("identifier")
	ruleDotLink     = exprRules.New("dot_link")
	ruleIndexLink   = exprRules.New("index_link")
	ruleChain       = exprRules.New("chain")
	ruleUnary       = exprRules.New("unary")
	ruleBinOp       = exprRules.New("bin_op")
	ruleBinary      = exprRules.New("binary")
	ruleNested      = exprRules.New("nested")
	ruleFilterName  = exprRules.New("filter_name")
	ruleFilter      = exprRules.New("filter")
)
