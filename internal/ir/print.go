package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders n as stable IR text. Printing the same node twice, or
// printing two structurally-equal (hence reference-equal) nodes, always
// yields the same string.
// Fresh variable numbering is whatever id the Variable node actually
// carries; use Normalize first if a test needs numbering independent of
// global construction order.
func Print(n *Node) string {
	var sb strings.Builder
	printNode(&sb, n)
	return sb.String()
}

func printNode(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case KindTypeVariable:
		sb.WriteString("'" + n.Payload.Text)
	case KindVariableIntTypeParam:
		sb.WriteString("#" + n.Payload.Text)
	case KindConcreteIntTypeParam:
		sb.WriteString(strconv.FormatInt(n.Payload.Int, 10))
	case KindGenericType:
		printGenericType(sb, n)
	case KindTupleType:
		sb.WriteString("(")
		printList(sb, n.Children)
		sb.WriteString(")")
	case KindFunctionType:
		printFunctionType(sb, n)
	case KindStructType:
		printComposite(sb, "struct", n)
	case KindUnionType:
		printComposite(sb, "union", n)
	case KindArrayType:
		sb.WriteString("array<")
		printNode(sb, n.Child(0))
		sb.WriteString(">")
	case KindVectorType:
		sb.WriteString("vector<")
		printNode(sb, n.Child(0))
		fmt.Fprintf(sb, ",%d>", n.Payload.Int)
	case KindRefType:
		sb.WriteString("ref<")
		printNode(sb, n.Child(0))
		sb.WriteString(">")
	case KindChannelType:
		sb.WriteString("channel<")
		printNode(sb, n.Child(0))
		fmt.Fprintf(sb, ",%d>", n.Payload.Int)
	case KindRecType:
		sb.WriteString("rec ")
		printNode(sb, RecTypeVar(n))
		sb.WriteString(".")
		printNode(sb, RecTypeDefinitionOf(n))
	case KindRecTypeDefinition:
		printRecDefinition(sb, n)
	case KindLiteral:
		sb.WriteString(n.Payload.Text)
	case KindVariable:
		fmt.Fprintf(sb, "v%d", n.Payload.Int)
	case KindCallExpr:
		printNode(sb, CallExprFunc(n))
		sb.WriteString("(")
		printList(sb, CallExprArgs(n))
		sb.WriteString(")")
	case KindLambdaExpr:
		printLambdaExpr(sb, n)
	case KindLambdaDefinition:
		printLambdaDefinition(sb, n)
	case KindCastExpr:
		sb.WriteString("CAST<")
		printNode(sb, CastExprTargetType(n))
		sb.WriteString(">(")
		printNode(sb, CastExprOperand(n))
		sb.WriteString(")")
	case KindStructExpr:
		sb.WriteString("struct{")
		printList(sb, StructExprValues(n))
		sb.WriteString("}")
	case KindVectorExpr:
		sb.WriteString("[")
		printList(sb, VectorExprValues(n))
		sb.WriteString("]")
	case KindJobExpr:
		sb.WriteString("job{")
		printNode(sb, JobExprBody(n))
		sb.WriteString("}")
	case KindMarkerExpr:
		printNode(sb, MarkerExprInner(n))
	case KindCompoundStmt:
		sb.WriteString("{\n")
		for _, s := range CompoundStmtBody(n) {
			sb.WriteString("  ")
			printNode(sb, s)
			sb.WriteString(";\n")
		}
		sb.WriteString("}")
	case KindDeclarationStmt:
		sb.WriteString("decl ")
		printNode(sb, DeclarationStmtVar(n))
		if init := DeclarationStmtInit(n); init != nil {
			sb.WriteString(" = ")
			printNode(sb, init)
		}
	case KindIfStmt:
		sb.WriteString("if (")
		printNode(sb, IfStmtCond(n))
		sb.WriteString(") ")
		printNode(sb, IfStmtThen(n))
		if e := IfStmtElse(n); e != nil {
			sb.WriteString(" else ")
			printNode(sb, e)
		}
	case KindWhileStmt:
		sb.WriteString("while (")
		printNode(sb, WhileStmtCond(n))
		sb.WriteString(") ")
		printNode(sb, WhileStmtBody(n))
	case KindForStmt:
		sb.WriteString("for (")
		printNode(sb, ForStmtDecl(n))
		sb.WriteString(" .. ")
		printNode(sb, ForStmtEnd(n))
		sb.WriteString(" : ")
		printNode(sb, ForStmtStep(n))
		sb.WriteString(") ")
		printNode(sb, ForStmtBody(n))
	case KindSwitchStmt:
		printSwitchStmt(sb, n)
	case KindSwitchCase:
		sb.WriteString("case ")
		printNode(sb, SwitchCaseValue(n))
		sb.WriteString(": ")
		printNode(sb, SwitchCaseBody(n))
	case KindBreakStmt:
		sb.WriteString("break")
	case KindContinueStmt:
		sb.WriteString("continue")
	case KindReturnStmt:
		sb.WriteString("return")
		if v := ReturnStmtValue(n); v != nil {
			sb.WriteString(" ")
			printNode(sb, v)
		}
	case KindProgram:
		for i, ep := range ProgramEntryPoints(n) {
			if i > 0 {
				sb.WriteString("\n")
			}
			if EntryPointIsMain(ep) {
				sb.WriteString("@main ")
			}
			printNode(sb, EntryPointExpr(ep))
		}
	case KindFieldEntry:
		sb.WriteString(n.Payload.Text)
		sb.WriteString(": ")
		printNode(sb, n.Child(0))
	default:
		sb.WriteString(n.Kind.String())
	}
}

func printList(sb *strings.Builder, nodes []*Node) {
	for i, c := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		printNode(sb, c)
	}
}

func printGenericType(sb *strings.Builder, n *Node) {
	typeParams, intParams, base := GenericTypeParams(n)
	sb.WriteString(n.Payload.Text)
	if len(typeParams) > 0 || len(intParams) > 0 {
		sb.WriteString("<")
		printList(sb, typeParams)
		if len(typeParams) > 0 && len(intParams) > 0 {
			sb.WriteString(",")
		}
		printList(sb, intParams)
		sb.WriteString(">")
	}
	if base != nil {
		sb.WriteString(" = ")
		printNode(sb, base)
	}
}

func printFunctionType(sb *strings.Builder, n *Node) {
	if !FunctionTypeIsPlain(n) {
		sb.WriteString("closure ")
	}
	sb.WriteString("(")
	printList(sb, FunctionTypeParams(n))
	sb.WriteString(") -> ")
	printNode(sb, FunctionTypeReturn(n))
}

func printComposite(sb *strings.Builder, keyword string, n *Node) {
	sb.WriteString(keyword)
	if n.Payload.Text != "" {
		sb.WriteString(" " + n.Payload.Text)
	}
	sb.WriteString(" {")
	printList(sb, n.Children)
	sb.WriteString("}")
}

func printRecDefinition(sb *strings.Builder, n *Node) {
	vars, bodies := RecTypeDefinitionEntries(n)
	sb.WriteString("{")
	for i := range vars {
		if i > 0 {
			sb.WriteString("; ")
		}
		printNode(sb, vars[i])
		sb.WriteString(" = ")
		printNode(sb, bodies[i])
	}
	sb.WriteString("}")
}

func printLambdaExpr(sb *strings.Builder, n *Node) {
	if LambdaExprIsRecursive(n) {
		sb.WriteString("rec ")
		printNode(sb, LambdaExprRecVar(n))
		sb.WriteString(".")
		printNode(sb, LambdaExprDefinition(n))
		return
	}
	sb.WriteString("fun(")
	printList(sb, LambdaExprParams(n))
	sb.WriteString(") ")
	printNode(sb, LambdaExprBody(n))
}

func printLambdaDefinition(sb *strings.Builder, n *Node) {
	vars, lambdas := LambdaDefinitionEntries(n)
	sb.WriteString("{")
	for i := range vars {
		if i > 0 {
			sb.WriteString("; ")
		}
		printNode(sb, vars[i])
		sb.WriteString(" = ")
		printNode(sb, lambdas[i])
	}
	sb.WriteString("}")
}

func printSwitchStmt(sb *strings.Builder, n *Node) {
	sb.WriteString("switch (")
	printNode(sb, SwitchStmtDiscVarDecl(n))
	sb.WriteString(") {\n")
	for _, c := range SwitchStmtCases(n) {
		sb.WriteString("  ")
		printNode(sb, c)
		sb.WriteString("\n")
	}
	sb.WriteString("  default: ")
	printNode(sb, SwitchStmtDefault(n))
	sb.WriteString("\n}")
}
