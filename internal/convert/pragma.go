package convert

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

// ClauseValue is the value carried by one pragma clause occurrence: an
// identifier list (`private(a,b)`), a scalar expression
// (`num_threads(n)`), or a literal enum string (`default(shared)`).
type ClauseValue struct {
	Idents []string
	Expr   srcast.Node
	Enum   string
}

// MatchMap is the pragma match map consumed at the statement it annotates:
// clause-name -> value-list. ConversionContext.pragmas maps a statement to
// its MatchMap.
type MatchMap map[string][]ClauseValue

// DirectiveFamily names one of the recognized pragma families.
type DirectiveFamily string

const (
	DirectiveParallel      DirectiveFamily = "parallel"
	DirectiveFor           DirectiveFamily = "for"
	DirectiveSections      DirectiveFamily = "sections"
	DirectiveSection       DirectiveFamily = "section"
	DirectiveSingle        DirectiveFamily = "single"
	DirectiveTask          DirectiveFamily = "task"
	DirectiveMaster        DirectiveFamily = "master"
	DirectiveCritical      DirectiveFamily = "critical"
	DirectiveBarrier       DirectiveFamily = "barrier"
	DirectiveTaskwait      DirectiveFamily = "taskwait"
	DirectiveAtomic        DirectiveFamily = "atomic"
	DirectiveFlush         DirectiveFamily = "flush"
	DirectiveOrdered       DirectiveFamily = "ordered"
	DirectiveThreadprivate DirectiveFamily = "threadprivate"
)

// ReductionOp is one of the eight OpenMP reduction operators.
type ReductionOp string

const (
	ReduceAdd  ReductionOp = "+"
	ReduceSub  ReductionOp = "-"
	ReduceMul  ReductionOp = "*"
	ReduceAnd  ReductionOp = "&"
	ReduceOr   ReductionOp = "|"
	ReduceXor  ReductionOp = "^"
	ReduceLAnd ReductionOp = "&&"
	ReduceLOr  ReductionOp = "||"
)

var validReductionOps = map[ReductionOp]bool{
	ReduceAdd: true, ReduceSub: true, ReduceMul: true, ReduceAnd: true,
	ReduceOr: true, ReduceXor: true, ReduceLAnd: true, ReduceLOr: true,
}

// ScheduleKind is one of the five `schedule` clause kinds.
type ScheduleKind string

const (
	ScheduleStatic  ScheduleKind = "static"
	ScheduleDynamic ScheduleKind = "dynamic"
	ScheduleGuided  ScheduleKind = "guided"
	ScheduleAuto    ScheduleKind = "auto"
	ScheduleRuntime ScheduleKind = "runtime"
)

var validScheduleKinds = map[ScheduleKind]bool{
	ScheduleStatic: true, ScheduleDynamic: true, ScheduleGuided: true,
	ScheduleAuto: true, ScheduleRuntime: true,
}

// ReductionClause is a decoded `reduction(op: list)` clause.
type ReductionClause struct {
	Op   ReductionOp
	Vars []string
}

// ScheduleSpec is a decoded `schedule(kind[, chunk])` clause.
type ScheduleSpec struct {
	Kind  ScheduleKind
	Chunk srcast.Node
}

// ParallelAnnotation is the decoded form of a `parallel` directive; `for`
// embeds it since every `for`-directive clause the `parallel` family
// accepts remains valid there.
type ParallelAnnotation struct {
	If            srcast.Node
	NumThreads    srcast.Node
	DefaultShared *bool // nil = unspecified, true = shared, false = none
	Private       []string
	Firstprivate  []string
	Shared        []string
	Copyin        []string
	Reductions    []ReductionClause
}

type ForAnnotation struct {
	ParallelAnnotation
	Lastprivate []string
	Schedule    *ScheduleSpec
	Collapse    int
	NoWait      bool
}

type SectionsAnnotation struct {
	Private      []string
	Firstprivate []string
	Lastprivate  []string
	Reductions   []ReductionClause
	NoWait       bool
}

type SingleAnnotation struct {
	Private      []string
	Firstprivate []string
	Copyprivate  []string
	NoWait       bool
}

type TaskAnnotation struct {
	If            srcast.Node
	Untied        bool
	DefaultShared *bool
	Private       []string
	Firstprivate  []string
	Shared        []string
}

// CriticalAnnotation, FlushAnnotation, ThreadprivateAnnotation carry the
// one optional argument their clause takes; MasterAnnotation,
// BarrierAnnotation, TaskwaitAnnotation, AtomicAnnotation,
// OrderedAnnotation are singleton markers with no payload.
type CriticalAnnotation struct{ Name string }
type FlushAnnotation struct{ Vars []string }
type ThreadprivateAnnotation struct{ Vars []string }
type MasterAnnotation struct{}
type BarrierAnnotation struct{}
type TaskwaitAnnotation struct{}
type AtomicAnnotation struct{}
type OrderedAnnotation struct{}

func identList(mm MatchMap, clause string) []string {
	vals, ok := mm[clause]
	if !ok {
		return nil
	}
	var out []string
	for _, v := range vals {
		out = append(out, v.Idents...)
	}
	return lo.Uniq(out)
}

func scalarExpr(mm MatchMap, clause string) srcast.Node {
	vals, ok := mm[clause]
	if !ok || len(vals) == 0 {
		return nil
	}
	return vals[0].Expr
}

func enumValue(mm MatchMap, clause string) (string, bool) {
	vals, ok := mm[clause]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0].Enum, true
}

func hasClause(mm MatchMap, clause string) bool {
	_, ok := mm[clause]
	return ok
}

func defaultSharedOf(mm MatchMap) (*bool, error) {
	v, ok := enumValue(mm, "default")
	if !ok {
		return nil, nil
	}
	switch v {
	case "shared":
		b := true
		return &b, nil
	case "none":
		b := false
		return &b, nil
	default:
		return nil, fmt.Errorf("default clause: unknown value %q", v)
	}
}

func reductionsOf(mm MatchMap) ([]ReductionClause, error) {
	vals, ok := mm["reduction"]
	if !ok {
		return nil, nil
	}
	var out []ReductionClause
	for _, v := range vals {
		op := ReductionOp(v.Enum)
		if !validReductionOps[op] {
			return nil, fmt.Errorf("reduction clause: unknown operator %q", v.Enum)
		}
		out = append(out, ReductionClause{Op: op, Vars: v.Idents})
	}
	return out, nil
}

func scheduleOf(mm MatchMap) (*ScheduleSpec, error) {
	vals, ok := mm["schedule"]
	if !ok || len(vals) == 0 {
		return nil, nil
	}
	v := vals[0]
	kind := ScheduleKind(v.Enum)
	if !validScheduleKinds[kind] {
		return nil, fmt.Errorf("schedule clause: unknown kind %q", v.Enum)
	}
	spec := &ScheduleSpec{Kind: kind}
	if len(v.Idents) == 0 && v.Expr != nil {
		spec.Chunk = v.Expr
	}
	return spec, nil
}

func parallelAnnotationOf(mm MatchMap) (ParallelAnnotation, error) {
	defShared, err := defaultSharedOf(mm)
	if err != nil {
		return ParallelAnnotation{}, err
	}
	reductions, err := reductionsOf(mm)
	if err != nil {
		return ParallelAnnotation{}, err
	}
	return ParallelAnnotation{
		If:            scalarExpr(mm, "if"),
		NumThreads:    scalarExpr(mm, "num_threads"),
		DefaultShared: defShared,
		Private:       identList(mm, "private"),
		Firstprivate:  identList(mm, "firstprivate"),
		Shared:        identList(mm, "shared"),
		Copyin:        identList(mm, "copyin"),
		Reductions:    reductions,
	}, nil
}

// ReadDirective decodes mm according to family, returning one of the
// Annotation structs above as `any`. Callers attach the result to the
// annotated statement under ir.AnnotationOpenMPDirective.
func ReadDirective(family DirectiveFamily, mm MatchMap) (any, error) {
	switch family {
	case DirectiveParallel:
		return parallelAnnotationOf(mm)
	case DirectiveFor:
		base, err := parallelAnnotationOf(mm)
		if err != nil {
			return nil, err
		}
		sched, err := scheduleOf(mm)
		if err != nil {
			return nil, err
		}
		collapse := 1
		if vals, ok := mm["collapse"]; ok && len(vals) > 0 && vals[0].Expr != nil {
			if lit, ok := vals[0].Expr.(srcast.IntLiteral); ok {
				collapse = int(lit.Value())
			}
		}
		return ForAnnotation{
			ParallelAnnotation: base,
			Lastprivate:        identList(mm, "lastprivate"),
			Schedule:           sched,
			Collapse:           collapse,
			NoWait:             hasClause(mm, "nowait"),
		}, nil
	case DirectiveSections, DirectiveSection:
		reductions, err := reductionsOf(mm)
		if err != nil {
			return nil, err
		}
		return SectionsAnnotation{
			Private:      identList(mm, "private"),
			Firstprivate: identList(mm, "firstprivate"),
			Lastprivate:  identList(mm, "lastprivate"),
			Reductions:   reductions,
			NoWait:       hasClause(mm, "nowait"),
		}, nil
	case DirectiveSingle:
		return SingleAnnotation{
			Private:      identList(mm, "private"),
			Firstprivate: identList(mm, "firstprivate"),
			Copyprivate:  identList(mm, "copyprivate"),
			NoWait:       hasClause(mm, "nowait"),
		}, nil
	case DirectiveTask:
		defShared, err := defaultSharedOf(mm)
		if err != nil {
			return nil, err
		}
		return TaskAnnotation{
			If:            scalarExpr(mm, "if"),
			Untied:        hasClause(mm, "untied"),
			DefaultShared: defShared,
			Private:       identList(mm, "private"),
			Firstprivate:  identList(mm, "firstprivate"),
			Shared:        identList(mm, "shared"),
		}, nil
	case DirectiveMaster:
		return MasterAnnotation{}, nil
	case DirectiveCritical:
		name, _ := enumValue(mm, "name")
		return CriticalAnnotation{Name: name}, nil
	case DirectiveBarrier:
		return BarrierAnnotation{}, nil
	case DirectiveTaskwait:
		return TaskwaitAnnotation{}, nil
	case DirectiveAtomic:
		return AtomicAnnotation{}, nil
	case DirectiveFlush:
		return FlushAnnotation{Vars: identList(mm, "list")}, nil
	case DirectiveOrdered:
		return OrderedAnnotation{}, nil
	case DirectiveThreadprivate:
		return ThreadprivateAnnotation{Vars: identList(mm, "list")}, nil
	default:
		return nil, fmt.Errorf("unknown pragma directive family %q", family)
	}
}

// AnnotateDirective decodes mm for family and attaches it to n under
// ir.AnnotationOpenMPDirective, raising an IllFormedNode diagnostic on an
// unparsable clause rather than silently dropping the directive.
func AnnotateDirective(n *ir.Node, family DirectiveFamily, mm MatchMap, loc diag.SourceLocation) error {
	decoded, err := ReadDirective(family, mm)
	if err != nil {
		return diag.New(diag.IllFormedNode, loc, "pragma %s: %v", family, err)
	}
	n.Annotate(ir.AnnotationOpenMPDirective, decoded)
	return nil
}
