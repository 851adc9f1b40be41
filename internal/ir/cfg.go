// internal/ir/cfg.go
package ir

import (
	"fmt"
	"sort"
	"strings"

	"klasse/internal/jvm"
)

// TransferKind discriminates the control transfers labelling CFG edges.
type TransferKind int

const (
	TransferUnconditional TransferKind = iota
	TransferConditional
	TransferException
	TransferSubroutineReturn
)

// ControlTransfer labels a CFG edge. Conditional edges carry the path
// condition under which they are taken; exception edges carry the set of
// exception classes routed to the handler.
type ControlTransfer struct {
	Kind       TransferKind
	Condition  PathCondition
	Exceptions []jvm.ClassRef
}

func (t ControlTransfer) String() string {
	switch t.Kind {
	case TransferConditional:
		return fmt.Sprintf("if %s", t.Condition)
	case TransferException:
		names := make([]string, len(t.Exceptions))
		for i, ref := range t.Exceptions {
			names[i] = ref.BinaryName
		}
		return fmt.Sprintf("catch %s", strings.Join(names, ", "))
	case TransferSubroutineReturn:
		return "subroutine return"
	default:
		return "unconditional"
	}
}

// Edge is one directed CFG edge.
type Edge struct {
	Source   jvm.ProgramCounter
	Target   jvm.ProgramCounter
	Transfer ControlTransfer
}

// CFG is a control-flow graph over program counters. At most one edge
// exists per (source, target) pair; re-adding overwrites, which only
// happens for structurally equal exception transfers.
type CFG struct {
	edges map[[2]jvm.ProgramCounter]ControlTransfer
}

// NewCFG creates an empty graph.
func NewCFG() *CFG {
	return &CFG{edges: map[[2]jvm.ProgramCounter]ControlTransfer{}}
}

// AddEdge inserts or overwrites the edge (source, target).
func (g *CFG) AddEdge(source, target jvm.ProgramCounter, transfer ControlTransfer) {
	g.edges[[2]jvm.ProgramCounter{source, target}] = transfer
}

// EdgesFrom returns the edges leaving source, ordered by target.
func (g *CFG) EdgesFrom(source jvm.ProgramCounter) []Edge {
	var out []Edge
	for key, transfer := range g.edges {
		if key[0] == source {
			out = append(out, Edge{Source: key[0], Target: key[1], Transfer: transfer})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// Edges returns all edges, ordered by (source, target).
func (g *CFG) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for key, transfer := range g.edges {
		out = append(out, Edge{Source: key[0], Target: key[1], Transfer: transfer})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Edge returns the transfer labelling (source, target), if present.
func (g *CFG) Edge(source, target jvm.ProgramCounter) (ControlTransfer, bool) {
	transfer, ok := g.edges[[2]jvm.ProgramCounter{source, target}]
	return transfer, ok
}

// Len returns the number of edges.
func (g *CFG) Len() int { return len(g.edges) }
