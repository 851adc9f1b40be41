// internal/ir/pathcond_analyzer.go
//
// The path-condition analysis: a second fixed-point pass over the CFG that
// pushes DNF formulae along edges, conjoining edge conditions and joining
// with disjunction at merges.
package ir

import (
	"klasse/internal/fixpoint"
	"klasse/internal/jvm"
)

type pathConditionProblem struct {
	cfg *CFG
}

func (p *pathConditionProblem) Seeds() []fixpoint.Entry[jvm.ProgramCounter, PathCondition] {
	return []fixpoint.Entry[jvm.ProgramCounter, PathCondition]{
		{Location: 0, Fact: PathTrue()},
	}
}

func (p *pathConditionProblem) Flow(location jvm.ProgramCounter, fact PathCondition) ([]fixpoint.Entry[jvm.ProgramCounter, PathCondition], error) {
	edges := p.cfg.EdgesFrom(location)
	out := make([]fixpoint.Entry[jvm.ProgramCounter, PathCondition], 0, len(edges))
	for _, edge := range edges {
		next := fact
		if edge.Transfer.Kind == TransferConditional {
			next = fact.And(edge.Transfer.Condition).Simplify()
		}
		out = append(out, fixpoint.Entry[jvm.ProgramCounter, PathCondition]{
			Location: edge.Target,
			Fact:     next,
		})
	}
	return out, nil
}

// AnalysePathConditions computes, for every reachable program counter, the
// condition under which execution arrives there. The method entry holds the
// tautology.
func AnalysePathConditions(cfg *CFG) (map[jvm.ProgramCounter]PathCondition, error) {
	return fixpoint.Solve[jvm.ProgramCounter, PathCondition](&pathConditionProblem{cfg: cfg})
}
