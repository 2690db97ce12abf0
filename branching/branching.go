// Package branching enumerates the sign ambiguities that axis-aligned
// fixed-length lines introduce: a line's target length fixes how far its
// far endpoint sits from its near endpoint along the shared axes, but not
// which of the two directions (+L or -L) it sits in. Package project's
// PropagateInferences runs the deterministic half of this (§4.7 step 2,
// copying already-known shared-axis coordinates); this package runs the
// forking half, producing every surviving sign assignment.
package branching

import "go.viam.com/rotera/project"

const epsilon = 0.001

// Branch is one surviving assignment of inferred axis coordinates, plus the
// sequence of +/-L choices that produced it (for logging/debugging and for
// the candidate orchestrator's branch indexing).
type Branch struct {
	// Coords holds, per world point, the three axis slots this branch
	// resolved, starting from the point's EffectiveXyz (so locked and
	// already-inferred axes are carried as values). A nil entry means the
	// axis is still undetermined.
	Coords map[project.WorldPointID][3]*float64

	// Choices records the sign picked at each fork, in recursion order:
	// true for +L, false for -L.
	Choices []bool
}

// coordState is the mutable per-point, per-axis value branching threads
// through recursion: either known (from locked/prior inference/this
// branch's own forks) or unknown.
type coordState map[project.WorldPointID][3]*float64

// Enumerate runs the full branching algorithm (§4.7) over proj's
// axis-aligned fixed-length lines, seeding from each point's
// EffectiveXyz and forking on every line whose far endpoint remains
// unresolved. Returns every surviving (coords, choices) branch; a fully
// consistent, unambiguous project yields exactly one branch with no
// choices. When every branch is pruned by a contradiction (including one
// already present in the seed itself), the un-forked seed is returned as
// the single branch, so the result is never empty.
func Enumerate(proj *project.Project) []Branch {
	seed := seedFromEffective(proj)
	var out []Branch
	recurse(proj, seed, nil, &out)
	if len(out) == 0 {
		// Every branch was pruned by contradiction; fall back to the
		// single deterministic seed per spec.md §7's "if no branch
		// survives, the orchestrator's single-branch default is used and
		// a warning is logged" -- Enumerate itself just returns the seed
		// un-forked so callers always have something to apply.
		out = []Branch{{Coords: seed}}
	}
	return out
}

func seedFromEffective(proj *project.Project) coordState {
	state := coordState{}
	for _, wp := range proj.WorldPoints() {
		eff := wp.EffectiveXyz()
		state[wp.ID] = eff
	}
	return state
}

// recurse propagates state to a fixpoint, finds the next ambiguity, and
// forks on it; when no ambiguity remains it appends the resolved branch.
func recurse(proj *project.Project, state coordState, choices []bool, out *[]Branch) {
	propagated, ok := propagateToFixpoint(proj, cloneState(state))
	if !ok {
		return // contradiction: prune this branch silently.
	}

	line, srcAxis, srcVal, dstID, dstAxis, length, found := nextAmbiguity(proj, propagated)
	if !found {
		*out = append(*out, Branch{Coords: propagated, Choices: append([]bool(nil), choices...)})
		return
	}
	_ = line
	_ = srcAxis

	plus := cloneState(propagated)
	setAxis(plus, dstID, dstAxis, srcVal+length)
	recurse(proj, plus, append(choices, true), out)

	minus := cloneState(propagated)
	setAxis(minus, dstID, dstAxis, srcVal-length)
	recurse(proj, minus, append(choices, false), out)
}

// propagateToFixpoint copies known shared-axis coordinates between a
// line's endpoints until no value changes, pruning (returning ok=false) on
// a contradiction: two known values for the same axis differing by more
// than epsilon.
func propagateToFixpoint(proj *project.Project, state coordState) (coordState, bool) {
	for sweep := 0; sweep < 10; sweep++ {
		changed := false
		for _, l := range proj.Lines() {
			axes := l.Direction.SharedAxes()
			if len(axes) == 0 {
				continue
			}
			a, b := l.Endpoints[0], l.Endpoints[1]
			for _, axis := range axes {
				av, bv := state[a][axis], state[b][axis]
				switch {
				case av != nil && bv != nil:
					if absDiff(*av, *bv) > epsilon {
						return nil, false
					}
				case av != nil && bv == nil:
					setAxis(state, b, axis, *av)
					changed = true
				case bv != nil && av == nil:
					setAxis(state, a, axis, *bv)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return state, true
}

// nextAmbiguity finds an axis-aligned line with a known target length
// where exactly one endpoint's axis coordinate is known, returning the
// source value to fork from and the destination point/axis to assign.
func nextAmbiguity(proj *project.Project, state coordState) (
	line *project.Line, srcAxis project.Axis, srcVal float64, dstID project.WorldPointID, dstAxis project.Axis, length float64, found bool,
) {
	for _, l := range proj.Lines() {
		if !l.IsAxisAligned() {
			continue
		}
		tlen, ok := l.TargetLength()
		if !ok {
			continue
		}
		along := l.Direction.AlongAxes()
		if len(along) != 1 {
			continue
		}
		axis := along[0]
		a, b := l.Endpoints[0], l.Endpoints[1]
		av, bv := state[a][axis], state[b][axis]
		switch {
		case av != nil && bv == nil:
			return l, axis, *av, b, axis, tlen, true
		case bv != nil && av == nil:
			return l, axis, *bv, a, axis, tlen, true
		}
	}
	return nil, 0, 0, 0, 0, 0, false
}

func cloneState(state coordState) coordState {
	out := make(coordState, len(state))
	for id, axes := range state {
		out[id] = axes
	}
	return out
}

func setAxis(state coordState, id project.WorldPointID, axis project.Axis, value float64) {
	axes := state[id]
	v := value
	axes[axis] = &v
	state[id] = axes
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
