// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// tiny is the smallest meaningful denominator for the Aitken estimate;
// below it the update reverts to unrelaxed (θ = 1)
const tiny = 1e-300

// GaussSeidel iterates a coupling graph to a converged state using block
// Gauss-Seidel sweeps with Aitken relaxation. Each sweep re-solves every
// active block with the latest values pulled from its neighbours; the order
// of blocks affects the convergence rate, not correctness, because cyclic
// coupling is resolved by the iteration itself.
type GaussSeidel struct {
	Gr  *Graph
	Cfg inp.CouplingData // copied at construction; immutable during solves

	// active partition
	act  []int // active block indices, in sweep order
	yidx []int // output-arena indices of the active partition
}

// set factory
func init() {
	solverallocators["gs"] = func(gr *Graph, sim *inp.Simulation) (Solver, error) {
		return NewGaussSeidel(gr, nil, &sim.Coupling)
	}
}

// NewGaussSeidel returns a fixed-point coupling solver over the given
// blocks (nil means all blocks, in graph order). Every active block must
// provide either a direct residual solve or local Jacobian actions.
func NewGaussSeidel(gr *Graph, active []int, cfg *inp.CouplingData) (o *GaussSeidel, err error) {
	if msg := cfg.Validate(); msg != "" {
		return nil, cfgerr("gauss-seidel: %s", msg)
	}
	o = new(GaussSeidel)
	o.Gr = gr
	o.Cfg = *cfg
	if active == nil {
		for b := range gr.Blocks {
			o.act = append(o.act, b)
		}
	} else {
		o.act = active
	}
	for _, b := range o.act {
		blk := gr.Blocks[b]
		if _, ok := blk.(BlockSolver); ok {
			continue
		}
		_, okl := blk.(BlockLin)
		_, oks := blk.(BlockLinSolver)
		if !okl || !oks {
			return nil, cfgerr("block %q provides neither a residual solve nor local Jacobian actions", blk.Name())
		}
	}
	o.yidx = gr.YIdx(o.act)
	return
}

// Run iterates to convergence. Implements the Solver interface.
func (o *GaussSeidel) Run(st *State) (stats Stats, err error) {
	return o.solve(st, o.Cfg.NmaxIt)
}

// solve iterates with the given sweep cap (≤ Cfg.NmaxIt); the trim solver
// uses the cap to enforce its global sub-solve budget
func (o *GaussSeidel) solve(st *State, nmaxit int) (stats Stats, err error) {

	// residual at entry defines the baseline for rtol; an already-converged
	// state re-solves in zero sweeps, which keeps repeated solves idempotent
	err = o.Gr.EvalResids(st, o.act, 0)
	if err != nil {
		return
	}
	r0 := o.Gr.Norm(st.R, o.yidx)
	stats.ResidA = r0
	if r0 <= o.Cfg.Atol {
		return
	}

	// per-solve iteration state
	n := len(o.yidx)
	θ := o.Cfg.Theta0
	xold := make([]float64, n)
	dx := make([]float64, n)
	dxold := make([]float64, n)
	rnorm := r0

	if o.Cfg.ShowR {
		io.Pf("%4s%23s%23s\n", "it", "‖r‖", "θ")
	}

	for it := 1; it <= nmaxit; it++ {

		// backup state and perform one full pass over all active blocks
		o.gather(st, xold)
		for _, b := range o.act {
			err = o.solveBlock(st, b, it)
			if err != nil {
				return stats, err
			}
		}

		// un-relaxed update over the active partition
		for i, I := range o.yidx {
			dx[i] = st.Y[I] - xold[i]
		}

		// convergence is checked on the un-relaxed post-sweep state, so a
		// pure feed-forward graph converges in exactly one sweep
		err = o.Gr.EvalResids(st, o.act, it)
		if err != nil {
			return stats, err
		}
		rnorm = o.Gr.Norm(st.R, o.yidx)
		stats.It = it
		stats.ResidA = rnorm
		stats.Theta = θ
		if o.Cfg.ShowR {
			io.Pf("%4d%23.15e%23.15e\n", it, rnorm, θ)
		}
		if rnorm <= o.Cfg.Atol || rnorm <= o.Cfg.Rtol*r0 {
			return stats, nil
		}

		// Aitken relaxation factor
		if it > 1 {
			θ = aitken(θ, dxold, dx, o.Cfg.ThetaMin, o.Cfg.ThetaMax)
		}

		// accepted update: x = xold + θ·Δx
		for i, I := range o.yidx {
			st.Y[I] = xold[i] + θ*dx[i]
		}
		copy(dxold, dx)
	}
	return stats, &CouplingDivergedError{It: nmaxit, Resid: rnorm, Resid0: r0}
}

// solveBlock pulls the inputs of block b and updates its outputs in place,
// either through the block's direct solve or by local Newton iteration
func (o *GaussSeidel) solveBlock(st *State, b, it int) (err error) {
	o.Gr.Pull(st, b)
	blk := o.Gr.Blocks[b]
	if bs, ok := blk.(BlockSolver); ok {
		err = bs.SolveResidual(o.Gr.Out(st, b), o.Gr.Ins(st, b))
		if err != nil {
			return
		}
		return nil
	}

	// local Newton on the block's own residual, holding inputs fixed
	bs := blk.(BlockLinSolver)
	out := o.Gr.Out(st, b)
	res := o.Gr.Res(st, b)
	δ := make([]float64, len(out))
	for k := 0; k < o.Cfg.NmaxIt; k++ {
		err = o.Gr.EvalResid(st, b, it)
		if err != nil {
			return
		}
		if la.Vector(res).Norm() <= o.Cfg.Atol {
			return nil
		}
		err = bs.SolveLin(Forward, δ, res, o.Gr.Ins(st, b), out)
		if err != nil {
			return
		}
		for i := range out {
			out[i] -= δ[i]
		}
	}
	return &CouplingDivergedError{It: o.Cfg.NmaxIt, Resid: la.Vector(res).Norm(), Resid0: 0}
}

// aitken updates the relaxation factor from two consecutive un-relaxed
// update vectors. A numerically degenerate denominator reverts to the
// unrelaxed update (θ = 1) for this iteration.
func aitken(θprev float64, dxold, dx []float64, θmin, θmax float64) (θ float64) {
	num, den := 0.0, 0.0
	for i := range dx {
		d := dx[i] - dxold[i]
		num += dxold[i] * d
		den += d * d
	}
	if den < tiny {
		return 1.0
	}
	θ = -θprev * num / den
	if θ < θmin {
		θ = θmin
	}
	if θ > θmax {
		θ = θmax
	}
	return
}

// gather copies the active partition of the outputs arena into x
func (o *GaussSeidel) gather(st *State, x []float64) {
	for i, I := range o.yidx {
		x[i] = st.Y[I]
	}
}
