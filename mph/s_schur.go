// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/cpmech/gosl/io"
	"gonum.org/v1/gonum/mat"
)

// condmax flags a numerically singular reduced system
const condmax = 1e14

// Schur is the Schur-partitioned Newton ("trim") solver. It partitions the
// residual system into block A (analysis: all non-balance blocks, solved
// internally by the fixed-point coupling solver) and block B (balance:
// typically 1-3 unknowns whose residual is a function of analysis outputs;
// e.g. lift-coefficient error driving angle of attack) and solves the
// coupled nonlinear system by alternating full analysis solves with Newton
// updates of the balance unknowns through the reduced (Schur-complement)
// system S = J_BB − J_BA·J_AA⁻¹·J_AB. Each J_AA⁻¹ action is obtained from
// the linear coupling solver; J_AA is never materialised. B is small, so
// the reduced system is solved by direct dense factorisation.
type Schur struct {
	Gr  *Graph
	Cfg inp.TrimData // copied at construction; immutable during solves

	// partition
	bal   int   // balance block index
	act   []int // analysis blocks, in sweep order
	bofs  int   // first balance output in the Y arena
	m     int   // number of balance unknowns
	yidxB []int

	// sub-solvers (owned; configurations composed, never shared)
	inner *GaussSeidel
	lin   *LinGaussSeidel

	// reduced system retained from the last Newton iteration for reuse by
	// the adjoint solver (transposed)
	lu    mat.LU
	haveS bool
}

// set factory
func init() {
	solverallocators["schur"] = func(gr *Graph, sim *inp.Simulation) (Solver, error) {
		return NewSchur(gr, &sim.Trim)
	}
}

// NewSchur returns a Schur-partitioned Newton solver. The configuration is
// validated here, before any residual evaluation.
func NewSchur(gr *Graph, cfg *inp.TrimData) (o *Schur, err error) {
	if msg := cfg.Validate(); msg != "" {
		return nil, cfgerr("schur: %s", msg)
	}
	o = new(Schur)
	o.Gr = gr
	o.Cfg = *cfg

	// partition blocks
	o.bal, err = gr.BlockIndex(cfg.Balance)
	if err != nil {
		return nil, cfgerr("schur: balance block %q is not in the coupling graph", cfg.Balance)
	}
	for b := range gr.Blocks {
		if b != o.bal {
			o.act = append(o.act, b)
		}
	}
	if len(o.act) == 0 {
		return nil, cfgerr("schur: analysis partition is empty")
	}
	nfo := &gr.info[o.bal]
	o.bofs = nfo.yofs
	o.m = nfo.ny
	o.yidxB = gr.YIdx([]int{o.bal})
	if _, ok := gr.Blocks[o.bal].(BlockLin); !ok {
		return nil, cfgerr("schur: balance block %q does not provide local Jacobian actions", cfg.Balance)
	}

	// bounds
	if cfg.Lower != nil && len(cfg.Lower) != o.m {
		return nil, cfgerr("schur: lower bounds have %d entries but balance has %d unknowns", len(cfg.Lower), o.m)
	}
	if cfg.Upper != nil && len(cfg.Upper) != o.m {
		return nil, cfgerr("schur: upper bounds have %d entries but balance has %d unknowns", len(cfg.Upper), o.m)
	}

	// sub-solvers
	o.inner, err = NewGaussSeidel(gr, o.act, &cfg.Coupling)
	if err != nil {
		return nil, err
	}
	o.lin, err = NewLinGaussSeidel(gr, o.act, &cfg.Linear)
	if err != nil {
		return nil, err
	}
	return
}

// Run solves the coupled analysis+balance system. Implements the Solver
// interface.
func (o *Schur) Run(st *State) (stats Stats, err error) {

	// per-solve state
	o.haveS = false
	sub := 0
	rA0, rB0 := 0.0, 0.0
	Δb := make([]float64, o.m)
	bvals := st.Y[o.bofs : o.bofs+o.m]

	if o.Cfg.Coupling.ShowR {
		io.Pf("%4s%23s%23s%8s\n", "it", "‖rA‖", "‖rB‖", "subit")
	}

	for it := 1; it <= o.Cfg.NmaxIt; it++ {

		// hold B fixed and converge the analysis partition, counting the
		// sweeps against the global budget shared across the whole solve
		rem := o.Cfg.MaxSubSolves - sub
		if rem <= 0 {
			return stats, &SubSolveBudgetError{Used: sub, Budget: o.Cfg.MaxSubSolves}
		}
		cap := o.Cfg.Coupling.NmaxIt
		if rem < cap {
			cap = rem
		}
		istats, ierr := o.inner.solve(st, cap)
		sub += istats.It
		stats.SubIt = sub
		stats.ResidA = istats.ResidA
		if ierr != nil {
			if _, diverged := ierr.(*CouplingDivergedError); diverged && cap < o.Cfg.Coupling.NmaxIt {
				return stats, &SubSolveBudgetError{Used: sub, Budget: o.Cfg.MaxSubSolves}
			}
			return stats, ierr
		}

		// residual of B given the converged A
		err = o.Gr.EvalResid(st, o.bal, it)
		if err != nil {
			return stats, err
		}
		rBn := o.Gr.Norm(st.R, o.yidxB)
		stats.It = it
		stats.ResidB = rBn
		if it == 1 {
			rA0 = stats.ResidA
			rB0 = rBn
		}
		if o.Cfg.Coupling.ShowR {
			io.Pf("%4d%23.15e%23.15e%8d\n", it, stats.ResidA, rBn, sub)
		}

		// both partitions must meet the outer tolerance; the inner solve only
		// bounds ‖rA‖ by its own (possibly looser) configuration
		okA := stats.ResidA <= o.Cfg.Atol || stats.ResidA <= o.Cfg.Rtol*rA0
		okB := rBn <= o.Cfg.Atol || rBn <= o.Cfg.Rtol*rB0
		if okA && okB {
			return stats, nil
		}

		// Newton step on B through the Schur complement
		err = o.buildS(st)
		if err != nil {
			return stats, err
		}
		rB := make([]float64, o.m)
		for i := 0; i < o.m; i++ {
			rB[i] = -st.R[o.bofs+i]
		}
		err = o.SolveS(Δb, rB, false)
		if err != nil {
			return stats, err
		}

		// clip the step so the updated unknowns stay within bounds
		for i := 0; i < o.m; i++ {
			if o.Cfg.Upper != nil && bvals[i]+Δb[i] > o.Cfg.Upper[i] {
				Δb[i] = o.Cfg.Upper[i] - bvals[i]
			}
			if o.Cfg.Lower != nil && bvals[i]+Δb[i] < o.Cfg.Lower[i] {
				Δb[i] = o.Cfg.Lower[i] - bvals[i]
			}
			bvals[i] += Δb[i]
		}
	}
	return stats, &MaxIterError{It: o.Cfg.NmaxIt, ResidA: stats.ResidA, ResidB: stats.ResidB}
}

// buildS assembles and factorises the reduced system S = J_BB − J_BA·J_AA⁻¹·J_AB
// column by column: seeding one balance unknown, solving the linear analysis
// system for the state sensitivity, then applying the balance Jacobian. The
// factorisation is kept for the Newton step and for adjoint reuse.
func (o *Schur) buildS(st *State) (err error) {
	S := mat.NewDense(o.m, o.m, nil)
	bblk := o.Gr.Blocks[o.bal].(BlockLin)
	rhs := make([]float64, o.Gr.Ny)
	col := make([]float64, o.m)
	ej := make([]float64, o.m)
	for j := 0; j < o.m; j++ {

		// z = dy/db_j: with the unit seed fixed on the balance slot and a
		// zero right-hand side, the linear sweep returns −J_AA⁻¹·J_AB·e_j
		lst := o.Gr.NewState()
		lst.Y[o.bofs+j] = 1
		_, err = o.lin.Solve(Forward, lst, rhs, st)
		if err != nil {
			return
		}

		// column j: J_BA·z + J_BB·e_j
		for i := range ej {
			ej[i] = 0
		}
		ej[j] = 1
		for i := range col {
			col[i] = 0
		}
		o.Gr.Pull(lst, o.bal)
		err = bblk.ApplyLin(Forward, col, o.Gr.Ins(lst, o.bal), ej, o.Gr.Ins(st, o.bal), o.Gr.Out(st, o.bal))
		if err != nil {
			return
		}
		for i := 0; i < o.m; i++ {
			S.Set(i, j, col[i])
		}
	}
	o.lu.Factorize(S)
	if c := o.lu.Cond(); c > condmax {
		o.haveS = false
		return &SingularSystemError{Msg: io.Sf("reduced (Schur) system is numerically singular: cond=%g", c)}
	}
	o.haveS = true
	return
}

// EnsureS makes sure a factorised reduced system linearised at st is
// available; e.g. when the solve converged before any Newton step was taken
// and the adjoint solver still needs S
func (o *Schur) EnsureS(st *State) (err error) {
	if o.haveS {
		return
	}
	return o.buildS(st)
}

// SolveS solves S·x = rhs (or Sᵀ·x = rhs for trans) using the retained
// dense factorisation
func (o *Schur) SolveS(x, rhs []float64, trans bool) (err error) {
	if !o.haveS {
		return &SingularSystemError{Msg: "reduced (Schur) system has not been assembled"}
	}
	var v mat.VecDense
	err = o.lu.SolveVecTo(&v, trans, mat.NewVecDense(o.m, rhs))
	if err != nil {
		return &SingularSystemError{Msg: io.Sf("reduced (Schur) system solve failed: %v", err)}
	}
	for i := 0; i < o.m; i++ {
		x[i] = v.AtVec(i)
	}
	return
}
