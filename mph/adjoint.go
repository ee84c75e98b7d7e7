// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/cpmech/gosl/utl"
)

// Adjoint computes exact total derivatives of converged outputs with respect
// to free inputs by the adjoint method: one transposed linear solve Jᵀ·λ = e
// per output component, then dy/dx = −λᵀ·∂r/∂x, whose cost is independent of
// the number of input components. All linear quantities live in transient
// states; the converged primal state is never modified.
type Adjoint struct {
	Gr *Graph

	// when the primal solve was partitioned, λ is computed through the
	// retained reduced (Schur) system transposed instead of sweeping the
	// balance block, which has no local solve of its own
	schur *Schur
	lin   *LinGaussSeidel
}

// NewAdjoint returns an adjoint solver matching the given primal solver. For
// a Schur-partitioned solver the linear sweeps and reduced system are shared
// with it and cfg may be nil; otherwise cfg must be given and configures the
// transposed sweeps over the whole graph.
func NewAdjoint(gr *Graph, solver Solver, cfg *inp.CouplingData) (o *Adjoint, err error) {
	o = new(Adjoint)
	o.Gr = gr
	if s, ok := solver.(*Schur); ok {
		o.schur = s
		o.lin = s.lin
		return
	}
	if cfg == nil {
		return nil, cfgerr("adjoint over a non-partitioned solver requires a linear solver configuration")
	}
	o.lin, err = NewLinGaussSeidel(gr, nil, cfg)
	if err != nil {
		return nil, err
	}
	return
}

// TotalDeriv returns the total derivative matrix d(outBlock.outVar)/d(inBlock.inVar)
// at the converged state st: deriv[i][j] is the derivative of output component
// i with respect to input component j. The input must be free (not edge-fed).
func (o *Adjoint) TotalDeriv(st *State, outBlock, outVar, inBlock, inVar string) (deriv [][]float64, err error) {

	// resolve endpoints
	_, ov, err := o.Gr.outslot(outBlock, outVar)
	if err != nil {
		return
	}
	ib, iv, err := o.Gr.inslot(inBlock, inVar)
	if err != nil {
		return
	}
	if iv.fed {
		return nil, cfgerr("input %q of block %q is fed by an edge; derivatives are taken with respect to free inputs only", inVar, inBlock)
	}
	iblk, ok := o.Gr.Blocks[ib].(BlockLin)
	if !ok {
		return nil, cfgerr("block %q does not provide local Jacobian actions", inBlock)
	}

	p, q := ov.dim, iv.dim
	deriv = utl.Alloc(p, q)
	rhs := make([]float64, o.Gr.Ny)
	nfo := &o.Gr.info[ib]
	tmp := make([]float64, nfo.ny)

	for i := 0; i < p; i++ {

		// adjoint of output component i
		utl.Fill(rhs, 0)
		rhs[ov.ofs+i] = 1
		λ, err := o.solveAdjoint(st, rhs)
		if err != nil {
			return nil, err
		}

		// chain through the explicit dependence: row = −(∂r_b/∂x)ᵀ·λ_b
		for k := nfo.uofs; k < nfo.uofs+nfo.nu; k++ {
			λ.U[k] = 0
		}
		λb := o.Gr.Out(λ, ib)
		if !allZero(λb) {
			utl.Fill(tmp, 0)
			err = iblk.ApplyLin(Transpose, λb, o.Gr.Ins(λ, ib), tmp, o.Gr.Ins(st, ib), o.Gr.Out(st, ib))
			if err != nil {
				return nil, err
			}
		}
		for j := 0; j < q; j++ {
			deriv[i][j] = -λ.U[iv.ofs+j]
		}
	}
	return
}

// solveAdjoint solves Jᵀ·λ = rhs at the primal point st. With a partitioned
// primal solver the balance rows are eliminated through the reduced system:
//  w   = J_AAᵀ⁻¹·rhs_A                (transposed analysis sweep)
//  λ_B = Sᵀ⁻¹·(rhs_B − J_ABᵀ·w)       (retained dense factorisation)
//  λ_A = J_AAᵀ⁻¹·(rhs_A − J_BAᵀ·λ_B)  (transposed sweep, λ_B held fixed)
func (o *Adjoint) solveAdjoint(st *State, rhs []float64) (λ *State, err error) {
	λ = o.Gr.NewState()
	if o.schur == nil {
		_, err = o.lin.Solve(Transpose, λ, rhs, st)
		return
	}
	s := o.schur

	// w: all balance slots zero, so the sweep stays within the partition
	_, err = o.lin.Solve(Transpose, λ, rhs, st)
	if err != nil {
		return
	}

	// J_ABᵀ·w: input adjoints of the analysis blocks scattered back along
	// the edges sourced at the balance outputs
	gy := make([]float64, o.Gr.Ny)
	utl.Fill(λ.U, 0)
	for _, b := range s.act {
		λb := o.Gr.Out(λ, b)
		if allZero(λb) {
			continue
		}
		blk := o.Gr.Blocks[b].(BlockLin)
		tmp := make([]float64, o.Gr.info[b].ny)
		err = blk.ApplyLin(Transpose, λb, o.Gr.Ins(λ, b), tmp, o.Gr.Ins(st, b), o.Gr.Out(st, b))
		if err != nil {
			return
		}
	}
	sc := &State{Y: gy, U: λ.U}
	for b := range o.Gr.Blocks {
		o.Gr.ScatterT(sc, b)
	}
	rhsB := make([]float64, s.m)
	for i := 0; i < s.m; i++ {
		rhsB[i] = rhs[s.bofs+i] - gy[s.bofs+i]
	}

	// λ_B through the retained reduced system, transposed
	err = s.EnsureS(st)
	if err != nil {
		return
	}
	λB := make([]float64, s.m)
	err = s.SolveS(λB, rhsB, true)
	if err != nil {
		return
	}

	// λ_A: the fixed λ_B seed carries the J_BAᵀ coupling through the edges;
	// w warm-starts the sweep
	copy(λ.Y[s.bofs:s.bofs+s.m], λB)
	utl.Fill(λ.R, 0)
	_, err = o.lin.Solve(Transpose, λ, rhs, st)
	return
}
