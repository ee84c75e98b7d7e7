// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/cpmech/gosl/utl"
)

// LinGaussSeidel solves the linear residual system over a subset of blocks
// with the same sweep structure and Aitken acceleration as the nonlinear
// coupling solver: each block's SolveLin/ApplyLin stands in for the
// nonlinear solve. In Forward mode it solves J·dy = rhs; in Transpose mode
// Jᵀ·λ = rhs, sweeping the blocks in reverse order.
//
// Only the active partition is updated. Linear values on inactive blocks
// (e.g. a balance seed during a Schur solve) are treated as fixed given
// data: they enter through the coupling edges exactly like off-partition
// Jacobian couplings, so J_AB·db and J_BAᵀ·λ_B terms need never be
// assembled by the caller.
type LinGaussSeidel struct {
	Gr  *Graph
	Cfg inp.CouplingData

	act  []int
	yidx []int
}

// NewLinGaussSeidel returns a linear coupling solver over the given blocks
// (nil means all blocks). Every active block must provide ApplyLin and
// SolveLin.
func NewLinGaussSeidel(gr *Graph, active []int, cfg *inp.CouplingData) (o *LinGaussSeidel, err error) {
	if msg := cfg.Validate(); msg != "" {
		return nil, cfgerr("linear gauss-seidel: %s", msg)
	}
	o = new(LinGaussSeidel)
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
		_, okl := blk.(BlockLin)
		_, oks := blk.(BlockLinSolver)
		if !okl || !oks {
			return nil, cfgerr("block %q does not provide local Jacobian actions", blk.Name())
		}
	}
	o.yidx = gr.YIdx(o.act)
	return
}

// Solve iterates the linear system to convergence.
//  Input:
//   mode -- Forward (J·dy = rhs) or Transpose (Jᵀ·λ = rhs)
//   rhs  -- right-hand side over the full outputs arena (Ny)
//   st   -- primal state at which the Jacobians are linearised
//  Input/Output:
//   lst  -- linear state: lst.Y holds the unknown (and any fixed seeds on
//           inactive blocks); lst.U and lst.R are used as workspace
func (o *LinGaussSeidel) Solve(mode LinMode, lst *State, rhs []float64, st *State) (nit int, err error) {

	// make sure primal inputs are in sync with the primal outputs
	o.Gr.PullAll(st)

	// baseline residual
	rnorm, err := o.resid(mode, lst, rhs, st)
	if err != nil {
		return
	}
	r0 := rnorm
	if r0 <= o.Cfg.Atol {
		return
	}

	n := len(o.yidx)
	θ := o.Cfg.Theta0
	xold := make([]float64, n)
	dx := make([]float64, n)
	dxold := make([]float64, n)

	for it := 1; it <= o.Cfg.NmaxIt; it++ {

		// one sweep
		for i, I := range o.yidx {
			xold[i] = lst.Y[I]
		}
		if mode == Forward {
			for _, b := range o.act {
				err = o.fwdBlock(lst, rhs, st, b)
				if err != nil {
					return it, err
				}
			}
		} else {
			for k := len(o.act) - 1; k >= 0; k-- {
				err = o.trnBlock(lst, rhs, st, o.act[k])
				if err != nil {
					return it, err
				}
			}
		}
		for i, I := range o.yidx {
			dx[i] = lst.Y[I] - xold[i]
		}

		// convergence on the un-relaxed state
		rnorm, err = o.resid(mode, lst, rhs, st)
		if err != nil {
			return it, err
		}
		nit = it
		if rnorm <= o.Cfg.Atol || rnorm <= o.Cfg.Rtol*r0 {
			return it, nil
		}

		// Aitken relaxation on the linear increment
		if it > 1 {
			θ = aitken(θ, dxold, dx, o.Cfg.ThetaMin, o.Cfg.ThetaMax)
		}
		for i, I := range o.yidx {
			lst.Y[I] = xold[i] + θ*dx[i]
		}
		copy(dxold, dx)
	}
	return o.Cfg.NmaxIt, &CouplingDivergedError{It: o.Cfg.NmaxIt, Resid: rnorm, Resid0: r0}
}

// fwdBlock updates dy of block b: dy_b = Joo⁻¹·(rhs_b − Jin·din) with din
// pulled from the latest linear outputs
func (o *LinGaussSeidel) fwdBlock(lst *State, rhs []float64, st *State, b int) (err error) {
	o.Gr.Pull(lst, b)
	nfo := &o.Gr.info[b]
	blk := o.Gr.Blocks[b].(BlockLin)
	bls := o.Gr.Blocks[b].(BlockLinSolver)

	// input contribution: lst.R_b = Jin·din (dout held at zero)
	res := o.Gr.Res(lst, b)
	utl.Fill(res, 0)
	zo := make([]float64, nfo.ny)
	err = blk.ApplyLin(Forward, res, o.Gr.Ins(lst, b), zo, o.Gr.Ins(st, b), o.Gr.Out(st, b))
	if err != nil {
		return
	}
	w := make([]float64, nfo.ny)
	for i := 0; i < nfo.ny; i++ {
		w[i] = rhs[nfo.yofs+i] - res[i]
	}
	return bls.SolveLin(Forward, o.Gr.Out(lst, b), w, o.Gr.Ins(st, b), o.Gr.Out(st, b))
}

// trnBlock updates λ of block b: λ_b = Joo⁻ᵀ·(rhs_b − acc_b) where acc_b
// gathers (∂r_c/∂in)ᵀ·λ_c over all edges sourced at b, using the latest λ
// of the consuming blocks
func (o *LinGaussSeidel) trnBlock(lst *State, rhs []float64, st *State, b int) (err error) {
	nfo := &o.Gr.info[b]
	acc := make([]float64, nfo.ny)
	for _, k := range nfo.pushes {
		e := &o.Gr.redges[k]
		c := e.to
		λc := o.Gr.Out(lst, c)
		if allZero(λc) {
			continue
		}
		cblk, ok := o.Gr.Blocks[c].(BlockLin)
		if !ok {
			return cfgerr("block %q does not provide local Jacobian actions", o.Gr.Blocks[c].Name())
		}
		// input adjoints of the consuming block
		cnfo := &o.Gr.info[c]
		for i := cnfo.uofs; i < cnfo.uofs+cnfo.nu; i++ {
			lst.U[i] = 0
		}
		tmp := make([]float64, cnfo.ny)
		err = cblk.ApplyLin(Transpose, λc, o.Gr.Ins(lst, c), tmp, o.Gr.Ins(st, c), o.Gr.Out(st, c))
		if err != nil {
			return
		}
		// gather the slice carried by this edge back onto b's outputs
		if e.sel == nil {
			for i := 0; i < e.n; i++ {
				acc[e.src-nfo.yofs+i] += lst.U[e.dst+i]
			}
		} else {
			for i, idx := range e.sel {
				acc[e.src-nfo.yofs+idx] += lst.U[e.dst+i]
			}
		}
	}
	bls := o.Gr.Blocks[b].(BlockLinSolver)
	w := make([]float64, nfo.ny)
	for i := 0; i < nfo.ny; i++ {
		w[i] = rhs[nfo.yofs+i] - acc[i]
	}
	return bls.SolveLin(Transpose, o.Gr.Out(lst, b), w, o.Gr.Ins(st, b), o.Gr.Out(st, b))
}

// resid returns the norm of the linear residual over the active partition
func (o *LinGaussSeidel) resid(mode LinMode, lst *State, rhs []float64, st *State) (rnorm float64, err error) {
	if mode == Forward {
		for _, b := range o.act {
			o.Gr.Pull(lst, b)
			blk := o.Gr.Blocks[b].(BlockLin)
			res := o.Gr.Res(lst, b)
			utl.Fill(res, 0)
			err = blk.ApplyLin(Forward, res, o.Gr.Ins(lst, b), o.Gr.Out(lst, b), o.Gr.Ins(st, b), o.Gr.Out(st, b))
			if err != nil {
				return
			}
			nfo := &o.Gr.info[b]
			for i := 0; i < nfo.ny; i++ {
				res[i] -= rhs[nfo.yofs+i]
			}
		}
		return o.Gr.Norm(lst.R, o.yidx), nil
	}

	// transpose: ρ_b = Jooᵀ·λ_b + Σ edge-scattered input adjoints − rhs_b,
	// assembled from one ApplyLin pass over all blocks carrying a seed
	utl.Fill(lst.U, 0)
	utl.Fill(lst.R, 0)
	ry := make([]float64, o.Gr.Ny)
	for c := range o.Gr.Blocks {
		λc := o.Gr.Out(lst, c)
		if allZero(λc) {
			continue
		}
		cblk, ok := o.Gr.Blocks[c].(BlockLin)
		if !ok {
			return 0, cfgerr("block %q does not provide local Jacobian actions", o.Gr.Blocks[c].Name())
		}
		cnfo := &o.Gr.info[c]
		err = cblk.ApplyLin(Transpose, λc, o.Gr.Ins(lst, c), ry[cnfo.yofs:cnfo.yofs+cnfo.ny], o.Gr.Ins(st, c), o.Gr.Out(st, c))
		if err != nil {
			return
		}
	}
	// scatter input adjoints back to their source outputs
	sc := &State{Y: lst.R, U: lst.U}
	for b := range o.Gr.Blocks {
		o.Gr.ScatterT(sc, b)
	}
	for _, I := range o.yidx {
		lst.R[I] += ry[I] - rhs[I]
	}
	return o.Gr.Norm(lst.R, o.yidx), nil
}

// allZero tells whether all components vanish
func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
