// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"math"
	"testing"

	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// cloneVals deep-copies a set of input arrays
func cloneVals(v mph.Values) (w mph.Values) {
	w = make(mph.Values, len(v))
	for k := range v {
		w[k] = make([]float64, len(v[k]))
		copy(w[k], v[k])
	}
	return
}

// zeroVals allocates a zeroed set with the same shapes
func zeroVals(v mph.Values) (w mph.Values) {
	w = make(mph.Values, len(v))
	for k := range v {
		w[k] = make([]float64, len(v[k]))
	}
	return
}

// checkLin verifies a block's analytic Jacobian actions: the forward action
// against central differences of the residual, and the transposed action
// against the forward one through the duality <λ, J·d> = <Jᵀ·λ, d>
func checkLin(tst *testing.T, blk mph.Block, ins mph.Values, out []float64, tol float64) {
	bl, ok := blk.(mph.BlockLin)
	if !ok {
		tst.Errorf("block %q has no Jacobian actions", blk.Name())
		return
	}
	n := len(out)

	// forward action vs finite differences: input components
	for k := range ins {
		for j := range ins[k] {
			dins := zeroVals(ins)
			dout := make([]float64, n)
			dres := make([]float64, n)
			dins[k][j] = 1
			if err := bl.ApplyLin(mph.Forward, dres, dins, dout, ins, out); err != nil {
				tst.Errorf("ApplyLin failed:\n%v", err)
				return
			}
			p := ins[k][j]
			h := 1e-4 * (math.Abs(p) + 1e-3)
			for i := 0; i < n; i++ {
				dnum := num.DerivCen5(p, h, func(t float64) float64 {
					tmp := cloneVals(ins)
					tmp[k][j] = t
					res := make([]float64, n)
					blk.EvalResidual(res, tmp, out)
					return res[i]
				})
				e := chk.PrintAnaNum(io.Sf("%s: dres%d/din%d,%d", blk.Name(), i, k, j), tol*(1+math.Abs(dres[i])), dres[i], dnum, false)
				if e != nil {
					tst.Errorf("%v", e)
					return
				}
			}
		}
	}

	// forward action vs finite differences: output components
	for j := 0; j < n; j++ {
		dins := zeroVals(ins)
		dout := make([]float64, n)
		dres := make([]float64, n)
		dout[j] = 1
		if err := bl.ApplyLin(mph.Forward, dres, dins, dout, ins, out); err != nil {
			tst.Errorf("ApplyLin failed:\n%v", err)
			return
		}
		p := out[j]
		h := 1e-4 * (math.Abs(p) + 1e-3)
		for i := 0; i < n; i++ {
			dnum := num.DerivCen5(p, h, func(t float64) float64 {
				tmp := make([]float64, n)
				copy(tmp, out)
				tmp[j] = t
				res := make([]float64, n)
				blk.EvalResidual(res, ins, tmp)
				return res[i]
			})
			e := chk.PrintAnaNum(io.Sf("%s: dres%d/dout%d", blk.Name(), i, j), tol*(1+math.Abs(dres[i])), dres[i], dnum, false)
			if e != nil {
				tst.Errorf("%v", e)
				return
			}
		}
	}

	// transpose duality
	dins := zeroVals(ins)
	dout := make([]float64, n)
	λ := make([]float64, n)
	for i := 0; i < n; i++ {
		λ[i] = math.Sin(float64(i) + 1)
		dout[i] = math.Cos(float64(i) + 2)
	}
	for k := range dins {
		for j := range dins[k] {
			dins[k][j] = math.Cos(float64(10*k+j) + 1)
		}
	}
	dres := make([]float64, n)
	if err := bl.ApplyLin(mph.Forward, dres, dins, dout, ins, out); err != nil {
		tst.Errorf("ApplyLin failed:\n%v", err)
		return
	}
	lhs := 0.0
	for i := 0; i < n; i++ {
		lhs += λ[i] * dres[i]
	}
	tins := zeroVals(ins)
	tout := make([]float64, n)
	if err := bl.ApplyLin(mph.Transpose, λ, tins, tout, ins, out); err != nil {
		tst.Errorf("ApplyLin failed:\n%v", err)
		return
	}
	rhs := 0.0
	for k := range tins {
		for j := range tins[k] {
			rhs += tins[k][j] * dins[k][j]
		}
	}
	for i := 0; i < n; i++ {
		rhs += tout[i] * dout[i]
	}
	chk.Float64(tst, io.Sf("%s: duality", blk.Name()), tol*(1+math.Abs(lhs)), lhs, rhs)
}
