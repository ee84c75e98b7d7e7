// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/mph"
)

// Balance is the trim equation: it owns the angle of attack and demands
// that the coupled lift coefficient match the target,
//
//	r = c_l − targetCl
//
// The residual does not depend on the output itself, so this block has no
// local solve; it is only meaningful inside a partitioned Newton solver.
type Balance struct {
	targetCl float64
}

// NewBalance returns a trim balance driving c_l to the target
func NewBalance(targetCl float64) *Balance {
	return &Balance{targetCl: targetCl}
}

func (o *Balance) Name() string { return "balance" }

func (o *Balance) Inputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "c_l", Dim: 1}}
}

func (o *Balance) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "aoa", Dim: 1}} // [deg]
}

func (o *Balance) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	res[0] = ins[0][0] - o.targetCl
	return
}

func (o *Balance) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	if mode == mph.Forward {
		dres[0] += dins[0][0]
		return
	}
	dins[0][0] += dres[0]
	return
}
