// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/utl"
)

// xferMatrix builds the displacement interpolation matrix T [na+1][ns+1]
// mapping structural nodal deflections to the aerodynamic nodes. Both meshes
// are uniform subdivisions of the same chord, so T is built once from the
// normalised coordinates and stays constant under chord morphing.
func xferMatrix(nelStruct, nelAero int) (T [][]float64) {
	ξs := utl.LinSpace(0, 1, nelStruct+1)
	ξa := utl.LinSpace(0, 1, nelAero+1)
	T = utl.Alloc(nelAero+1, nelStruct+1)
	for j, ξ := range ξa {
		k := 0
		for k < nelStruct-1 && ξ > ξs[k+1] {
			k++
		}
		s := (ξ - ξs[k]) / (ξs[k+1] - ξs[k])
		T[j][k] = 1 - s
		T[j][k+1] = s
	}
	return
}

// DispXfer interpolates the structural deflections onto the aerodynamic
// surface: u_aero = T·w where w are the transverse components of the
// interleaved structural state
type DispXfer struct {
	T  [][]float64
	ns int // structural nodes
	na int // aerodynamic nodes
}

// NewDispXfer returns a displacement transfer using the given interpolation
func NewDispXfer(T [][]float64) *DispXfer {
	return &DispXfer{T: T, ns: len(T[0]), na: len(T)}
}

func (o *DispXfer) Name() string { return "dispxfer" }

func (o *DispXfer) Inputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "u_struct", Dim: 2 * o.ns}}
}

func (o *DispXfer) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "u_aero", Dim: o.na}}
}

func (o *DispXfer) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	u := ins[0]
	for j := 0; j < o.na; j++ {
		s := 0.0
		for k := 0; k < o.ns; k++ {
			s += o.T[j][k] * u[2*k]
		}
		res[j] = out[j] - s
	}
	return
}

func (o *DispXfer) SolveResidual(out []float64, ins mph.Values) (err error) {
	u := ins[0]
	for j := 0; j < o.na; j++ {
		out[j] = 0
		for k := 0; k < o.ns; k++ {
			out[j] += o.T[j][k] * u[2*k]
		}
	}
	return
}

func (o *DispXfer) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	du := dins[0]
	if mode == mph.Forward {
		for j := 0; j < o.na; j++ {
			dres[j] += dout[j]
			for k := 0; k < o.ns; k++ {
				dres[j] -= o.T[j][k] * du[2*k]
			}
		}
		return
	}
	for j := 0; j < o.na; j++ {
		dout[j] += dres[j]
		for k := 0; k < o.ns; k++ {
			du[2*k] -= o.T[j][k] * dres[j]
		}
	}
	return
}

func (o *DispXfer) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}

// LoadXfer maps the aerodynamic nodal forces back to the structural nodes
// with the transpose of the displacement interpolation, f_struct = Tᵀ·f_aero,
// which conserves the virtual work of the transferred loads
type LoadXfer struct {
	T  [][]float64
	ns int
	na int
}

// NewLoadXfer returns a load transfer consistent with the given interpolation
func NewLoadXfer(T [][]float64) *LoadXfer {
	return &LoadXfer{T: T, ns: len(T[0]), na: len(T)}
}

func (o *LoadXfer) Name() string { return "loadxfer" }

func (o *LoadXfer) Inputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "f_aero", Dim: o.na}}
}

func (o *LoadXfer) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "f_struct", Dim: o.ns}}
}

func (o *LoadXfer) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	f := ins[0]
	for k := 0; k < o.ns; k++ {
		s := 0.0
		for j := 0; j < o.na; j++ {
			s += o.T[j][k] * f[j]
		}
		res[k] = out[k] - s
	}
	return
}

func (o *LoadXfer) SolveResidual(out []float64, ins mph.Values) (err error) {
	f := ins[0]
	for k := 0; k < o.ns; k++ {
		out[k] = 0
		for j := 0; j < o.na; j++ {
			out[k] += o.T[j][k] * f[j]
		}
	}
	return
}

func (o *LoadXfer) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	df := dins[0]
	if mode == mph.Forward {
		for k := 0; k < o.ns; k++ {
			dres[k] += dout[k]
			for j := 0; j < o.na; j++ {
				dres[k] -= o.T[j][k] * df[j]
			}
		}
		return
	}
	for k := 0; k < o.ns; k++ {
		dout[k] += dres[k]
		for j := 0; j < o.na; j++ {
			df[j] -= o.T[j][k] * dres[k]
		}
	}
	return
}

func (o *LoadXfer) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}
