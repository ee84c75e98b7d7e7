// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"math"
	"testing"

	"github.com/Asthelen/mphys/inp"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// gsCfg returns a default coupling configuration for tests
func gsCfg() *inp.CouplingData {
	var c inp.CouplingData
	c.SetDefaults()
	return &c
}

// trimCfg returns a default trim configuration for tests
func trimCfg(balance string) *inp.TrimData {
	var c inp.TrimData
	c.SetDefaults()
	c.Balance = balance
	c.MaxSubSolves = 1000
	return &c
}

// linBlock implements one linear scalar equation r = y − (gain·u + s)
type linBlock struct {
	name string
	gain float64
}

func (o *linBlock) Name() string { return o.name }
func (o *linBlock) Inputs() []VarSpec {
	return []VarSpec{{Name: "u", Dim: 1}, {Name: "s", Dim: 1}}
}
func (o *linBlock) Outputs() []VarSpec { return []VarSpec{{Name: "y", Dim: 1}} }

func (o *linBlock) EvalResidual(res []float64, ins Values, out []float64) (err error) {
	res[0] = out[0] - (o.gain*ins[0][0] + ins[1][0])
	return
}

func (o *linBlock) SolveResidual(out []float64, ins Values) (err error) {
	out[0] = o.gain*ins[0][0] + ins[1][0]
	return
}

func (o *linBlock) ApplyLin(mode LinMode, dres []float64, dins Values, dout []float64, ins Values, out []float64) (err error) {
	if mode == Forward {
		dres[0] += dout[0] - o.gain*dins[0][0] - dins[1][0]
		return
	}
	dout[0] += dres[0]
	dins[0][0] -= o.gain * dres[0]
	dins[1][0] -= dres[0]
	return
}

func (o *linBlock) SolveLin(mode LinMode, dout, dres []float64, ins Values, out []float64) (err error) {
	dout[0] = dres[0]
	return
}

// cosBlock implements r = y − cos(x)·u
type cosBlock struct {
	name string
}

func (o *cosBlock) Name() string { return o.name }
func (o *cosBlock) Inputs() []VarSpec {
	return []VarSpec{{Name: "x", Dim: 1}, {Name: "u", Dim: 1}}
}
func (o *cosBlock) Outputs() []VarSpec { return []VarSpec{{Name: "y", Dim: 1}} }

func (o *cosBlock) EvalResidual(res []float64, ins Values, out []float64) (err error) {
	res[0] = out[0] - math.Cos(ins[0][0])*ins[1][0]
	return
}

func (o *cosBlock) SolveResidual(out []float64, ins Values) (err error) {
	out[0] = math.Cos(ins[0][0]) * ins[1][0]
	return
}

func (o *cosBlock) ApplyLin(mode LinMode, dres []float64, dins Values, dout []float64, ins Values, out []float64) (err error) {
	x, u := ins[0][0], ins[1][0]
	if mode == Forward {
		dres[0] += dout[0] + math.Sin(x)*u*dins[0][0] - math.Cos(x)*dins[1][0]
		return
	}
	dout[0] += dres[0]
	dins[0][0] += math.Sin(x) * u * dres[0]
	dins[1][0] -= math.Cos(x) * dres[0]
	return
}

func (o *cosBlock) SolveLin(mode LinMode, dout, dres []float64, ins Values, out []float64) (err error) {
	dout[0] = dres[0]
	return
}

// sqrBlock implements r = y − (a·x²/2 + v)
type sqrBlock struct {
	name string
	a    float64
}

func (o *sqrBlock) Name() string { return o.name }
func (o *sqrBlock) Inputs() []VarSpec {
	return []VarSpec{{Name: "x", Dim: 1}, {Name: "v", Dim: 1}}
}
func (o *sqrBlock) Outputs() []VarSpec { return []VarSpec{{Name: "y", Dim: 1}} }

func (o *sqrBlock) EvalResidual(res []float64, ins Values, out []float64) (err error) {
	res[0] = out[0] - (0.5*o.a*ins[0][0]*ins[0][0] + ins[1][0])
	return
}

func (o *sqrBlock) SolveResidual(out []float64, ins Values) (err error) {
	out[0] = 0.5*o.a*ins[0][0]*ins[0][0] + ins[1][0]
	return
}

func (o *sqrBlock) ApplyLin(mode LinMode, dres []float64, dins Values, dout []float64, ins Values, out []float64) (err error) {
	x := ins[0][0]
	if mode == Forward {
		dres[0] += dout[0] - o.a*x*dins[0][0] - dins[1][0]
		return
	}
	dout[0] += dres[0]
	dins[0][0] -= o.a * x * dres[0]
	dins[1][0] -= dres[0]
	return
}

func (o *sqrBlock) SolveLin(mode LinMode, dout, dres []float64, ins Values, out []float64) (err error) {
	dout[0] = dres[0]
	return
}

// trimBlock implements the balance equation r = c − target; it owns the
// scalar g but has no local solve
type trimBlock struct {
	name   string
	target float64
}

func (o *trimBlock) Name() string       { return o.name }
func (o *trimBlock) Inputs() []VarSpec  { return []VarSpec{{Name: "c", Dim: 1}} }
func (o *trimBlock) Outputs() []VarSpec { return []VarSpec{{Name: "g", Dim: 1}} }

func (o *trimBlock) EvalResidual(res []float64, ins Values, out []float64) (err error) {
	res[0] = ins[0][0] - o.target
	return
}

func (o *trimBlock) ApplyLin(mode LinMode, dres []float64, dins Values, dout []float64, ins Values, out []float64) (err error) {
	if mode == Forward {
		dres[0] += dins[0][0]
		return
	}
	dins[0][0] += dres[0]
	return
}

// twoBlockGraph builds the cyclic pair x1 = a·x2 + b, x2 = c·x1 + d
func twoBlockGraph(tst *testing.T, a, c float64) *Graph {
	gr, err := NewGraph([]Block{&linBlock{"one", a}, &linBlock{"two", c}}, []Edge{
		{FromBlock: "one", FromVar: "y", ToBlock: "two", ToVar: "u"},
		{FromBlock: "two", FromVar: "y", ToBlock: "one", ToVar: "u"},
	})
	if err != nil {
		tst.Errorf("NewGraph failed:\n%v", err)
		return nil
	}
	return gr
}

// trimGraph builds x1 = a·x2 + g, x2 = c·x1 + d with the balance x2 = target;
// the balance owns g, which feeds the source term of the first block
func trimGraph(tst *testing.T, a, c, target float64) *Graph {
	gr, err := NewGraph([]Block{&linBlock{"one", a}, &linBlock{"two", c}, &trimBlock{"bal", target}}, []Edge{
		{FromBlock: "two", FromVar: "y", ToBlock: "one", ToVar: "u"},
		{FromBlock: "bal", FromVar: "g", ToBlock: "one", ToVar: "s"},
		{FromBlock: "one", FromVar: "y", ToBlock: "two", ToVar: "u"},
		{FromBlock: "two", FromVar: "y", ToBlock: "bal", ToVar: "c"},
	})
	if err != nil {
		tst.Errorf("NewGraph failed:\n%v", err)
		return nil
	}
	return gr
}
