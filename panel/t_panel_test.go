// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"math"
	"testing"

	"github.com/Asthelen/mphys/inp"
	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/utl"
)

// testSim returns a default simulation input for the given solver
func testSim(solver string) *inp.Simulation {
	o := new(inp.Simulation)
	o.Data.Solver = solver
	o.Coupling.SetDefaults()
	o.Trim.SetDefaults()
	o.Trim.Balance = "balance"
	o.Trim.MaxSubSolves = 5000
	o.Panel.SetDefaults()
	return o
}

func Test_panel01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel01. aeroelastic analysis at fixed angle of attack")

	sim := testSim("gs")
	gr, err := NewModel(sim)
	if err != nil {
		tst.Errorf("NewModel failed:\n%v", err)
		return
	}
	st, err := NewModelState(gr, sim)
	if err != nil {
		tst.Errorf("NewModelState failed:\n%v", err)
		return
	}
	sol, err := mph.NewSolver("gs", gr, sim)
	if err != nil {
		tst.Errorf("NewSolver failed:\n%v", err)
		return
	}
	stats, err := sol.Run(st)
	if err != nil {
		tst.Errorf("Run failed:\n%v", err)
		return
	}
	io.Pforan("it=%d ‖r‖=%g\n", stats.It, stats.ResidA)

	// uniform thickness: mass = ρ·width·t0·chord
	p := &sim.Panel
	mass, _ := gr.Output(st, "mass", "mass")
	chk.Float64(tst, "mass", 1e-12, mass[0], p.Density*p.Width*p.Thickness0*p.Chord)

	// positive angle of attack lifts the panel; the upward bending reduces
	// the local incidence, so the flexible lift stays below the rigid one
	u, _ := gr.Output(st, "struct", "u_struct")
	tip := u[len(u)-2]
	if tip <= 0 {
		tst.Errorf("tip deflection must be positive: %g", tip)
		return
	}
	cl, _ := gr.Output(st, "aero", "c_l")
	clRigid := 2.0 / math.Sqrt(p.Mach*p.Mach-1.0) * p.Aoa0 * math.Pi / 180.0
	if cl[0] <= 0 || cl[0] >= clRigid {
		tst.Errorf("lift coefficient out of range: c_l=%g rigid=%g", cl[0], clRigid)
	}
}

func Test_panel02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel02. analytic Jacobians of all disciplines")

	tol := 1e-5

	// beam with non-uniform inputs
	beam := NewBeam(3, 0.01)
	x := []float64{0, 0.09, 0.21, 0.3}
	t := []float64{1.0e-3, 1.2e-3, 0.9e-3}
	f := []float64{0.0, 1.0, -0.5, 2.0}
	ins := mph.Values{x, t, []float64{70e9}, f}
	u := make([]float64, 8)
	if err := beam.SolveResidual(u, ins); err != nil {
		tst.Errorf("SolveResidual failed:\n%v", err)
		return
	}

	// the direct solve satisfies the residual equations
	res := make([]float64, 8)
	if err := beam.EvalResidual(res, ins, u); err != nil {
		tst.Errorf("EvalResidual failed:\n%v", err)
		return
	}
	chk.Float64(tst, "‖r‖ after solve", 1e-8, la.Vector(res).Norm(), 0)
	if beam.TipDeflection(u) == 0 {
		tst.Errorf("loaded beam must deflect")
		return
	}
	checkLin(tst, beam, ins, u, tol)

	// piston theory
	aero := NewAero(3, 0.3, 0.01, 3e4, 5.0)
	uair := []float64{0, 1e-3, 2.5e-3, 4e-3}
	ains := mph.Values{x, uair, []float64{3.0}}
	yout := make([]float64, 5)
	if err := aero.SolveResidual(yout, ains); err != nil {
		tst.Errorf("SolveResidual failed:\n%v", err)
		return
	}
	checkLin(tst, aero, ains, yout, tol)

	// geometry
	mesh := NewMesh(0.3, 3, 2)
	mins := mph.Values{{1.1}}
	mout := make([]float64, 7)
	mesh.SolveResidual(mout, mins)
	checkLin(tst, mesh, mins, mout, tol)

	// mass
	mass := NewMass(3, 2800, 0.01)
	sins := mph.Values{x, t}
	sout := make([]float64, 1)
	mass.SolveResidual(sout, sins)
	checkLin(tst, mass, sins, sout, tol)

	// transfers
	T := xferMatrix(3, 2)
	dx := NewDispXfer(T)
	dins := mph.Values{u}
	dout := make([]float64, 3)
	dx.SolveResidual(dout, dins)
	checkLin(tst, dx, dins, dout, tol)

	lx := NewLoadXfer(T)
	lins := mph.Values{{1.0, -2.0, 0.5}}
	lout := make([]float64, 4)
	lx.SolveResidual(lout, lins)
	checkLin(tst, lx, lins, lout, tol)

	// design variable passthrough
	dv := NewDvs("dv_struct", 3)
	vins := mph.Values{t}
	vout := make([]float64, 3)
	dv.SolveResidual(vout, vins)
	checkLin(tst, dv, vins, vout, tol)
}

func Test_panel03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel03. trimmed flight and exact total derivatives")

	sim := testSim("schur")
	gr, err := NewModel(sim)
	if err != nil {
		tst.Errorf("NewModel failed:\n%v", err)
		return
	}
	st, err := NewModelState(gr, sim)
	if err != nil {
		tst.Errorf("NewModelState failed:\n%v", err)
		return
	}
	sol, err := mph.NewSolver("schur", gr, sim)
	if err != nil {
		tst.Errorf("NewSolver failed:\n%v", err)
		return
	}
	stats, err := sol.Run(st)
	if err != nil {
		tst.Errorf("Run failed:\n%v", err)
		return
	}
	io.Pforan("it=%d subit=%d ‖rA‖=%g ‖rB‖=%g\n", stats.It, stats.SubIt, stats.ResidA, stats.ResidB)

	// trimmed: the lift coefficient matches the target
	p := &sim.Panel
	cl, _ := gr.Output(st, "aero", "c_l")
	chk.Float64(tst, "c_l at trim", 1e-8, cl[0], p.TargetCl)
	aoa, _ := gr.Output(st, "balance", "aoa")
	io.Pforan("trimmed aoa = %g [deg]\n", aoa[0])

	// adjoint derivatives
	adj, err := mph.NewAdjoint(gr, sol, nil)
	if err != nil {
		tst.Errorf("NewAdjoint failed:\n%v", err)
		return
	}

	// mass is decoupled from the aeroelastic state: dm/dt_e = ρ·w·l_e exactly
	D, err := adj.TotalDeriv(st, "mass", "mass", "dvs", "dv_struct")
	if err != nil {
		tst.Errorf("TotalDeriv failed:\n%v", err)
		return
	}
	le := p.Morph * p.Chord / float64(p.NelStruct)
	ref := make([]float64, p.NelStruct)
	utl.Fill(ref, p.Density*p.Width*le)
	chk.Array(tst, "dm/dt", 1e-10, D[0], ref)

	// chord morphing scales the mass linearly
	D, err = adj.TotalDeriv(st, "mass", "mass", "mesh", "morph")
	if err != nil {
		tst.Errorf("TotalDeriv failed:\n%v", err)
		return
	}
	chk.Float64(tst, "dm/dmorph", 1e-10, D[0][0], p.Density*p.Width*p.Thickness0*p.Chord)

	// trimmed angle of attack wrt the first element thickness, vs central
	// differences with a full re-trim per sample
	D, err = adj.TotalDeriv(st, "balance", "aoa", "dvs", "dv_struct")
	if err != nil {
		tst.Errorf("TotalDeriv failed:\n%v", err)
		return
	}
	dnum := num.DerivCen5(p.Thickness0, 1e-7, func(tval float64) float64 {
		s2, e := NewModelState(gr, sim)
		if e != nil {
			return 0
		}
		tv := make([]float64, p.NelStruct)
		utl.Fill(tv, p.Thickness0)
		tv[0] = tval
		gr.SetInput(s2, "dvs", "dv_struct", tv)
		if _, e = sol.Run(s2); e != nil {
			tst.Errorf("re-trim failed:\n%v", e)
			return 0
		}
		a2, _ := gr.Output(s2, "balance", "aoa")
		return a2[0]
	})
	e := chk.PrintAnaNum("daoa/dt0", 1e-3*(1+math.Abs(D[0][0])), D[0][0], dnum, chk.Verbose)
	if e != nil {
		tst.Errorf("%v", e)
	}
}

func Test_panel04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel04. subsonic Mach is outside the aerodynamic domain")

	aero := NewAero(3, 0.3, 0.01, 3e4, 0.8)
	out := make([]float64, 5)
	err := aero.SolveResidual(out, mph.Values{{0, 0.1, 0.2, 0.3}, {0, 0, 0, 0}, {3.0}})
	if err == nil {
		tst.Errorf("subsonic Mach must fail")
		return
	}
	if _, ok := err.(*mph.NumericalDomainError); !ok {
		tst.Errorf("NumericalDomainError expected; got %T: %v", err, err)
	}
}
