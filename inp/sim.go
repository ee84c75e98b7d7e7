// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for simulations
type Data struct {
	Desc    string `json:"desc"`    // description of simulation
	Solver  string `json:"solver"`  // coupled solver type: {gs, schur} => block Gauss-Seidel, Schur-partitioned Newton (trim)
	Verbose bool   `json:"verbose"` // show messages
}

// CouplingData holds data for the fixed-point (block Gauss-Seidel) coupling
// solver, including the Aitken relaxation parameters. It is immutable once
// a solve begins.
type CouplingData struct {
	Atol     float64 `json:"atol"`     // absolute tolerance on ‖r‖
	Rtol     float64 `json:"rtol"`     // relative tolerance on ‖r‖/‖r0‖
	NmaxIt   int     `json:"nmaxit"`   // max number of sweeps
	Theta0   float64 `json:"theta0"`   // initial Aitken relaxation factor
	ThetaMin float64 `json:"thetamin"` // lower clip of Aitken factor
	ThetaMax float64 `json:"thetamax"` // upper clip of Aitken factor
	ShowR    bool    `json:"showr"`    // show residual norms per sweep
}

// SetDefaults sets default values
func (o *CouplingData) SetDefaults() {
	o.Atol = 1e-10
	o.Rtol = 1e-10
	o.NmaxIt = 50
	o.Theta0 = 0.5
	o.ThetaMin = -1.0
	o.ThetaMax = 1.0
}

// Validate checks this set of parameters; returns a non-empty message on failure
func (o *CouplingData) Validate() (msg string) {
	if o.Atol < 0 || o.Rtol < 0 {
		return io.Sf("tolerances must be non-negative: atol=%g rtol=%g", o.Atol, o.Rtol)
	}
	if o.Atol == 0 && o.Rtol == 0 {
		return "atol and rtol cannot both be zero"
	}
	if o.NmaxIt < 1 {
		return io.Sf("nmaxit must be at least 1: nmaxit=%d", o.NmaxIt)
	}
	if o.Theta0 <= 0 || o.Theta0 > 1 {
		return io.Sf("theta0 must be within (0,1]: theta0=%g", o.Theta0)
	}
	if o.ThetaMin >= o.ThetaMax {
		return io.Sf("Aitken clip range is empty: [%g,%g]", o.ThetaMin, o.ThetaMax)
	}
	return
}

// TrimData holds data for the Schur-partitioned Newton (trim) solver. The
// outer solver owns the configuration of its inner coupling solver and of
// the linear sweeps; nested solvers never mutate a shared option object.
type TrimData struct {
	Atol         float64      `json:"atol"`         // absolute tolerance on the balance residual
	Rtol         float64      `json:"rtol"`         // relative tolerance on the balance residual
	NmaxIt       int          `json:"nmaxit"`       // max number of outer Newton iterations
	MaxSubSolves int          `json:"maxsubsolves"` // global budget of inner coupling sweeps
	Groups       []string     `json:"groups"`       // partition order; must be ["analysis", "balance"]
	Balance      string       `json:"balance"`      // name of the balance block
	Lower        []float64    `json:"lower"`        // optional lower bounds on balance outputs
	Upper        []float64    `json:"upper"`        // optional upper bounds on balance outputs
	Coupling     CouplingData `json:"coupling"`     // inner nonlinear coupling solver
	Linear       CouplingData `json:"linear"`       // linear (forward/adjoint) sweeps
}

// SetDefaults sets default values
func (o *TrimData) SetDefaults() {
	o.Atol = 1e-10
	o.Rtol = 1e-10
	o.NmaxIt = 60
	o.MaxSubSolves = 60
	o.Groups = []string{"analysis", "balance"}
	o.Coupling.SetDefaults()
	o.Linear.SetDefaults()
	o.Linear.Atol = 1e-12
	o.Linear.Rtol = 1e-12
	o.Linear.NmaxIt = 200
	o.Linear.Theta0 = 1.0
}

// Validate checks this set of parameters; returns a non-empty message on failure
func (o *TrimData) Validate() (msg string) {
	if o.Atol < 0 || o.Rtol < 0 {
		return io.Sf("tolerances must be non-negative: atol=%g rtol=%g", o.Atol, o.Rtol)
	}
	if o.NmaxIt < 1 {
		return io.Sf("nmaxit must be at least 1: nmaxit=%d", o.NmaxIt)
	}
	if o.MaxSubSolves < 1 {
		return io.Sf("maxsubsolves must be at least 1: maxsubsolves=%d", o.MaxSubSolves)
	}
	if len(o.Groups) != 2 || o.Groups[0] != "analysis" || o.Groups[1] != "balance" {
		return io.Sf("group partition order must be [analysis balance]: got %v", o.Groups)
	}
	if o.Balance == "" {
		return "balance block name must be given"
	}
	if msg = o.Coupling.Validate(); msg != "" {
		return "coupling: " + msg
	}
	if msg = o.Linear.Validate(); msg != "" {
		return "linear: " + msg
	}
	return
}

// PanelData holds data for the supersonic panel aerostructural example
type PanelData struct {
	Chord      float64 `json:"chord"`      // panel chord
	Width      float64 `json:"width"`      // panel width
	NelStruct  int     `json:"nelstruct"`  // number of structural elements
	NelAero    int     `json:"nelaero"`    // number of aerodynamic elements
	Modulus    float64 `json:"modulus"`    // Young's modulus
	Density    float64 `json:"density"`    // material density
	Qdyn       float64 `json:"qdyn"`       // dynamic pressure
	Mach       float64 `json:"mach"`       // Mach number (must be supersonic)
	Aoa0       float64 `json:"aoa0"`       // initial angle of attack [deg]
	TargetCl   float64 `json:"targetcl"`   // target lift coefficient for trim
	Thickness0 float64 `json:"thickness0"` // initial thickness of each element
	Morph      float64 `json:"morph"`      // geometry morph parameter (chord scale)
}

// SetDefaults sets default values (the supersonic_panel baseline)
func (o *PanelData) SetDefaults() {
	o.Chord = 0.3
	o.Width = 0.01
	o.NelStruct = 20
	o.NelAero = 7
	o.Modulus = 70e9
	o.Density = 2800.0
	o.Qdyn = 3e4
	o.Mach = 5.0
	o.Aoa0 = 3.0
	o.TargetCl = 0.15
	o.Thickness0 = 0.001
	o.Morph = 1.0
}

// Simulation holds all simulation data read from a .sim file
type Simulation struct {
	Data     Data         `json:"data"`
	Coupling CouplingData `json:"coupling"`
	Trim     TrimData     `json:"trim"`
	Panel    PanelData    `json:"panel"`

	// derived
	DirIn string // directory of the .sim file
	Key   string // simulation key; e.g. mysim.sim => mysim
}

// ReadSim reads a simulation file and fills the Simulation structure,
// applying defaults first so that only given keys are overridden. All
// solver sections are validated; invalid combinations fail before any
// residual evaluation.
func ReadSim(simfilepath string) (o *Simulation, err error) {
	o = new(Simulation)
	o.Coupling.SetDefaults()
	o.Trim.SetDefaults()
	o.Panel.SetDefaults()
	// note: io.ReadFile panics on a missing file; a bad path must surface as
	// an ordinary error here
	b, err := os.ReadFile(simfilepath)
	if err != nil {
		return nil, chk.Err("cannot read simulation file %q:\n%v", simfilepath, err)
	}
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err("cannot parse simulation file %q:\n%v", simfilepath, err)
	}
	o.DirIn = filepath.Dir(simfilepath)
	o.Key = io.FnKey(filepath.Base(simfilepath))
	if msg := o.Coupling.Validate(); msg != "" {
		return nil, chk.Err("invalid coupling parameters in %q: %s", simfilepath, msg)
	}
	if o.Data.Solver == "schur" {
		if msg := o.Trim.Validate(); msg != "" {
			return nil, chk.Err("invalid trim parameters in %q: %s", simfilepath, msg)
		}
	}
	return
}
