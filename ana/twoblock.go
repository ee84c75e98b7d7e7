// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical solutions
package ana

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// TwoBlock implements the closed-form solution of two mutually coupled
// linear scalar equations
//
//	r1 = x1 − (a·x2 + b) = 0
//	r2 = x2 − (c·x1 + d) = 0
//
// whose fixed point is
//
//	x1 = (b + a·d) / (1 − a·c)
//	x2 = (d + c·b) / (1 − a·c)
//
// Block Gauss-Seidel converges on this pair whenever |a·c| < 1.
type TwoBlock struct {

	// input
	a float64 // coupling gain of x2 into x1
	b float64 // free source term of x1
	c float64 // coupling gain of x1 into x2
	d float64 // free source term of x2
}

// Init initialises this structure
func (o *TwoBlock) Init(prms dbf.Params) {

	// default values
	o.a = 0.3
	o.b = 1.0
	o.c = 0.4
	o.d = 2.0

	// parameters
	for _, p := range prms {
		switch p.N {
		case "a":
			o.a = p.V
		case "b":
			o.b = p.V
		case "c":
			o.c = p.V
		case "d":
			o.d = p.V
		}
	}

	// check
	det := 1.0 - o.a*o.c
	if det == 0 {
		chk.Panic("two-block system is singular: 1 − a·c = 0 (a=%g, c=%g)", o.a, o.c)
	}
}

// Solution returns the exact coupled state
func (o *TwoBlock) Solution() (x1, x2 float64) {
	det := 1.0 - o.a*o.c
	x1 = (o.b + o.a*o.d) / det
	x2 = (o.d + o.c*o.b) / det
	return
}

// Deriv returns the exact total derivatives of the coupled state with
// respect to the free source terms b and d
func (o *TwoBlock) Deriv() (dx1db, dx1dd, dx2db, dx2dd float64) {
	det := 1.0 - o.a*o.c
	dx1db = 1.0 / det
	dx1dd = o.a / det
	dx2db = o.c / det
	dx2dd = 1.0 / det
	return
}
