// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"math"

	"github.com/cpmech/gosl/mpi"
)

// Edge connects (source block, source variable) to (destination block,
// destination variable). Sel optionally selects source components; e.g.
// picking one scenario's slice out of a vector-valued design variable. If
// Sel is nil the dimensions must match and the whole array is carried over.
type Edge struct {
	FromBlock string
	FromVar   string
	ToBlock   string
	ToVar     string
	Sel       []int
}

// vslot locates one named variable inside an arena
type vslot struct {
	name string
	ofs  int  // offset into arena
	dim  int  // number of components
	fed  bool // inputs only: true if an edge writes this slot
}

// redge is an Edge resolved into arena offsets at graph-build time
type redge struct {
	src int   // offset into outputs arena (Y)
	dst int   // offset into inputs arena (U)
	n   int   // number of components copied
	sel []int // nil => contiguous copy
	to  int   // destination block index
}

// binfo holds resolved per-block arena metadata
type binfo struct {
	ins    []vslot // input slots (into U)
	outs   []vslot // output slots (into Y)
	yofs   int     // first output offset
	ny     int     // total output components
	uofs   int     // first input offset
	nu     int     // total input components
	pulls  []int   // edges feeding this block
	pushes []int   // edges sourced at this block
}

// Graph holds the blocks of one multidisciplinary configuration plus the
// named variable edges between them, resolved once at build time into
// integer offsets into two arenas: Y (all block outputs, with residuals
// parallel to it) and U (all block inputs). It is constructed once per
// configuration and persists across repeated solves; all per-solve mutable
// data lives in State.
type Graph struct {

	// input
	Blocks []Block
	Edges  []Edge

	// multiprocessing data (blocks may shard their state internally)
	Distr bool              // distributed run: agree on residual norms across ranks
	Comm  *mpi.Communicator // communicator for norm agreement; required when Distr
	Proc  int               // this processor number

	// resolved data
	Ny     int // total number of output (state) components
	Nu     int // total number of input components
	blk    map[string]int
	info   []binfo
	redges []redge
}

// State holds all per-solve mutable data: the outputs arena Y, the inputs
// arena U (edge-fed and free inputs) and the residual arena R (parallel to
// Y). The same structure carries linear/adjoint quantities in transient
// instances created per request.
type State struct {
	Y []float64
	U []float64
	R []float64
}

// NewGraph resolves blocks and edges into a coupling graph, checking all
// names, dimensions and selections. Wiring mistakes are build-time errors.
func NewGraph(blocks []Block, edges []Edge) (o *Graph, err error) {
	o = new(Graph)
	o.Blocks = blocks
	o.Edges = edges
	o.blk = make(map[string]int)
	o.info = make([]binfo, len(blocks))

	// allocate slots
	for i, b := range blocks {
		if b.Name() == "" {
			return nil, cfgerr("block %d has empty name", i)
		}
		if _, ok := o.blk[b.Name()]; ok {
			return nil, cfgerr("duplicate block name %q", b.Name())
		}
		o.blk[b.Name()] = i
		nfo := &o.info[i]
		nfo.yofs = o.Ny
		nfo.uofs = o.Nu
		for _, v := range b.Outputs() {
			if v.Dim < 1 {
				return nil, cfgerr("block %q: output %q has dimension %d", b.Name(), v.Name, v.Dim)
			}
			nfo.outs = append(nfo.outs, vslot{name: v.Name, ofs: o.Ny, dim: v.Dim})
			o.Ny += v.Dim
		}
		for _, v := range b.Inputs() {
			if v.Dim < 1 {
				return nil, cfgerr("block %q: input %q has dimension %d", b.Name(), v.Name, v.Dim)
			}
			nfo.ins = append(nfo.ins, vslot{name: v.Name, ofs: o.Nu, dim: v.Dim})
			o.Nu += v.Dim
		}
		nfo.ny = o.Ny - nfo.yofs
		nfo.nu = o.Nu - nfo.uofs
	}

	// resolve edges
	for k, e := range edges {
		sb, sv, err := o.outslot(e.FromBlock, e.FromVar)
		if err != nil {
			return nil, err
		}
		db, dv, err := o.inslot(e.ToBlock, e.ToVar)
		if err != nil {
			return nil, err
		}
		if dv.fed {
			return nil, cfgerr("edge %d: input %q of block %q is fed by more than one edge", k, e.ToVar, e.ToBlock)
		}
		r := redge{src: sv.ofs, dst: dv.ofs, n: dv.dim, sel: e.Sel, to: db}
		if e.Sel == nil {
			if sv.dim != dv.dim {
				return nil, cfgerr("edge %d: dimension mismatch: %q.%q has %d components but %q.%q has %d",
					k, e.FromBlock, e.FromVar, sv.dim, e.ToBlock, e.ToVar, dv.dim)
			}
		} else {
			if len(e.Sel) != dv.dim {
				return nil, cfgerr("edge %d: selection has %d indices but %q.%q has %d components",
					k, len(e.Sel), e.ToBlock, e.ToVar, dv.dim)
			}
			for _, idx := range e.Sel {
				if idx < 0 || idx >= sv.dim {
					return nil, cfgerr("edge %d: selection index %d out of range of %q.%q (%d components)",
						k, idx, e.FromBlock, e.FromVar, sv.dim)
				}
			}
		}
		// mark fed slot
		for j := range o.info[db].ins {
			if o.info[db].ins[j].ofs == dv.ofs {
				o.info[db].ins[j].fed = true
			}
		}
		o.redges = append(o.redges, r)
		o.info[db].pulls = append(o.info[db].pulls, len(o.redges)-1)
		o.info[sb].pushes = append(o.info[sb].pushes, len(o.redges)-1)
	}
	return
}

// NewState allocates a fresh per-solve state with zeroed arenas
func (o *Graph) NewState() *State {
	return &State{
		Y: make([]float64, o.Ny),
		U: make([]float64, o.Nu),
		R: make([]float64, o.Ny),
	}
}

// BlockIndex returns the index of a named block
func (o *Graph) BlockIndex(name string) (b int, err error) {
	b, ok := o.blk[name]
	if !ok {
		return 0, cfgerr("unknown block %q", name)
	}
	return
}

// outslot finds the slot of a named output
func (o *Graph) outslot(block, vname string) (b int, v *vslot, err error) {
	b, err = o.BlockIndex(block)
	if err != nil {
		return
	}
	for j := range o.info[b].outs {
		if o.info[b].outs[j].name == vname {
			return b, &o.info[b].outs[j], nil
		}
	}
	return 0, nil, cfgerr("block %q has no output %q", block, vname)
}

// inslot finds the slot of a named input
func (o *Graph) inslot(block, vname string) (b int, v *vslot, err error) {
	b, err = o.BlockIndex(block)
	if err != nil {
		return
	}
	for j := range o.info[b].ins {
		if o.info[b].ins[j].name == vname {
			return b, &o.info[b].ins[j], nil
		}
	}
	return 0, nil, cfgerr("block %q has no input %q", block, vname)
}

// SetInput sets a free (non edge-fed) input; e.g. a design variable
func (o *Graph) SetInput(st *State, block, vname string, vals []float64) (err error) {
	_, v, err := o.inslot(block, vname)
	if err != nil {
		return
	}
	if v.fed {
		return cfgerr("input %q of block %q is fed by an edge and cannot be set directly", vname, block)
	}
	if len(vals) != v.dim {
		return cfgerr("input %q of block %q has %d components; got %d values", vname, block, v.dim, len(vals))
	}
	copy(st.U[v.ofs:v.ofs+v.dim], vals)
	return
}

// SetOutput seeds an output value; e.g. an initial guess or balance unknown
func (o *Graph) SetOutput(st *State, block, vname string, vals []float64) (err error) {
	_, v, err := o.outslot(block, vname)
	if err != nil {
		return
	}
	if len(vals) != v.dim {
		return cfgerr("output %q of block %q has %d components; got %d values", vname, block, v.dim, len(vals))
	}
	copy(st.Y[v.ofs:v.ofs+v.dim], vals)
	return
}

// Output returns a copy of an output array
func (o *Graph) Output(st *State, block, vname string) (vals []float64, err error) {
	_, v, err := o.outslot(block, vname)
	if err != nil {
		return
	}
	vals = make([]float64, v.dim)
	copy(vals, st.Y[v.ofs:v.ofs+v.dim])
	return
}

// Ins returns the input views of one block (slices into the U arena)
func (o *Graph) Ins(st *State, b int) (ins Values) {
	nfo := &o.info[b]
	ins = make(Values, len(nfo.ins))
	for j, v := range nfo.ins {
		ins[j] = st.U[v.ofs : v.ofs+v.dim]
	}
	return
}

// Out returns the flattened output view of one block (slice into Y)
func (o *Graph) Out(st *State, b int) []float64 {
	nfo := &o.info[b]
	return st.Y[nfo.yofs : nfo.yofs+nfo.ny]
}

// Res returns the residual view of one block (slice into R)
func (o *Graph) Res(st *State, b int) []float64 {
	nfo := &o.info[b]
	return st.R[nfo.yofs : nfo.yofs+nfo.ny]
}

// Pull copies current values along the incoming edges of block b; i.e. it
// gathers the block's edge-fed inputs from the outputs arena
func (o *Graph) Pull(st *State, b int) {
	for _, k := range o.info[b].pulls {
		e := &o.redges[k]
		if e.sel == nil {
			copy(st.U[e.dst:e.dst+e.n], st.Y[e.src:e.src+e.n])
		} else {
			for i, idx := range e.sel {
				st.U[e.dst+i] = st.Y[e.src+idx]
			}
		}
	}
}

// PullAll gathers the edge-fed inputs of all blocks
func (o *Graph) PullAll(st *State) {
	for b := range o.Blocks {
		o.Pull(st, b)
	}
}

// ScatterT performs the transpose of Pull for block b: it accumulates the
// block's input-arena values back into the source slots of the outputs
// arena. Used by the transposed (adjoint) linear sweeps.
func (o *Graph) ScatterT(st *State, b int) {
	for _, k := range o.info[b].pulls {
		e := &o.redges[k]
		if e.sel == nil {
			for i := 0; i < e.n; i++ {
				st.Y[e.src+i] += st.U[e.dst+i]
			}
		} else {
			for i, idx := range e.sel {
				st.Y[e.src+idx] += st.U[e.dst+i]
			}
		}
	}
}

// EvalResid pulls the inputs of block b and evaluates its residual into the
// R arena, checking for invalid numeric states
func (o *Graph) EvalResid(st *State, b, it int) (err error) {
	o.Pull(st, b)
	blk := o.Blocks[b]
	err = blk.EvalResidual(o.Res(st, b), o.Ins(st, b), o.Out(st, b))
	if err != nil {
		return
	}
	for _, r := range o.Res(st, b) {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return &NumericalDomainError{Block: blk.Name(), It: it, Msg: "residual is NaN or Inf"}
		}
	}
	return
}

// EvalResids evaluates the residuals of the given blocks, in order
func (o *Graph) EvalResids(st *State, blocks []int, it int) (err error) {
	for _, b := range blocks {
		err = o.EvalResid(st, b, it)
		if err != nil {
			return
		}
	}
	return
}

// Norm returns the L2 norm of vector entries at the given arena indices.
// In a distributed run the squared sum is agreed across all ranks first, so
// every worker sees the same convergence state before proceeding.
func (o *Graph) Norm(v []float64, idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += v[i] * v[i]
	}
	if o.Distr {
		x := []float64{0}
		o.Comm.AllReduceSum(x, []float64{s})
		s = x[0]
	}
	return math.Sqrt(s)
}

// YIdx returns the flat list of output-arena indices of the given blocks
func (o *Graph) YIdx(blocks []int) (idx []int) {
	for _, b := range blocks {
		nfo := &o.info[b]
		for i := 0; i < nfo.ny; i++ {
			idx = append(idx, nfo.yofs+i)
		}
	}
	return
}
