// Package transit builds the chord grid of a transit light-curve run,
// evaluates a chord model over it in parallel and reduces the per-chord
// transmissions to a light curve.
//
// Responsibilities: axis construction, grid enumeration, ordered parallel
// evaluation and spatial reduction. Key types: Axis, Chord, Grid,
// SharedArguments, ChordModel, ResultTable, LightCurve.
//
// The grid is enumerated orbital phase first, then phi, then rho (see
// GridNesting). Shape.ChordIndex is the only mapping between coordinates and
// flat positions; enumeration, reduction and the tau map all go through it.
//
// The package never branches on the concrete chord model and performs no I/O.
package transit
