// Package physics implements the default chord model: line absorption by an
// extended atmosphere around a transiting body, seen against a limb-darkened
// stellar disk.
//
// All quantities are CGS. The chord grid is centred on the star; at orbital
// phase phi the body's projected centre sits at (a sin phi, b R_star).
package physics
