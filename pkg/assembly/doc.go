// Package assembly turns a noisily generated list of primitive shapes into a
// coherent piece of furniture.
//
// A run is a fixed sequence of passes, each a function from a component list
// to a new one:
//
//  1. ResolveGround drops the assembly onto z = 0.
//  2. BuildConnectivity records which components touch.
//  3. AlignSupports seats surfaces on their legs and evens the legs out.
//  4. SnapConnections closes gaps between declared pairs.
//  5. CheckPatterns reports broken mirror and radial groups.
//
// Validator.Validate strings them together. Passes never return errors;
// everything they cannot repair ends up in the Report.
package assembly
