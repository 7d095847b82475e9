// Package model provides the value types shared by the geometry resolver, the
// document collaborator and the session layer.
//
// # Units
//
// All resolved geometry is expressed in English Metric Units (EMU), the base
// length unit of Office Open XML: 914400 per inch, 12700 per point. A
// [Length] keeps the unit it was written in until it is resolved:
//
//	l, _ := model.ParseLength("1.5in")
//	emu, _ := l.ToEMU() // 1371600
//
// Percentages and "auto" need a reference dimension or an aspect ratio and are
// resolved by the geometry package.
//
// # Geometry
//
//   - [Canvas] - the surface (slide) size
//   - [Geometry] - a resolved {Left, Top, Width, Height}; top-left origin, Y down
//   - [EMUGeometry] - the integral form stored in a:off / a:ext
//   - [Point], [Size] - helpers
package model
