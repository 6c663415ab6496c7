// Package scene is the data model shared by every stage of trestle: the
// component list a primitive generator emits, the validator repairs and the
// exporter realizes.
//
// A Component is a named part ("Table_Leg_3"). Its first Operation carries
// the geometry: a Shape, which is one of a closed set of parameter records,
// plus a Transform. Names double as roles; see IsGroundContact and
// IsSupportedSurface.
//
// The JSON form is the generator wire format:
//
//	[{"name": "Table_Top",
//	  "operations": [{"operation": "mesh.build_box_mesh",
//	                  "params": {"width": 1.2, "depth": 0.8, "height": 0.03},
//	                  "transform": {"location": [0, 0, 0.75]}}]}]
package scene
