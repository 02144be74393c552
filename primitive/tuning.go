package primitive

// Fixed compile-time tolerances shared by the RayTracer facade, the XDG
// service layer, and the element walker (spec.md S5 "Tolerances").
const (
	// MinBoxBump is the floor on BoxBumpFactor*diagonal applied to every
	// volume's primitive dilation, so tiny volumes still get a usable bump.
	MinBoxBump = 1e-3

	// BoxBumpFactor scales a volume's bounding-box diagonal to produce its
	// box_bump. Not specified numerically by the source; chosen small
	// enough to be negligible next to MinBoxBump for anything but very
	// large models.
	BoxBumpFactor = 1e-4

	// TinyBit is the surface-crossing bump used by Segments and the walker
	// to step just past a hit triangle before re-firing.
	TinyBit = 1e-12
)
