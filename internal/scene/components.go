package scene

// Built-in component palette. These are ordinary components with no special
// standing; projects extend the palette by registering their own types.

// Transform places an entity in world space.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

// Sprite renders a textured quad at the owner's transform.
type Sprite struct {
	Texture string
	Tint    string
	Layer   int

	// FlipY predates per-axis scale and is kept only so old documents keep
	// decoding. Editing tooling ignores it.
	FlipY bool `undo:"deprecated"`
}

// RequiredComponents declares that a sprite cannot render without a
// transform on the same entity.
func (*Sprite) RequiredComponents() []Component {
	return []Component{&Transform{}}
}

// Collider gives an entity a solid axis-aligned bounding box.
type Collider struct {
	Width  float64
	Height float64
	Solid  bool
}

// Script attaches a named behavior with tunable parameters.
type Script struct {
	Source string
	Params map[string]float64
}
