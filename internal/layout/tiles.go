package layout

import "fmt"

// Tile places one frame texture on the virtual canvas.
type Tile struct {
	Key       string
	ControlID string
	// Frame is the 1-based frame index.
	Frame   int
	Texture string
	Offset  Offset
}

// TileLayout is the background panel with one image control per frame.
type TileLayout struct {
	Namespace string
	PanelKey  string
	// AnimRef references the first timeline step.
	AnimRef string
	Tiles   []Tile
}

// tiles fills the grid left to right, wrapping to the next row once x passes
// TileMax and back to the first row once y passes TileMax.
func (g *Generator) tiles(n int, animRef string) *TileLayout {
	c := g.cfg
	tiles := make([]Tile, n)
	x, y := c.TileMin, c.TileMin
	for i := range tiles {
		key := c.TileName
		if i > 0 {
			key = fmt.Sprintf("%s[%d]", c.TileName, i)
		}
		tiles[i] = Tile{
			Key:       key,
			ControlID: g.NewID(),
			Frame:     i + 1,
			Texture:   fmt.Sprintf(c.FrameTexture, i+1),
			Offset:    Offset{X: x, Y: y},
		}
		x += c.TileStep
		if x > c.TileMax {
			x = c.TileMin
			y += c.TileStep
		}
		if y > c.TileMax {
			y = c.TileMin
		}
	}
	return &TileLayout{
		Namespace: c.TileNamespace,
		PanelKey:  c.PanelKey,
		AnimRef:   animRef,
		Tiles:     tiles,
	}
}

func (l *TileLayout) controlKey(t Tile) string {
	return t.ControlID + "@" + l.Namespace + "." + t.Key
}

// Document renders the layout: the panel first, then every tile definition.
func (l *TileLayout) Document() Object {
	controls := make([]Object, len(l.Tiles))
	for i, t := range l.Tiles {
		controls[i] = Object{{Key: l.controlKey(t), Value: Object{}}}
	}

	doc := make(Object, 0, len(l.Tiles)+2)
	doc = append(doc,
		Member{Key: "namespace", Value: l.Namespace},
		Member{Key: l.PanelKey, Value: Object{
			{Key: "anims", Value: []string{l.AnimRef}},
			{Key: "controls", Value: controls},
			{Key: "size", Value: fullSize},
			{Key: "offset", Value: l.AnimRef},
			{Key: "anchor_from", Value: "center"},
			{Key: "anchor_to", Value: "center"},
		}},
	)
	for _, t := range l.Tiles {
		doc = append(doc, Member{Key: t.Key, Value: Object{
			{Key: "type", Value: "image"},
			{Key: "texture", Value: t.Texture},
			{Key: "fill", Value: true},
			{Key: "size", Value: fullSize},
			{Key: "offset", Value: t.Offset},
		}})
	}
	return doc
}
