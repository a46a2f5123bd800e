// Package layout computes the animated background UI of a pack: a cyclic
// animation timeline with one step per frame and a tiled control layout
// referencing every frame texture.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Config holds the names and coordinate bounds used by the generator. The
// defaults reproduce the layout the BetMC UI pack expects.
type Config struct {
	// AnimationName is the timeline step base name, prefixed by the namespace.
	AnimationName string
	// TileName is the base key of tile image controls.
	TileName string
	// PanelKey is the background panel that hosts the tiles.
	PanelKey string
	// TileNamespace is the namespace of the tile layout document.
	TileNamespace string
	// FrameTexture is a format string taking the 1-based frame index.
	FrameTexture string

	SweepTop    int
	SweepBottom int
	SweepStep   int

	TileMin  int
	TileMax  int
	TileStep int
}

func DefaultConfig() Config {
	return Config{
		AnimationName: "app-js:8:19",
		TileName:      "app-js:31:30",
		PanelKey:      "betmc_animation_background_frame@betmc_common.empty_panel",
		TileNamespace: "betmc_background",
		FrameTexture:  "betmc_background/betmc_background_frame/betmc_img_%d_frame",
		SweepTop:      1500,
		SweepBottom:   -1400,
		SweepStep:     100,
		TileMin:       -1500,
		TileMax:       1400,
		TileStep:      100,
	}
}

func (c Config) validate() error {
	switch {
	case c.SweepStep <= 0 || c.TileStep <= 0:
		return errors.New("layout steps must be positive")
	case c.SweepTop < c.SweepBottom:
		return errors.New("sweep top must not be below sweep bottom")
	case c.TileMax < c.TileMin:
		return errors.New("tile max must not be below tile min")
	case c.AnimationName == "" || c.TileName == "" || c.PanelKey == "":
		return errors.New("layout names must be set")
	case !strings.Contains(c.FrameTexture, "%d"):
		return errors.New("frame texture must contain %d")
	}
	return nil
}

// Generator builds layouts. NewID supplies the cosmetic tile control prefixes.
type Generator struct {
	cfg   Config
	NewID func() string
}

func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	return &Generator{cfg: cfg, NewID: randomID}, nil
}

func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Result holds the generated documents of one session.
type Result struct {
	Timeline *Timeline
	Tiles    *TileLayout
	UIDefs   Object
}

// Generate is a pure function of its inputs apart from the tile ids.
func (g *Generator) Generate(frameCount int, frameRate float64, namespace string) (*Result, error) {
	if frameCount <= 0 {
		return nil, errors.New("layout needs at least one frame")
	}
	if frameRate <= 0 {
		return nil, errors.New("frame rate must be positive")
	}
	if namespace == "" {
		return nil, errors.New("namespace is required")
	}

	timeline := g.timeline(frameCount, frameRate, namespace)
	tiles := g.tiles(frameCount, timeline.Ref(0))
	return &Result{
		Timeline: timeline,
		Tiles:    tiles,
		UIDefs: Object{
			{Key: "ui_defs", Value: []string{"betmc_ui/betmc_common/" + namespace + ".json"}},
		},
	}, nil
}

// Generate uses DefaultConfig.
func Generate(frameCount int, frameRate float64, namespace string) (*Result, error) {
	g, err := NewGenerator(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return g.Generate(frameCount, frameRate, namespace)
}

// sweep produces n distinct offsets by moving a window down in SweepStep
// increments, lowering the outer bound after each full pass.
func (g *Generator) sweep(n int) []Offset {
	c := g.cfg
	out := make([]Offset, 0, n)
	for outer := c.SweepTop; len(out) < n; outer -= c.SweepStep {
		for y := c.SweepTop; y >= c.SweepBottom && len(out) < n; y -= c.SweepStep {
			out = append(out, Offset{X: y, Y: outer})
		}
	}
	return out
}
