package layout

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNamespace = "abc123"

func TestGenerateRejectsEmptyInput(t *testing.T) {
	_, err := Generate(0, 30, testNamespace)
	assert.Error(t, err)

	_, err = Generate(10, 0, testNamespace)
	assert.Error(t, err)

	_, err = Generate(10, 30, "")
	assert.Error(t, err)
}

func TestTimelineIsDeterministic(t *testing.T) {
	a, err := Generate(90, 30, testNamespace)
	require.NoError(t, err)
	b, err := Generate(90, 30, testNamespace)
	require.NoError(t, err)

	assert.Equal(t, a.Timeline, b.Timeline)

	ja, err := Encode(a.Timeline.Document())
	require.NoError(t, err)
	jb, err := Encode(b.Timeline.Document())
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestTimelineIsClosedCycle(t *testing.T) {
	for _, n := range []int{1, 2, 29, 30, 31, 90, 1000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			res, err := Generate(n, 24, testNamespace)
			require.NoError(t, err)

			steps := res.Timeline.Steps
			require.Len(t, steps, n)

			seen := make(map[int]bool, n)
			cur := 0
			for i := 0; i < n; i++ {
				assert.False(t, seen[cur], "step %d visited twice", cur)
				seen[cur] = true
				cur = steps[cur].Next
			}
			assert.Equal(t, 0, cur)
			assert.Len(t, seen, n)
		})
	}
}

func TestTimelineKeysAndDurations(t *testing.T) {
	res, err := Generate(3, 30, testNamespace)
	require.NoError(t, err)

	steps := res.Timeline.Steps
	assert.Equal(t, "abc123.app-js:8:19", steps[0].Key)
	assert.Equal(t, "abc123.app-js:8:19-1", steps[1].Key)
	assert.Equal(t, "abc123.app-js:8:19-2", steps[2].Key)
	for _, s := range steps {
		assert.InDelta(t, 1.0/30, s.Duration, 1e-12)
	}
	assert.Equal(t, "@abc123.app-js:8:19", res.Timeline.Ref(steps[2].Next))
}

func TestSweepProducesDistinctOffsets(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	require.NoError(t, err)

	offsets := g.sweep(200)
	require.Len(t, offsets, 200)

	seen := make(map[Offset]bool)
	for _, o := range offsets {
		assert.False(t, seen[o], "duplicate offset %v", o)
		seen[o] = true
	}
	// one full pass covers 1500..-1400 inclusive
	assert.Equal(t, Offset{X: 1500, Y: 1500}, offsets[0])
	assert.Equal(t, Offset{X: -1400, Y: 1500}, offsets[29])
	assert.Equal(t, Offset{X: 1500, Y: 1400}, offsets[30])
}

func TestTilesReferenceEveryFrameOnce(t *testing.T) {
	res, err := Generate(90, 30, testNamespace)
	require.NoError(t, err)

	tiles := res.Tiles.Tiles
	require.Len(t, tiles, 90)

	textures := make(map[string]bool)
	for i, tile := range tiles {
		want := fmt.Sprintf("betmc_background/betmc_background_frame/betmc_img_%d_frame", i+1)
		assert.Equal(t, want, tile.Texture)
		assert.Equal(t, i+1, tile.Frame)
		textures[tile.Texture] = true
	}
	assert.Len(t, textures, 90)
}

func TestTilesWrapRowsAndColumns(t *testing.T) {
	res, err := Generate(901, 30, testNamespace)
	require.NoError(t, err)

	tiles := res.Tiles.Tiles
	assert.Equal(t, Offset{X: -1500, Y: -1500}, tiles[0].Offset)
	assert.Equal(t, Offset{X: 1400, Y: -1500}, tiles[29].Offset)
	assert.Equal(t, Offset{X: -1500, Y: -1400}, tiles[30].Offset)
	assert.Equal(t, Offset{X: 1400, Y: 1400}, tiles[899].Offset)
	// the grid holds 30x30 cells, the 901st tile starts over
	assert.Equal(t, Offset{X: -1500, Y: -1500}, tiles[900].Offset)

	positions := make(map[Offset]bool)
	for _, tile := range tiles[:900] {
		positions[tile.Offset] = true
	}
	assert.Len(t, positions, 900)
}

func TestTileKeys(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	require.NoError(t, err)
	n := 0
	g.NewID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}

	res, err := g.Generate(2, 30, testNamespace)
	require.NoError(t, err)

	assert.Equal(t, "app-js:31:30", res.Tiles.Tiles[0].Key)
	assert.Equal(t, "app-js:31:30[1]", res.Tiles.Tiles[1].Key)
	assert.Equal(t, "id1@betmc_background.app-js:31:30", res.Tiles.controlKey(res.Tiles.Tiles[0]))
	assert.Equal(t, "@abc123.app-js:8:19", res.Tiles.AnimRef)
}

func TestRandomIDsDifferBetweenRuns(t *testing.T) {
	a, err := Generate(5, 30, testNamespace)
	require.NoError(t, err)
	b, err := Generate(5, 30, testNamespace)
	require.NoError(t, err)

	assert.NotEqual(t, a.Tiles.Tiles[0].ControlID, b.Tiles.Tiles[0].ControlID)
	assert.Len(t, a.Tiles.Tiles[0].ControlID, 32)
}

func TestTimelineDocumentShape(t *testing.T) {
	res, err := Generate(2, 20, testNamespace)
	require.NoError(t, err)

	data, err := Encode(res.Timeline.Document())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 3)
	assert.JSONEq(t, `"abc123"`, string(doc["namespace"]))
	assert.JSONEq(t, `{
		"from": ["1500%", "1500%"],
		"to": ["1500%", "1500%"],
		"next": "@abc123.app-js:8:19-1",
		"anim_type": "offset",
		"duration": 0.05
	}`, string(doc["abc123.app-js:8:19"]))
	assert.JSONEq(t, `{
		"from": ["1400%", "1500%"],
		"to": ["1400%", "1500%"],
		"next": "@abc123.app-js:8:19",
		"anim_type": "offset",
		"duration": 0.05
	}`, string(doc["abc123.app-js:8:19-1"]))
}

func TestTileDocumentShape(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	require.NoError(t, err)
	g.NewID = func() string { return "ff" }

	res, err := g.Generate(1, 30, testNamespace)
	require.NoError(t, err)

	data, err := Encode(res.Tiles.Document())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"namespace": "betmc_background",
		"betmc_animation_background_frame@betmc_common.empty_panel": {
			"anims": ["@abc123.app-js:8:19"],
			"controls": [{"ff@betmc_background.app-js:31:30": {}}],
			"size": ["100%", "100%"],
			"offset": "@abc123.app-js:8:19",
			"anchor_from": "center",
			"anchor_to": "center"
		},
		"app-js:31:30": {
			"type": "image",
			"texture": "betmc_background/betmc_background_frame/betmc_img_1_frame",
			"fill": true,
			"size": ["100%", "100%"],
			"offset": ["-1500%", "-1500%"]
		}
	}`, string(data))
}

func TestObjectKeepsMemberOrder(t *testing.T) {
	data, err := json.Marshal(Object{{"b", 1}, {"a", 2}, {"c", Object{}}})
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":2,"c":{}}`, string(data))
}

func TestUIDefsAndConfigs(t *testing.T) {
	res, err := Generate(1, 25, testNamespace)
	require.NoError(t, err)

	data, err := json.Marshal(res.UIDefs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ui_defs":["betmc_ui/betmc_common/abc123.json"]}`, string(data))

	data, err = json.Marshal(HighDetailConfig(25))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"namespace": "betmc_config",
		"betmc_main_config": {
			"$use_background_static_customs": false,
			"$use_setting_background_static_customs": false,
			"$use_background_animation": true,
			"$betmc_frame_duration": 0.04
		}
	}`, string(data))
}

func TestNewGeneratorValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweepStep = 0
	_, err := NewGenerator(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.FrameTexture = "no-index"
	_, err = NewGenerator(cfg)
	assert.Error(t, err)
}
