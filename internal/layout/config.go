package layout

const (
	configNamespace    = "betmc_config"
	staticPatchTexture = "betmc_background/betmc_background_static_patch"
)

// LowDetailConfig is the subpack 0 config pointing at the static patch.
func LowDetailConfig() Object {
	return Object{
		{Key: "namespace", Value: configNamespace},
		{Key: "betmc_main_config", Value: Object{
			{Key: "$betmc_scr_backround_path", Value: staticPatchTexture},
		}},
	}
}

// HighDetailConfig is the subpack 1080 config enabling the animation.
func HighDetailConfig(frameRate float64) Object {
	return Object{
		{Key: "namespace", Value: configNamespace},
		{Key: "betmc_main_config", Value: Object{
			{Key: "$use_background_static_customs", Value: false},
			{Key: "$use_setting_background_static_customs", Value: false},
			{Key: "$use_background_animation", Value: true},
			{Key: "$betmc_frame_duration", Value: 1 / frameRate},
		}},
	}
}
