package camera

const (
	PresetVGA   = "vga"
	Preset720p  = "720p"
	Preset1080p = "1080p"
)

// presets lists capture sizes by name. VGA is the robot camera's native
// subscription size; larger frames make detection slower but keep small
// faces above the upscale threshold for longer.
var presets = []struct {
	name          string
	width, height int
}{
	{PresetVGA, 640, 480},
	{Preset720p, 1280, 720},
	{Preset1080p, 1920, 1080},
}

// PresetNames returns the known preset names, smallest first.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// GetPreset returns DefaultConfig resized to the named preset, or nil.
func GetPreset(name string) *Config {
	for _, p := range presets {
		if p.name == name {
			cfg := DefaultConfig()
			cfg.Width, cfg.Height = p.width, p.height
			return &cfg
		}
	}
	return nil
}
