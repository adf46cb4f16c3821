package mapview

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultTileURL is the OpenStreetMap standard tile layer.
const DefaultTileURL = "http://a.tile.openstreetmap.org/$scale/$x/$y.png"

// TileURLFunc returns the address of tile (scale, x, y).
type TileURLFunc func(scale, x, y int) string

// TemplateURL returns a TileURLFunc substituting $scale, $x and $y, or the
// {z}, {x} and {y} placeholders, in tmpl.
func TemplateURL(tmpl string) TileURLFunc {
	return func(scale, x, y int) string {
		z, xs, ys := strconv.Itoa(scale), strconv.Itoa(x), strconv.Itoa(y)
		r := strings.NewReplacer(
			"$scale", z, "$x", xs, "$y", ys,
			"{z}", z, "{x}", xs, "{y}", ys,
		)
		return r.Replace(tmpl)
	}
}

// Preset is a named tile source.
type Preset struct {
	Name        string
	URL         string
	Attribution string
	MinZoom     int
	MaxZoom     int
	// Headers are sent with every request for this source.
	Headers map[string]string
}

// TileURL returns the preset's address resolver.
func (p Preset) TileURL() TileURLFunc {
	return TemplateURL(p.URL)
}

// ClampZoom limits z to the preset's zoom range.
func (p Preset) ClampZoom(z int) int {
	return max(p.MinZoom, min(z, p.MaxZoom))
}

// Presets lists well-known tile sources by key.
var Presets = map[string]Preset{
	"osm": {
		Name:        "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 19,
	},
	"opentopomap": {
		Name:        "OpenTopoMap",
		URL:         "https://tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenTopoMap (CC-BY-SA), © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 17,
	},
	"esri-satellite": {
		Name:        "ESRI World Imagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "© Esri, Maxar, Earthstar Geographics",
		MinZoom:     0, MaxZoom: 20,
	},
}

// PresetNames returns the preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
