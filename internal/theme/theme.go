// Package theme holds the color theme catalog and the persisted theme
// selection.
package theme

// DefaultKey is used when no valid selection is stored.
const DefaultKey = "light"

// Colors is the palette of a theme.
type Colors struct {
	Primary       string `json:"primary"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	Text          string `json:"text"`
	TextSecondary string `json:"textSecondary"`
	Border        string `json:"border"`
	Accent        string `json:"accent"`
	Success       string `json:"success"`
	Error         string `json:"error"`
}

// Theme is a named palette.
type Theme struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Colors Colors `json:"colors"`
}

// Catalog lists every available theme in display order.
var Catalog = []Theme{
	{
		Key:  "light",
		Name: "Light",
		Colors: Colors{
			Primary: "#2196F3", Background: "#FFFFFF", Surface: "#F5F5F5",
			Text: "#000000", TextSecondary: "#666666", Border: "#E0E0E0",
			Accent: "#FF9800", Success: "#4CAF50", Error: "#F44336",
		},
	},
	{
		Key:  "dark",
		Name: "Dark",
		Colors: Colors{
			Primary: "#1976D2", Background: "#121212", Surface: "#1E1E1E",
			Text: "#FFFFFF", TextSecondary: "#BBBBBB", Border: "#333333",
			Accent: "#FF9800", Success: "#4CAF50", Error: "#F44336",
		},
	},
	{
		Key:  "ocean",
		Name: "Ocean",
		Colors: Colors{
			Primary: "#00BCD4", Background: "#E0F2F1", Surface: "#FFFFFF",
			Text: "#004D40", TextSecondary: "#00695C", Border: "#B2DFDB",
			Accent: "#FF5722", Success: "#4CAF50", Error: "#F44336",
		},
	},
	{
		Key:  "sunset",
		Name: "Sunset",
		Colors: Colors{
			Primary: "#FF5722", Background: "#FFF3E0", Surface: "#FFFFFF",
			Text: "#BF360C", TextSecondary: "#E64A19", Border: "#FFCCBC",
			Accent: "#FF9800", Success: "#4CAF50", Error: "#F44336",
		},
	},
	{
		Key:  "forest",
		Name: "Forest",
		Colors: Colors{
			Primary: "#4CAF50", Background: "#E8F5E8", Surface: "#FFFFFF",
			Text: "#1B5E20", TextSecondary: "#2E7D32", Border: "#C8E6C9",
			Accent: "#FF9800", Success: "#4CAF50", Error: "#F44336",
		},
	},
	{
		Key:  "midnight",
		Name: "Midnight",
		Colors: Colors{
			Primary: "#9C27B0", Background: "#0D0D0D", Surface: "#1A1A1A",
			Text: "#FFFFFF", TextSecondary: "#CCCCCC", Border: "#333333",
			Accent: "#E91E63", Success: "#4CAF50", Error: "#F44336",
		},
	},
}

// Lookup returns the theme with key.
func Lookup(key string) (Theme, bool) {
	for _, t := range Catalog {
		if t.Key == key {
			return t, true
		}
	}
	return Theme{}, false
}

// IsValid reports whether key names a catalog theme.
func IsValid(key string) bool {
	_, ok := Lookup(key)
	return ok
}

// Default returns the fallback theme.
func Default() Theme {
	t, _ := Lookup(DefaultKey)
	return t
}

// Keys returns the catalog keys in display order.
func Keys() []string {
	keys := make([]string, len(Catalog))
	for i, t := range Catalog {
		keys[i] = t.Key
	}
	return keys
}
