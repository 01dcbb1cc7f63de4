package reveal

// Theme 揭曉畫面的主題符號.
type Theme struct {
	Name    string
	Pattern string
	Symbols []string
}

var themes = map[string]Theme{
	"romantic": {
		Name:    "romantic",
		Pattern: "🌹",
		Symbols: []string{"🌹", "💕", "❤️", "💖", "💝", "💗"},
	},
	"friendship": {
		Name:    "friendship",
		Pattern: "🌟",
		Symbols: []string{"⭐", "🌟", "✨", "💫", "🎉", "🎊"},
	},
	"motivation": {
		Name:    "motivation",
		Pattern: "⚡",
		Symbols: []string{"⚡", "💪", "🔥", "🚀", "💯", "🏆"},
	},
	"general": {
		Name:    "general",
		Pattern: "🎁",
		Symbols: []string{"🎁", "🎈", "🎉", "🎊", "✨", "💝"},
	},
}

// ThemeFor 回傳主題；未知主題回退為 general.
func ThemeFor(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["general"]
}
