package menu

// Icon is a renderable icon definition
type Icon struct {
	Name  string // name used by the menu API, e.g. "UserOutlined"
	Class string // CSS class in the dashboard stylesheet
	Glyph string // text fallback shown when the stylesheet is missing
}

// IconSet maps icon names from menu data to icon definitions
type IconSet map[string]Icon

// DefaultIcons is the set of icons the dashboard stylesheet ships with.
// Menu entries are managed through the menu CRUD screen, which offers
// exactly these names.
var DefaultIcons = IconSet{
	"AppstoreOutlined":      {Name: "AppstoreOutlined", Class: "icon-appstore", Glyph: "▦"},
	"CheckSquareOutlined":   {Name: "CheckSquareOutlined", Class: "icon-check-square", Glyph: "☑"},
	"DashboardOutlined":     {Name: "DashboardOutlined", Class: "icon-dashboard", Glyph: "◔"},
	"FileTextOutlined":      {Name: "FileTextOutlined", Class: "icon-file-text", Glyph: "▤"},
	"HomeOutlined":          {Name: "HomeOutlined", Class: "icon-home", Glyph: "⌂"},
	"IdcardOutlined":        {Name: "IdcardOutlined", Class: "icon-idcard", Glyph: "▭"},
	"LogoutOutlined":        {Name: "LogoutOutlined", Class: "icon-logout", Glyph: "⇥"},
	"MenuOutlined":          {Name: "MenuOutlined", Class: "icon-menu", Glyph: "☰"},
	"ProfileOutlined":       {Name: "ProfileOutlined", Class: "icon-profile", Glyph: "▣"},
	"SafetyOutlined":        {Name: "SafetyOutlined", Class: "icon-safety", Glyph: "⛨"},
	"ScheduleOutlined":      {Name: "ScheduleOutlined", Class: "icon-schedule", Glyph: "▥"},
	"SettingOutlined":       {Name: "SettingOutlined", Class: "icon-setting", Glyph: "⚙"},
	"SolutionOutlined":      {Name: "SolutionOutlined", Class: "icon-solution", Glyph: "✎"},
	"TeamOutlined":          {Name: "TeamOutlined", Class: "icon-team", Glyph: "☷"},
	"UnorderedListOutlined": {Name: "UnorderedListOutlined", Class: "icon-list", Glyph: "≡"},
	"UserOutlined":          {Name: "UserOutlined", Class: "icon-user", Glyph: "☺"},
}

// Resolve looks up an icon by name. Unknown or empty names resolve to no icon.
func (s IconSet) Resolve(name string) (Icon, bool) {
	if name == "" {
		return Icon{}, false
	}
	icon, ok := s[name]
	return icon, ok
}

// UnknownIcons returns icon names referenced by the tree that the set
// cannot resolve, in tree order without duplicates
func (s IconSet) UnknownIcons(tree Tree) []string {
	seen := make(map[string]bool)
	var unknown []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Icon != "" && !seen[n.Icon] {
				seen[n.Icon] = true
				if _, ok := s[n.Icon]; !ok {
					unknown = append(unknown, n.Icon)
				}
			}
			walk(n.Children)
		}
	}
	walk(tree)
	return unknown
}
