package templates

import "time"

// Catalog looks up translated strings.
type Catalog interface {
	T(locale, key, fallback string) string
	Format(locale, key, fallback string, vars map[string]string) string
}

// Page holds what every page needs: the locale, the language switcher and
// the catalog.
type Page struct {
	Locale    string
	Title     string
	Languages []Language
	Catalog   Catalog
}

// DocumentTitle is the text of the title element: the page title, if any,
// followed by the site name.
func (p Page) DocumentTitle() string {
	if p.Title == "" {
		return p.Tr("site.name")
	}
	return p.Title + " · " + p.Tr("site.name")
}

// Tr translates key for the page locale. The key itself is the fallback.
func (p Page) Tr(key string) string {
	if p.Catalog == nil {
		return key
	}
	return p.Catalog.T(p.Locale, key, key)
}

// Trf is Tr with {name} placeholders filled from alternating name, value
// arguments.
func (p Page) Trf(key string, kv ...string) string {
	vars := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		vars[kv[i]] = kv[i+1]
	}
	if p.Catalog == nil {
		return key
	}
	return p.Catalog.Format(p.Locale, key, key, vars)
}

// Language is one entry of the language switcher.
type Language struct {
	Code    string
	Name    string
	Href    string
	Current bool
}

// Link is a labelled URL.
type Link struct {
	Href  string
	Label string
}

// Alert is a user-facing error.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// Format is the display data of one format.
type Format struct {
	ID          string
	Label       string
	Description string
	Extension   string
	Color       string
}

// ConversionGroup lists the conversions from one source format.
type ConversionGroup struct {
	Source Format
	Links  []Link
}

// ToolCard links to a tool page.
type ToolCard struct {
	Href        string
	Name        string
	Description string
}

// RecentItem is one recent-files row.
type RecentItem struct {
	FileName  string
	Operation string
	Href      string
	Size      int64
	CreatedAt time.Time
}

// IndexPage is the data of the landing page.
type IndexPage struct {
	Page
	Groups []ConversionGroup
	Tools  []ToolCard
	Recent []RecentItem
}

// ConvertPage is the data of a conversion page.
type ConvertPage struct {
	Page
	Action      string
	Source      Format
	Target      Format
	SwapHref    string
	Placeholder string
	Input       string
	FileName    string
	Output      string
	Download    string
	Detected    string
	Warnings    []string
	Error       *Alert
	Related     []Link

	Indent    int
	TableName string
	Delimiter string
	RootName  string
}

// Option is a select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// ToolPage is the data of a tool page.
type ToolPage struct {
	Page
	Action      string
	Slug        string
	Name        string
	Description string
	Accept      []string
	Error       *Alert

	DarkMode bool
	Opacity  float64
	Export   bool
	Targets  []Option
}

// ErrorPage is the data of a full-page error.
type ErrorPage struct {
	Page
	Status int
	Alert  Alert
	Home   string
}
