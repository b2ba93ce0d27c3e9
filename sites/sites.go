package sites

// Profile holds every selector the scraper relies on for one site layout.
// Each list is an ordered set of strategies: the first selector that yields a
// usable value wins and later entries are fallbacks.
type Profile struct {
	// Listing page
	ComicTitle   []string `yaml:"comic_title"`   // Comic title element
	Author       []string `yaml:"author"`        // Author element
	EpisodeLink  string   `yaml:"episode_link"`  // Anchor of each episode entry
	EpisodeTitle []string `yaml:"episode_title"` // Title element inside an episode anchor
	Pagination   []string `yaml:"pagination"`    // Page buttons carrying PageAttr
	ActivePage   []string `yaml:"active_page"`   // Currently selected page button
	PageAttr     string   `yaml:"page_attr"`     // Attribute holding the page token

	// Episode page
	ImageWrap       []string `yaml:"image_wrap"`       // Lazy image containers
	ImageAttributes []string `yaml:"image_attributes"` // Candidate URL attributes on the inner <img>
	WrapAttributes  []string `yaml:"wrap_attributes"`  // Candidate URL attributes on the wrapper itself
}

// Default returns the profile for the listing/episode layout this tool was
// built for.
func Default() Profile {
	return Profile{
		ComicTitle:   []string{"div.dt-left-tt h1", "h1.detail-title", "meta[property='og:title']"},
		Author:       []string{"div.detail-title1 a.m-episode-link", "a[href*='/author/']"},
		EpisodeLink:  "li a[href*='/detail/']",
		EpisodeTitle: []string{"h1.m-episode-list-item-title", "div.dt-le-c h1[title]", "h1[title]"},
		Pagination: []string{
			".mPagination button[data-page]",
			".m-pagination button[data-page]",
			".mf-Pagination-wrap button[data-page]",
		},
		ActivePage: []string{
			".mPagination button.active",
			".m-pagination button.active",
			".mf-Pagination-wrap button.active",
		},
		PageAttr:        "data-page",
		ImageWrap:       []string{".lazy-img-wrap"},
		ImageAttributes: []string{"data-src", "data-original", "src"},
		WrapAttributes:  []string{"data-src", "data-original"},
	}
}

// WithDefaults fills every empty field of p from Default, so a partial
// override in the config file only replaces what it names.
func (p Profile) WithDefaults() Profile {
	def := Default()

	if len(p.ComicTitle) == 0 {
		p.ComicTitle = def.ComicTitle
	}
	if len(p.Author) == 0 {
		p.Author = def.Author
	}
	if p.EpisodeLink == "" {
		p.EpisodeLink = def.EpisodeLink
	}
	if len(p.EpisodeTitle) == 0 {
		p.EpisodeTitle = def.EpisodeTitle
	}
	if len(p.Pagination) == 0 {
		p.Pagination = def.Pagination
	}
	if len(p.ActivePage) == 0 {
		p.ActivePage = def.ActivePage
	}
	if p.PageAttr == "" {
		p.PageAttr = def.PageAttr
	}
	if len(p.ImageWrap) == 0 {
		p.ImageWrap = def.ImageWrap
	}
	if len(p.ImageAttributes) == 0 {
		p.ImageAttributes = def.ImageAttributes
	}
	if len(p.WrapAttributes) == 0 {
		p.WrapAttributes = def.WrapAttributes
	}

	return p
}
