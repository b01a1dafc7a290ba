package site

type Profile struct {
	Name      string    // Derived from filename (without .yml extension)
	SearchURL string    `yaml:"search_url"`
	PageSize  int       `yaml:"page_size"`
	Sections  []string  `yaml:"sections"`
	Selectors Selectors `yaml:"selectors"`
}

// Selectors are CSS selectors, or XPath expressions when prefixed with
// "xpath:". Item selectors are relative to one results_list element.
type Selectors struct {
	TotalIndicator string `yaml:"total_indicator"`
	NoResults      string `yaml:"no_results"`
	NoResultsText  string `yaml:"no_results_text"` // optional text the no_results element must contain
	ResultsList    string `yaml:"results_list"`
	Title          string `yaml:"title"`
	Link           string `yaml:"link"`
	SectionLabel   string `yaml:"section_label"`
	Image          string `yaml:"image"`
	Description    string `yaml:"description"`
}
