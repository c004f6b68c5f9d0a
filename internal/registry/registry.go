// Package registry holds the static table of analysis steps and the
// artifact roles they produce. The artifact manager, the step runner and the
// dashboard renderer all read from this one table.
package registry

// Artifact kinds.
const (
	KindImage  = "image"
	KindHTML   = "html"
	KindTable  = "table"
	KindReport = "report"
)

// Dashboard sections, in render order.
const (
	SectionMovies = "movies"
	SectionMaps   = "maps"
	SectionOther  = "other"
	SectionTables = "tables"
)

// Pipeline enable flags.
const (
	FlagMaps        = "run_maps"
	FlagMovies      = "run_movie_visualization"
	Flag3D          = "run_3d_analysis"
	FlagConsumption = "run_consumption_share_analysis"
	FlagText        = "run_text_analysis"
)

// Final report keys.
const (
	KeyReportMD  = "report_md"
	KeyDashboard = "dashboard_html"
)

// Step is one independent analysis unit.
type Step struct {
	Name      string
	Title     string
	Flag      string
	Artifacts []string // artifact role keys, in order
	// Credentials lists environment variables the step's collaborator needs.
	Credentials []string
}

// ArtifactRole describes one file the pipeline can produce.
type ArtifactRole struct {
	Key      string
	Default  string
	Kind     string
	Producer string // empty for final report files
	Title    string
	Section  string
}

// Final reports whether the role is kept after post-run cleanup.
func (r ArtifactRole) Final() bool { return r.Kind == KindReport }

var steps = []Step{
	{
		Name:        "map_stations",
		Title:       "Theaters and subway stations map",
		Flag:        FlagMaps,
		Artifacts:   []string{"map_theaters_and_stations"},
		Credentials: []string{"KAKAO_REST_API_KEY"},
	},
	{
		Name:        "map_spot",
		Title:       "Theaters and shopping malls map",
		Flag:        FlagMaps,
		Artifacts:   []string{"map_spot"},
		Credentials: []string{"KAKAO_REST_API_KEY"},
	},
	{
		Name:      "movie_visualization",
		Title:     "Movie indicators by year",
		Flag:      FlagMovies,
		Artifacts: []string{"movie_releases_plot", "movie_audience_plot", "movie_sales_plot"},
	},
	{
		Name:      "trend_3d",
		Title:     "3D trend analysis",
		Flag:      Flag3D,
		Artifacts: []string{"plot_3d_trendlines"},
	},
	{
		Name:      "consumption_share",
		Title:     "Consumption and share correlation",
		Flag:      FlagConsumption,
		Artifacts: []string{"consumption_share_correlation"},
	},
	{
		Name:        "text_keywords",
		Title:       "Text keyword analysis",
		Flag:        FlagText,
		Artifacts:   []string{"text_keywords_csv", "text_wordcloud"},
		Credentials: []string{"NAVER_CLIENT_ID", "NAVER_CLIENT_SECRET"},
	},
}

// roles is ordered the way artifacts are enumerated for cleanup.
var roles = []ArtifactRole{
	{Key: "map_theaters_and_stations", Default: "map_theaters_stations.html", Kind: KindHTML, Producer: "map_stations", Title: "Theaters + subway stations", Section: SectionMaps},
	{Key: "map_spot", Default: "map_spot_theaters_malls.html", Kind: KindHTML, Producer: "map_spot", Title: "Theaters + shopping malls", Section: SectionMaps},
	{Key: "movie_releases_plot", Default: "movie_releases_by_year.png", Kind: KindImage, Producer: "movie_visualization", Title: "Releases by year", Section: SectionMovies},
	{Key: "movie_audience_plot", Default: "movie_audience_by_year.png", Kind: KindImage, Producer: "movie_visualization", Title: "Audience by year", Section: SectionMovies},
	{Key: "movie_sales_plot", Default: "movie_sales_by_year.png", Kind: KindImage, Producer: "movie_visualization", Title: "Sales by year", Section: SectionMovies},
	{Key: "plot_3d_trendlines", Default: "theater_3d_trendlines.png", Kind: KindImage, Producer: "trend_3d", Title: "3D relationship analysis", Section: SectionOther},
	{Key: "consumption_share_correlation", Default: "consumption_share_correlation.png", Kind: KindImage, Producer: "consumption_share", Title: "Consumption vs. share correlation", Section: SectionOther},
	{Key: "text_keywords_csv", Default: "naver_keywords.csv", Kind: KindTable, Producer: "text_keywords", Title: "Keyword table", Section: SectionTables},
	{Key: "text_wordcloud", Default: "naver_wordcloud.png", Kind: KindImage, Producer: "text_keywords", Title: "Keyword word cloud", Section: SectionOther},
	{Key: KeyReportMD, Default: "report.md", Kind: KindReport, Title: "Markdown report"},
	{Key: KeyDashboard, Default: "dashboard.html", Kind: KindReport, Title: "Dashboard"},
}

// Steps returns the registered steps in execution order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Roles returns every artifact role in enumeration order.
func Roles() []ArtifactRole {
	out := make([]ArtifactRole, len(roles))
	copy(out, roles)
	return out
}

// Role looks up an artifact role by key.
func Role(key string) (ArtifactRole, bool) {
	for _, r := range roles {
		if r.Key == key {
			return r, true
		}
	}
	return ArtifactRole{}, false
}

// StepByName looks up a step.
func StepByName(name string) (Step, bool) {
	for _, s := range steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Flags returns the distinct enable flags in first-use order.
func Flags() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range steps {
		if !seen[s.Flag] {
			seen[s.Flag] = true
			out = append(out, s.Flag)
		}
	}
	return out
}

// KnownFlag reports whether flag gates at least one step.
func KnownFlag(flag string) bool {
	for _, s := range steps {
		if s.Flag == flag {
			return true
		}
	}
	return false
}
