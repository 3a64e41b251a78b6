package registry

// RequiredKeys are the top-level keys every schema artifact must declare, in
// the order they are checked.
var RequiredKeys = []string{
	"title",
	"description",
	"author",
	"contact",
	"version",
	"created",
	"updated",
	"homepage",
}

// Metadata holds the descriptive fields read from a schema artifact.
type Metadata struct {
	Title       string `json:"title" yaml:"title" bson:"title"`
	Description string `json:"description" yaml:"description" bson:"description"`
	Author      string `json:"author" yaml:"author" bson:"author"`
	Contact     string `json:"contact" yaml:"contact" bson:"contact"`
	Version     string `json:"version" yaml:"version" bson:"version"`
	Created     string `json:"created" yaml:"created" bson:"created"`
	Updated     string `json:"updated" yaml:"updated" bson:"updated"`
	Homepage    string `json:"homepage" yaml:"homepage" bson:"homepage"`
}

// ExtractedRecord is the outcome of a successful validation of one release.
type ExtractedRecord struct {
	Source       PackageSource
	Version      string // normalized version of the release
	Metadata     Metadata
	HasChangelog bool
	Artifacts    []string // artifact names written for this release
}

// Slug returns the owning package's slug.
func (r ExtractedRecord) Slug() string { return r.Source.Slug() }
