package feedsource

type DataSource struct {
	Identifier string
	Provider   Provider
	Datasets   []DataSet
}

type DataSet struct {
	Identifier    string
	DataSourceRef string `json:"-"`

	Provider Provider

	Source               string
	SourceAuthentication SourceAuthentication `json:"-" yaml:"sourceauthentication"`

	// Suburbs is an optional boundary file that goes with the feed
	Suburbs string
}

type SourceAuthentication struct {
	Query  map[string]string
	Header map[string]string
	Basic  struct {
		Username string
		Password string
	}
}

type Provider struct {
	Name    string
	Website string
}
