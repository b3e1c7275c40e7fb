package models

// BuildParameter is a single name/value pair passed to a build as an environment variable
type BuildParameter struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// BuildParameters is an ordered list of build parameters
type BuildParameters []BuildParameter

// Get returns the value of the first parameter with the given name
func (pp BuildParameters) Get(name string) (string, bool) {
	for _, p := range pp {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// SourceConfig describes where a build sources its deployment assets from
type SourceConfig struct {
	UseEntityAssets bool `json:"useEntityAssets"`
}
