package feed

// SourceConfig describes one feed source, loaded from a YAML file in the
// sources directory. The file name (minus extension) is the source name.
type SourceConfig struct {
	Name     string `yaml:"-"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Settings struct {
		Enabled  bool `yaml:"enabled"`
		Timeout  int  `yaml:"timeout"`
		MaxItems int  `yaml:"max_items"`
	} `yaml:"settings"`
}
