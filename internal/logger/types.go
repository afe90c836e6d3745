package logger

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config configures New.
type Config struct {
	// Level is debug, info, warn or error. Unknown values mean info.
	Level  string `env:"LOG_LEVEL" yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development writes every entry instead of sampling repeats.
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
	// Service, when set, is attached to every entry.
	Service string `yaml:"-"`
}

// SetDefaults fills unset fields. Output goes to stderr so CLI results on
// stdout stay machine-readable.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stderr"}
	}
}
