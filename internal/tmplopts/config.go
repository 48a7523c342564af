package tmplopts

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName and ConfigFileNameAlt are the two spellings LoadFromDir
// searches for.
const (
	ConfigFileName    = "gotmpl.yaml"
	ConfigFileNameAlt = "gotmpl.yml"
	envPrefix         = "GOTMPL_"
)

// OptionsConfig is the on-disk shape of an Options project file: every
// field a project typically wants to pin ahead of time, leaving runtime-only
// concerns (Loaders, Resolvers, Libraries, LoadedTags/Filters) to be wired
// by the embedding program after LoadFromDir returns.
type OptionsConfig struct {
	Autoescape       *bool             `koanf:"autoescape" mapstructure:"autoescape"`
	Directories      []string          `koanf:"directories" mapstructure:"directories"`
	Formats          map[string]string `koanf:"formats" mapstructure:"formats"`
	Debug            bool              `koanf:"debug" mapstructure:"debug"`
	NonbreakingSpace string            `koanf:"nonbreaking_space" mapstructure:"nonbreaking_space"`

	TimeFormat       string `koanf:"time_format" mapstructure:"time_format"`
	EchoMessage      string `koanf:"echo_message" mapstructure:"echo_message"`
	ErrorMessage     string `koanf:"error_message" mapstructure:"error_message"`
	MaxRegexCaptures int    `koanf:"max_regex_captures" mapstructure:"max_regex_captures"`
	ThrowOnErrors    bool   `koanf:"throw_on_errors" mapstructure:"throw_on_errors"`

	CaseSensitive   *bool `koanf:"case_sensitive" mapstructure:"case_sensitive"`
	ShortcutSyntax  *bool `koanf:"shortcut_syntax" mapstructure:"shortcut_syntax"`
	LoopContextVars *bool `koanf:"loop_context_vars" mapstructure:"loop_context_vars"`
}

// ApplyDefaults fills every field OptionsConfig leaves unset (nil pointers,
// zero strings/numbers) from Default(), so a partially-specified project
// file still yields a fully usable Options.
func (c *OptionsConfig) ApplyDefaults() {
	d := Default()
	if c.Autoescape == nil {
		v := d.Autoescape
		c.Autoescape = &v
	}
	if c.Formats == nil {
		c.Formats = d.Formats
	}
	if c.NonbreakingSpace == "" {
		c.NonbreakingSpace = d.NonbreakingSpace
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.EchoMessage == "" {
		c.EchoMessage = d.EchoMessage
	}
	if c.ErrorMessage == "" {
		c.ErrorMessage = d.ErrorMessage
	}
	if c.MaxRegexCaptures == 0 {
		c.MaxRegexCaptures = d.MaxRegexCaptures
	}
	if c.CaseSensitive == nil {
		v := d.CaseSensitive
		c.CaseSensitive = &v
	}
	if c.ShortcutSyntax == nil {
		v := d.ShortcutSyntax
		c.ShortcutSyntax = &v
	}
	if c.LoopContextVars == nil {
		v := d.LoopContextVars
		c.LoopContextVars = &v
	}
}

// ToOptions builds a fresh Options from the loaded config. Loaders,
// Resolvers, Libraries, and LoadedTags/LoadedFilters are runtime wiring the
// embedding program supplies separately; a project file only pins the
// scalar/slice knobs.
func (c *OptionsConfig) ToOptions() *Options {
	return &Options{
		Autoescape:       *c.Autoescape,
		DefaultValue:     Default().DefaultValue,
		Formats:          c.Formats,
		Debug:            c.Debug,
		Directories:      c.Directories,
		Libraries:        map[string]*Library{},
		LoadedTags:       map[string]any{},
		LoadedFilters:    map[string]any{},
		NonbreakingSpace: c.NonbreakingSpace,
		TimeFormat:       c.TimeFormat,
		EchoMessage:      c.EchoMessage,
		ErrorMessage:     c.ErrorMessage,
		MaxRegexCaptures: c.MaxRegexCaptures,
		ThrowOnErrors:    c.ThrowOnErrors,
		CaseSensitive:    *c.CaseSensitive,
		ShortcutSyntax:   *c.ShortcutSyntax,
		LoopContextVars:  *c.LoopContextVars,
	}
}

// LoadFromDir looks for gotmpl.yaml/gotmpl.yml in dir, layering (lowest to
// highest precedence) built-in defaults, the project file, and GOTMPL_
// -prefixed environment variables via koanf providers. Returns a usable
// Options (with ApplyDefaults already run) even when no project file is
// present -- a missing file is not an error condition.
func LoadFromDir(dir string) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"max_regex_captures": Default().MaxRegexCaptures,
	}, "."), nil); err != nil {
		return nil, err
	}

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, err
	}

	var cfg OptionsConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg.ToOptions(), nil
}

func findConfigFile(dir string) string {
	if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
		return p
	}
	if p := filepath.Join(dir, ConfigFileNameAlt); fileExists(p) {
		return p
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
