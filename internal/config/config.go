package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all shaderstore configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Where shaders are read from
	Input InputConfig `yaml:"input"`

	// Where generated headers and stores are written
	Output OutputConfig `yaml:"output"`

	// Identifier and filename derivation
	Naming NamingConfig `yaml:"naming"`

	// Per-file header emission
	Emit EmitConfig `yaml:"emit"`

	// Aggregate registries
	Stores StoresConfig `yaml:"stores"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// TolerateMalformed skips empty or undecodable shader files with a
	// warning instead of failing the run.
	TolerateMalformed bool `yaml:"tolerate_malformed"`
}

// InputConfig describes the shader source tree.
type InputConfig struct {
	ShaderDir      string          `yaml:"shader_dir"`
	Extension      string          `yaml:"extension"`       // e.g. ".fx"
	IncludesSubdir string          `yaml:"includes_subdir"` // fragments, relative to ShaderDir
	ExtensionRoots []ExtensionRoot `yaml:"extension_roots"`
}

// ExtensionRoot is an auxiliary shader collection (materials library,
// procedural textures library). Every subdirectory of Dir is one module whose
// headers land in OutputDir/<module>.
type ExtensionRoot struct {
	Name        string   `yaml:"name"`
	Dir         string   `yaml:"dir"`        // relative paths resolve against Input.ShaderDir
	OutputDir   string   `yaml:"output_dir"` // relative paths resolve against Output.Root
	GuardPrefix string   `yaml:"guard_prefix"`
	Skip        []string `yaml:"skip"`
	Optional    bool     `yaml:"optional"` // missing Dir is not an error

	// NameAliases rewrite shader basenames, but only inside modules whose
	// output directory name contains From. Core shaders are never renamed.
	NameAliases []Alias `yaml:"name_aliases"`
}

// OutputConfig describes the generated tree, relative to Root.
type OutputConfig struct {
	Root string `yaml:"root"`

	ShaderHeaderDir  string `yaml:"shader_header_dir"`
	IncludeHeaderDir string `yaml:"include_header_dir"`
	StoreSourceDir   string `yaml:"store_source_dir"`
	StoreHeaderDir   string `yaml:"store_header_dir"`

	// Paths used in #include directives of the generated store sources.
	ShaderIncludePrefix  string `yaml:"shader_include_prefix"`
	IncludeIncludePrefix string `yaml:"include_include_prefix"`
	StoreIncludePrefix   string `yaml:"store_include_prefix"`

	WriteBOM bool `yaml:"write_bom"`
}

// Alias rewrites From into To.
type Alias struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NamingConfig configures identifier derivation.
type NamingConfig struct {
	Separators       string  `yaml:"separators"`
	ShaderSuffix     string  `yaml:"shader_suffix"`
	HeaderExtension  string  `yaml:"header_extension"`
	SuffixAliases    []Alias `yaml:"suffix_aliases"`
	DirectoryAliases []Alias `yaml:"directory_aliases"` // extension module dir -> output dir
}

// PrecisionRule wraps a precision statement in a preprocessor guard.
type PrecisionRule struct {
	Statement   string `yaml:"statement"`
	GuardSymbol string `yaml:"guard_symbol"`
}

// EmitConfig configures per-file header generation.
type EmitConfig struct {
	Namespace          string        `yaml:"namespace"`
	ShaderGuardPrefix  string        `yaml:"shader_guard_prefix"`
	IncludeGuardPrefix string        `yaml:"include_guard_prefix"`
	TabWidth           int           `yaml:"tab_width"`
	CompactIndent      bool          `yaml:"compact_indent"`
	Precision          PrecisionRule `yaml:"precision"`
}

// StoreConfig describes one generated registry class.
type StoreConfig struct {
	ClassName     string `yaml:"class_name"`
	FileBase      string `yaml:"file_base"`
	GuardPrefix   string `yaml:"guard_prefix"`
	ExportMacro   string `yaml:"export_macro"`
	GlobalInclude string `yaml:"global_include"`
	MapType       string `yaml:"map_type"`
	MemberName    string `yaml:"member_name"`
}

// StoresConfig holds both registries.
type StoresConfig struct {
	Shaders  StoreConfig `yaml:"shaders"`
	Includes StoreConfig `yaml:"includes"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration. The defaults reproduce
// the layout of the BabylonCpp source tree.
func DefaultConfig() *Config {
	return &Config{
		Name:    "shaderstore",
		Version: "1.0.0",

		Input: InputConfig{
			Extension:      ".fx",
			IncludesSubdir: "ShadersInclude",
			ExtensionRoots: []ExtensionRoot{
				{
					Name:        "materialsLibrary",
					Dir:         "../../materialsLibrary/src",
					OutputDir:   "../MaterialsLibrary/include/babylon/materialslibrary",
					GuardPrefix: "BABYLON_MATERIALS_LIBRARY",
					Skip:        []string{"legacyPBR"},
					Optional:    true,
					NameAliases: []Alias{
						{From: "triplanar", To: "triPlanar"},
						{From: "shadowonly", To: "shadowOnly"},
					},
				},
				{
					Name:        "proceduralTexturesLibrary",
					Dir:         "../../proceduralTexturesLibrary/src",
					OutputDir:   "../ProceduralTexturesLibrary/include/babylon/proceduraltextureslibrary",
					GuardPrefix: "BABYLON_PROCEDURAL_TEXTURES_LIBRARY",
					Optional:    true,
					NameAliases: []Alias{
						{From: "normalmap", To: "normalMap"},
						{From: "perlinnoise", To: "perlinNoise"},
					},
				},
			},
		},

		Output: OutputConfig{
			ShaderHeaderDir:      "include/babylon/shaders",
			IncludeHeaderDir:     "include/babylon/shaders/shadersinclude",
			StoreSourceDir:       "src/materials",
			StoreHeaderDir:       "include/babylon/materials",
			ShaderIncludePrefix:  "babylon/shaders",
			IncludeIncludePrefix: "babylon/shaders/shadersinclude",
			StoreIncludePrefix:   "babylon/materials",
			WriteBOM:             true,
		},

		Naming: NamingConfig{
			Separators:      "._",
			ShaderSuffix:    "shader",
			HeaderExtension: ".h",
			SuffixAliases: []Alias{
				{From: "FragmentShader", To: "PixelShader"},
			},
			DirectoryAliases: []Alias{
				{From: "normalMap", To: "normalmap"},
				{From: "perlinNoise", To: "perlinnoise"},
				{From: "triPlanar", To: "triplanar"},
				{From: "shadowOnly", To: "shadowonly"},
			},
		},

		Emit: EmitConfig{
			Namespace:          "BABYLON",
			ShaderGuardPrefix:  "BABYLON_SHADERS",
			IncludeGuardPrefix: "BABYLON_SHADERS_SHADERS_INCLUDE",
			TabWidth:           2,
			CompactIndent:      true,
			Precision: PrecisionRule{
				Statement:   "precision highp float;",
				GuardSymbol: "GL_ES",
			},
		},

		Stores: StoresConfig{
			Shaders: StoreConfig{
				ClassName:     "EffectShadersStore",
				FileBase:      "effect_shaders_store",
				GuardPrefix:   "BABYLON_MATERIALS",
				ExportMacro:   "BABYLON_SHARED_EXPORT",
				GlobalInclude: "babylon/babylon_global.h",
				MapType:       "unordered_map_t<string_t, const char*>",
				MemberName:    "_shaders",
			},
			Includes: StoreConfig{
				ClassName:     "EffectIncludesShadersStore",
				FileBase:      "effect_includes_shaders_store",
				GuardPrefix:   "BABYLON_MATERIALS",
				ExportMacro:   "BABYLON_SHARED_EXPORT",
				GlobalInclude: "babylon/babylon_global.h",
				MapType:       "unordered_map_t<string_t, const char*>",
				MemberName:    "_shaders",
			},
		},

		Watch: WatchConfig{
			Debounce: "300ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Only the two
// directory paths can be overridden.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("SHADERSTORE_INPUT_DIR"); dir != "" {
		c.Input.ShaderDir = dir
	}
	if dir := os.Getenv("SHADERSTORE_OUTPUT_DIR"); dir != "" {
		c.Output.Root = dir
	}
}

// GetDebounce returns the watch debounce interval as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// IncludesDir returns the absolute-or-relative path of the include fragments.
func (c *Config) IncludesDir() string {
	if c.Input.IncludesSubdir == "" {
		return ""
	}
	return filepath.Join(c.Input.ShaderDir, c.Input.IncludesSubdir)
}

// ExtensionDir resolves an extension root's input directory.
func (c *Config) ExtensionDir(root ExtensionRoot) string {
	if filepath.IsAbs(root.Dir) {
		return root.Dir
	}
	return filepath.Join(c.Input.ShaderDir, root.Dir)
}

// OutputPath resolves a path relative to the output root.
func (c *Config) OutputPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Output.Root, rel)
}

// Validate validates the configuration. It does not touch the filesystem.
func (c *Config) Validate() error {
	if c.Input.ShaderDir == "" {
		return fmt.Errorf("input shader directory not configured (use --input or SHADERSTORE_INPUT_DIR)")
	}
	if c.Output.Root == "" {
		return fmt.Errorf("output directory not configured (use --output or SHADERSTORE_OUTPUT_DIR)")
	}
	if c.Input.Extension == "" {
		return fmt.Errorf("input extension must not be empty")
	}
	if c.Naming.HeaderExtension == "" {
		return fmt.Errorf("header extension must not be empty")
	}
	if c.Emit.TabWidth < 0 {
		return fmt.Errorf("invalid tab width: %d", c.Emit.TabWidth)
	}
	for _, a := range c.Naming.SuffixAliases {
		if a.From == "" {
			return fmt.Errorf("suffix alias with empty 'from' (to=%q)", a.To)
		}
	}
	for _, a := range c.Naming.DirectoryAliases {
		if a.From == "" {
			return fmt.Errorf("directory alias with empty 'from' (to=%q)", a.To)
		}
	}
	seen := make(map[string]bool)
	for _, root := range c.Input.ExtensionRoots {
		if root.Name == "" || root.Dir == "" || root.OutputDir == "" {
			return fmt.Errorf("extension root requires name, dir and output_dir: %+v", root)
		}
		if seen[root.Name] {
			return fmt.Errorf("duplicate extension root: %s", root.Name)
		}
		seen[root.Name] = true
		for _, a := range root.NameAliases {
			if a.From == "" {
				return fmt.Errorf("extension root %s: name alias with empty 'from' (to=%q)", root.Name, a.To)
			}
		}
	}
	for _, s := range []StoreConfig{c.Stores.Shaders, c.Stores.Includes} {
		if s.ClassName == "" || s.FileBase == "" {
			return fmt.Errorf("store requires class_name and file_base: %+v", s)
		}
	}
	if c.Stores.Shaders.FileBase == c.Stores.Includes.FileBase {
		return fmt.Errorf("shader and include stores share file base %q", c.Stores.Shaders.FileBase)
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return nil
}
