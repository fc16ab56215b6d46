package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"shaderstore/internal/config"
	"shaderstore/internal/naming"
	"shaderstore/internal/registry"

	"go.uber.org/zap"
)

// FileRef is one discovered input file.
type FileRef struct {
	Path     string
	Basename string
}

// Set is a group of inputs sharing naming rules and an output directory.
type Set struct {
	Name          string
	Kind          naming.Kind
	InputDir      string
	HeaderDir     string // where per-file headers are written
	IncludePrefix string // directory used in registry #include directives
	GuardPrefix   string
	NameAliases   []naming.Alias // basename rewrites scoped to this set

	// Store is nil for sets that only produce headers.
	Store          *registry.Store
	StoreHeaderDir string
	StoreSourceDir string

	Files []FileRef // ascending by Basename
}

// FileIndex is the immutable snapshot of every input of one run. It is built
// once by Scan and passed to every later stage; nothing re-lists directories.
type FileIndex struct {
	Sets []Set
}

// Count returns the number of files in the index.
func (x *FileIndex) Count() int {
	n := 0
	for _, s := range x.Sets {
		n += len(s.Files)
	}
	return n
}

// Set returns the set with the given name.
func (x *FileIndex) Set(name string) (Set, bool) {
	for _, s := range x.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return Set{}, false
}

// Names of the two registry-backed sets.
const (
	SetShaders  = "shaders"
	SetIncludes = "includes"
)

// Scan enumerates every configured input directory and returns the sorted
// snapshot.
func Scan(cfg *config.Config, logger *zap.Logger) (*FileIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !isDir(cfg.Input.ShaderDir) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInputDirectory, cfg.Input.ShaderDir)
	}
	ext := cfg.Input.Extension
	idx := &FileIndex{}

	shaderFiles, err := listShaderFiles(cfg.Input.ShaderDir, ext)
	if err != nil {
		return nil, err
	}
	shaderStore := storeFromConfig(cfg.Stores.Shaders, cfg)
	idx.Sets = append(idx.Sets, Set{
		Name:           SetShaders,
		Kind:           naming.KindShader,
		InputDir:       cfg.Input.ShaderDir,
		HeaderDir:      cfg.OutputPath(cfg.Output.ShaderHeaderDir),
		IncludePrefix:  cfg.Output.ShaderIncludePrefix,
		GuardPrefix:    cfg.Emit.ShaderGuardPrefix,
		Store:          &shaderStore,
		StoreHeaderDir: cfg.OutputPath(cfg.Output.StoreHeaderDir),
		StoreSourceDir: cfg.OutputPath(cfg.Output.StoreSourceDir),
		Files:          shaderFiles,
	})
	logger.Info("Found standard shaders", zap.Int("count", len(shaderFiles)), zap.String("dir", cfg.Input.ShaderDir))

	if includesDir := cfg.IncludesDir(); includesDir != "" {
		var includeFiles []FileRef
		if isDir(includesDir) {
			includeFiles, err = listShaderFiles(includesDir, ext)
			if err != nil {
				return nil, err
			}
		} else {
			logger.Warn("Includes directory not found, include store will be empty", zap.String("dir", includesDir))
		}
		includeStore := storeFromConfig(cfg.Stores.Includes, cfg)
		idx.Sets = append(idx.Sets, Set{
			Name:           SetIncludes,
			Kind:           naming.KindInclude,
			InputDir:       includesDir,
			HeaderDir:      cfg.OutputPath(cfg.Output.IncludeHeaderDir),
			IncludePrefix:  cfg.Output.IncludeIncludePrefix,
			GuardPrefix:    cfg.Emit.IncludeGuardPrefix,
			Store:          &includeStore,
			StoreHeaderDir: cfg.OutputPath(cfg.Output.StoreHeaderDir),
			StoreSourceDir: cfg.OutputPath(cfg.Output.StoreSourceDir),
			Files:          includeFiles,
		})
		logger.Info("Found shader includes", zap.Int("count", len(includeFiles)), zap.String("dir", includesDir))
	}

	aliases := namingAliases(cfg.Naming.DirectoryAliases)
	for _, root := range cfg.Input.ExtensionRoots {
		sets, err := scanExtensionRoot(cfg, root, aliases)
		if err != nil {
			return nil, err
		}
		if sets == nil {
			logger.Info("Extension root not found, skipping", zap.String("root", root.Name), zap.String("dir", cfg.ExtensionDir(root)))
			continue
		}
		n := 0
		for _, s := range sets {
			n += len(s.Files)
		}
		logger.Info("Found extension shaders", zap.String("root", root.Name), zap.Int("modules", len(sets)), zap.Int("count", n))
		idx.Sets = append(idx.Sets, sets...)
	}

	return idx, nil
}

// scanExtensionRoot returns one set per module directory. A missing optional
// root yields nil.
func scanExtensionRoot(cfg *config.Config, root config.ExtensionRoot, aliases []naming.Alias) ([]Set, error) {
	dir := cfg.ExtensionDir(root)
	if !isDir(dir) {
		if root.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: extension root %s: %s", ErrInvalidInputDirectory, root.Name, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extension root %s: %w", dir, err)
	}

	sets := []Set{}
	for _, e := range entries {
		if !e.IsDir() || slices.Contains(root.Skip, e.Name()) {
			continue
		}
		module := e.Name()
		moduleDir := filepath.Join(dir, module)
		files, err := listShaderFiles(moduleDir, cfg.Input.Extension)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}
		outModule := naming.ApplyDirectoryAlias(aliases, module)
		guardPrefix := strings.ToUpper(outModule)
		if root.GuardPrefix != "" {
			guardPrefix = root.GuardPrefix + "_" + guardPrefix
		}
		sets = append(sets, Set{
			Name:        root.Name + "/" + module,
			Kind:        naming.KindShader,
			InputDir:    moduleDir,
			HeaderDir:   filepath.Join(cfg.OutputPath(root.OutputDir), outModule),
			GuardPrefix: guardPrefix,
			NameAliases: naming.ScopeNameAliases(namingAliases(root.NameAliases), outModule),
			Files:       files,
		})
	}
	slices.SortFunc(sets, func(a, b Set) int { return strings.Compare(a.Name, b.Name) })
	return sets, nil
}

// listShaderFiles returns the files of dir ending in ext, sorted by name.
func listShaderFiles(dir, ext string) ([]FileRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	files := []FileRef{}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileRef{Path: path, Basename: name})
	}
	slices.SortFunc(files, func(a, b FileRef) int { return strings.Compare(a.Basename, b.Basename) })
	return files, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func storeFromConfig(s config.StoreConfig, cfg *config.Config) registry.Store {
	return registry.Store{
		ClassName:     s.ClassName,
		FileBase:      s.FileBase,
		GuardPrefix:   s.GuardPrefix,
		Namespace:     cfg.Emit.Namespace,
		ExportMacro:   s.ExportMacro,
		GlobalInclude: s.GlobalInclude,
		MapType:       s.MapType,
		MemberName:    s.MemberName,
		IncludeDir:    cfg.Output.StoreIncludePrefix,
	}
}

func namingAliases(in []config.Alias) []naming.Alias {
	out := make([]naming.Alias, 0, len(in))
	for _, a := range in {
		out = append(out, naming.Alias{From: a.From, To: a.To})
	}
	return out
}

// NamingOptions converts the naming section of cfg.
func NamingOptions(cfg *config.Config) naming.Options {
	return naming.Options{
		Separators:      cfg.Naming.Separators,
		ShaderSuffix:    cfg.Naming.ShaderSuffix,
		HeaderExtension: cfg.Naming.HeaderExtension,
		SuffixAliases:   namingAliases(cfg.Naming.SuffixAliases),
	}
}

// WatchDirs lists every directory whose contents feed the index.
func WatchDirs(idx *FileIndex) []string {
	var dirs []string
	for _, s := range idx.Sets {
		if s.InputDir != "" && isDir(s.InputDir) && !slices.Contains(dirs, s.InputDir) {
			dirs = append(dirs, s.InputDir)
		}
	}
	return dirs
}
