package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dptsep/internal/config"
	"dptsep/internal/dpt"
)

// ModelProvider resolves a model id to a constructed network and runs fn
// under the model's lock, serialising forward passes per model.
type ModelProvider interface {
	WithModel(ctx context.Context, modelID string, fn func(net *dpt.Network) error) error
}

// ProviderConfig configures the cached provider.
type ProviderConfig struct {
	// DefaultConfigPath is used when a request does not name a model.
	DefaultConfigPath string
	// ModelsPath is the directory searched when a request names a model.
	ModelsPath string
}

// CachedModelProvider builds networks from configuration files on first use
// and caches them by resolved path.
type CachedModelProvider struct {
	cfg   ProviderConfig
	mu    sync.Mutex
	cache map[string]*modelEntry
}

type modelEntry struct {
	net *dpt.Network
	mu  sync.Mutex
}

const envModelsDir = "DPTSEP_MODELS_DIR"

// NewCachedModelProvider creates an empty provider cache.
func NewCachedModelProvider(cfg ProviderConfig) *CachedModelProvider {
	return &CachedModelProvider{
		cfg:   cfg,
		cache: make(map[string]*modelEntry),
	}
}

// WithModel implements ModelProvider.
func (p *CachedModelProvider) WithModel(ctx context.Context, modelID string, fn func(net *dpt.Network) error) error {
	path, err := p.resolveConfigPath(modelID)
	if err != nil {
		return err
	}
	entry, err := p.getOrLoad(path)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(entry.net)
}

func (p *CachedModelProvider) getOrLoad(path string) (*modelEntry, error) {
	p.mu.Lock()
	entry, ok := p.cache[path]
	p.mu.Unlock()
	if ok {
		return entry, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	net, err := dpt.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("build model from %s: %w", path, err)
	}
	newEntry := &modelEntry{net: net}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.cache[path]; ok {
		return existing, nil
	}
	p.cache[path] = newEntry
	return newEntry, nil
}

func (p *CachedModelProvider) resolveConfigPath(modelID string) (string, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID != "" {
		if looksLikePath(modelID) {
			return filepath.Clean(modelID), nil
		}
		dir := p.modelsDir()
		if dir == "" {
			return "", fmt.Errorf("models-path is required to resolve model %q", modelID)
		}
		if resolved := resolveInDir(dir, modelID); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("model %q not found in %s", modelID, dir)
	}

	if p.cfg.DefaultConfigPath != "" {
		return filepath.Clean(p.cfg.DefaultConfigPath), nil
	}
	dir := p.modelsDir()
	if dir == "" {
		return "", fmt.Errorf("model is required")
	}
	models, err := DiscoverModels(dir)
	if err != nil {
		return "", err
	}
	switch len(models) {
	case 1:
		return models[0], nil
	case 0:
		return "", fmt.Errorf("no model configs found in %s", dir)
	default:
		return "", fmt.Errorf("multiple models found in %s; specify model", dir)
	}
}

func (p *CachedModelProvider) modelsDir() string {
	if strings.TrimSpace(p.cfg.ModelsPath) != "" {
		return strings.TrimSpace(p.cfg.ModelsPath)
	}
	return strings.TrimSpace(os.Getenv(envModelsDir))
}

func looksLikePath(v string) bool {
	if strings.Contains(v, string(filepath.Separator)) {
		return true
	}
	return hasConfigExt(v)
}

func hasConfigExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func resolveInDir(dir, name string) string {
	if dir == "" {
		return ""
	}
	if hasConfigExt(name) {
		cand := filepath.Join(dir, name)
		if fileExists(cand) {
			return cand
		}
		return ""
	}
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		cand := filepath.Join(dir, name+ext)
		if fileExists(cand) {
			return cand
		}
	}
	return ""
}

// DiscoverModels lists the model configuration files in dir.
func DiscoverModels(dir string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("models path is not a directory: %s", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !hasConfigExt(e.Name()) {
			continue
		}
		models = append(models, filepath.Join(dir, e.Name()))
	}
	return models, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
