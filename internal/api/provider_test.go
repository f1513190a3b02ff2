package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dptsep/internal/dpt"
)

const testModelYAML = `n_bases: 12
kernel_size: 8
sep_bottleneck_channels: 16
sep_hidden_channels: 32
sep_chunk_size: 6
sep_hop_size: 3
sep_num_blocks: 1
`

func writeModelConfig(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(testModelYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProviderDefaultConfigPath(t *testing.T) {
	path := writeModelConfig(t, t.TempDir(), "model.yaml")
	p := NewCachedModelProvider(ProviderConfig{DefaultConfigPath: path})

	var got *dpt.Network
	err := p.WithModel(context.Background(), "", func(net *dpt.Network) error {
		got = net
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Config().Bases != 12 {
		t.Fatal("default model not built from the config path")
	}
}

func TestProviderCachesByPath(t *testing.T) {
	path := writeModelConfig(t, t.TempDir(), "model.yaml")
	p := NewCachedModelProvider(ProviderConfig{DefaultConfigPath: path})

	var first, second *dpt.Network
	if err := p.WithModel(context.Background(), "", func(net *dpt.Network) error { first = net; return nil }); err != nil {
		t.Fatal(err)
	}
	if err := p.WithModel(context.Background(), "", func(net *dpt.Network) error { second = net; return nil }); err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("second request rebuilt an already cached model")
	}
}

func TestProviderResolvesNameInModelsDir(t *testing.T) {
	dir := t.TempDir()
	writeModelConfig(t, dir, "small.yaml")
	p := NewCachedModelProvider(ProviderConfig{ModelsPath: dir})

	err := p.WithModel(context.Background(), "small", func(net *dpt.Network) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
}

func TestProviderUnknownModel(t *testing.T) {
	p := NewCachedModelProvider(ProviderConfig{ModelsPath: t.TempDir()})
	err := p.WithModel(context.Background(), "absent", func(net *dpt.Network) error { return nil })
	if err == nil {
		t.Fatal("expected an error for an unknown model name")
	}
}

func TestProviderRequiresModelWhenAmbiguous(t *testing.T) {
	dir := t.TempDir()
	writeModelConfig(t, dir, "a.yaml")
	writeModelConfig(t, dir, "b.yaml")
	p := NewCachedModelProvider(ProviderConfig{ModelsPath: dir})

	err := p.WithModel(context.Background(), "", func(net *dpt.Network) error { return nil })
	if err == nil {
		t.Fatal("expected an error when several models are discoverable")
	}
}

func TestProviderSingleDiscoveredModel(t *testing.T) {
	dir := t.TempDir()
	writeModelConfig(t, dir, "only.yaml")
	p := NewCachedModelProvider(ProviderConfig{ModelsPath: dir})

	err := p.WithModel(context.Background(), "", func(net *dpt.Network) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
}

func TestProviderCancelledContext(t *testing.T) {
	path := writeModelConfig(t, t.TempDir(), "model.yaml")
	p := NewCachedModelProvider(ProviderConfig{DefaultConfigPath: path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.WithModel(ctx, "", func(net *dpt.Network) error {
		t.Fatal("fn ran under a cancelled context")
		return nil
	})
	if err == nil {
		t.Fatal("expected a context error")
	}
}

func TestDiscoverModelsSkipsNonConfigs(t *testing.T) {
	dir := t.TempDir()
	writeModelConfig(t, dir, "model.yaml")
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	models, err := DiscoverModels(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 {
		t.Fatalf("discovered %v", models)
	}
}
