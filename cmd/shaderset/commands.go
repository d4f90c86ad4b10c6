package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderset"
	"github.com/gogpu/shaderset/backend/native"
	"github.com/gogpu/shaderset/reflection"
	"github.com/gogpu/shaderset/shaderpack"
)

func reflectFlags(flags *pflag.FlagSet) {
	flags.StringP("format", "f", "json", "output format: json or yaml")
}

func runReflect(flags *pflag.FlagSet, args []string, stdout io.Writer) error {
	path, err := oneArg(args, "manifest")
	if err != nil {
		return err
	}
	format, _ := flags.GetString("format")

	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	entries, err := m.Entries()
	if err != nil {
		return err
	}
	b, _, err := shaderpack.Builder(entries)
	if err != nil {
		return err
	}
	layout, err := b.Reflect(reflection.WithInstanceAttributes(m.Instance...))
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(layout)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(layout); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func packFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", "", "output pack file (required)")
	flags.StringP("compression", "c", "zstd", "payload compression: zstd, lz4 or none")
}

func runPack(flags *pflag.FlagSet, args []string, stdout io.Writer) error {
	path, err := oneArg(args, "manifest")
	if err != nil {
		return err
	}
	output, _ := flags.GetString("output")
	if output == "" {
		return fmt.Errorf("--output is required")
	}
	compressionName, _ := flags.GetString("compression")
	compression, err := shaderpack.ParseCompression(compressionName)
	if err != nil {
		return err
	}

	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	entries, err := m.Entries()
	if err != nil {
		return err
	}
	data, err := shaderpack.Encode(entries, shaderpack.WithCompression(compression))
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "packed %d stages into %s (%d bytes)\n", len(entries), output, len(data))
	return nil
}

func unpackFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", ".", "output directory")
}

func runUnpack(flags *pflag.FlagSet, args []string, stdout io.Writer) error {
	path, err := oneArg(args, "pack")
	if err != nil {
		return err
	}
	dir, _ := flags.GetString("output")

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entries, err := shaderpack.Decode(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		code, err := e.Shader.Bytecode()
		if err != nil {
			return err
		}
		name, err := unpackName(e.Shader.Stage(), e.Shader.EntryPoint())
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), code.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%d words\n", name, code.Len())
	}
	return nil
}

// unpackName returns the file name a shader is unpacked to. Entry names come
// from the pack, so the result must stay inside the output directory.
func unpackName(stage shaderset.Stage, entry string) (string, error) {
	name := fmt.Sprintf("%s.%s.spv", stage, entry)
	if strings.ContainsAny(entry, `/\`) || !filepath.IsLocal(name) {
		return "", fmt.Errorf("unpack: entry point %q is not a valid file name", entry)
	}
	return name, nil
}

// loadEntries reads a pack or a manifest, telling them apart by content.
func loadEntries(path string) ([]shaderpack.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("SHPK")) {
		return shaderpack.Decode(data)
	}
	m, err := loadManifest(path)
	if err != nil {
		return nil, err
	}
	return m.Entries()
}

func runValidate(_ *pflag.FlagSet, args []string, stdout io.Writer) error {
	path, err := oneArg(args, "manifest or pack")
	if err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}
	b, spec, err := shaderpack.Builder(entries)
	if err != nil {
		return err
	}
	set, err := b.Build(spec)
	if err != nil {
		return err
	}

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create noop instance: %w", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return native.ErrNoHALDevice
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open noop device: %w", err)
	}
	defer openDev.Device.Destroy()

	dev := native.NewDevice(openDev.Device)
	if err := set.Load(dev, shaderset.WithLabel(filepath.Base(path))); err != nil {
		set.Dispose(dev)
		return err
	}

	var stages []string
	if set.Has(shaderset.StageVertex) {
		raw, err := set.Raw()
		if err != nil {
			set.Dispose(dev)
			return err
		}
		if _, _, err := dev.RenderStates(raw, nil, nil); err != nil {
			set.Dispose(dev)
			return err
		}
	}
	if set.Has(shaderset.StageCompute) {
		ep, err := set.Compute()
		if err == nil {
			_, err = dev.ComputeState(ep)
		}
		if err != nil {
			set.Dispose(dev)
			return err
		}
	}
	for _, st := range set.Stages() {
		stages = append(stages, st.String())
	}

	set.Dispose(dev)
	if leaked := dev.Close(); leaked != 0 {
		return fmt.Errorf("%d shader modules leaked", leaked)
	}
	fmt.Fprintf(stdout, "ok: %s\n", strings.Join(stages, ", "))
	return nil
}
