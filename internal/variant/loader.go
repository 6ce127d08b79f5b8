package variant

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses a variant YAML file from disk.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("variant: open %q: %w", path, err)
	}
	defer f.Close()

	vf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("variant: parse %q: %w", path, err)
	}
	return vf, nil
}

// LoadFromReader parses variant YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadFromReader(r io.Reader) (*File, error) {
	var vf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&vf); err != nil {
		return nil, fmt.Errorf("variant: decode yaml: %w", err)
	}
	return &vf, nil
}

// LoadAll loads and validates every file in paths concurrently. The result
// preserves the order of paths. The first failure cancels the remaining
// loads and is returned.
func LoadAll(ctx context.Context, paths []string) ([]*File, error) {
	files := make([]*File, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			vf, err := LoadFile(path)
			if err != nil {
				return err
			}
			if err := Validate(vf); err != nil {
				return fmt.Errorf("variant: validate %q: %w", path, err)
			}
			files[i] = vf
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
