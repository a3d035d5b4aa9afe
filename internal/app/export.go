package app

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/crazy-max/bundlefs/pkg/resource"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func (c *Bundlefs) export(path string, dist string) error {
	if _, err := os.Stat(dist); err == nil && c.cli.Export.RmDist {
		if err := os.RemoveAll(dist); err != nil {
			return errors.Wrapf(err, "failed to remove dist folder %q", dist)
		}
	}
	if err := os.MkdirAll(dist, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create dist folder %q", dist)
	}

	res, err := c.registry.Resolve(path)
	if err != nil {
		return err
	}

	logger := log.With().Str("src", path).Logger()
	logger.Info().Msg("Exporting resource tree")
	return exportResource(c.ctx, logger, res, filepath.Join(dist, res.Name()), c.cli.Export.Props)
}

func exportResource(ctx context.Context, logger zerolog.Logger, res *resource.Resource, dest string, props bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if props {
		if err := writeProperties(dest+".props.json", res); err != nil {
			return err
		}
	}

	switch res.Kind() {
	case resource.KindFolder, resource.KindSynthetic:
		logger.Trace().Msgf("Exporting %s", res.Path())
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		children, err := res.Children()
		if err != nil {
			return errors.Wrapf(err, "cannot list children of %s", res.Path())
		}
		for _, child := range children {
			if err := exportResource(ctx, logger, child, filepath.Join(dest, child.Name()), props); err != nil {
				return err
			}
		}
		return nil
	default:
		rc, err := res.Open()
		if errors.Is(err, resource.ErrNotFile) {
			// defined by its sidecar only
			return nil
		} else if err != nil {
			return err
		}
		defer rc.Close()
		logger.Debug().Msgf("Exporting %s", res.Path())
		return writeFile(ctx, dest, rc)
	}
}

func writeFile(ctx context.Context, path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, readerContext(ctx, r))
	return err
}

func writeProperties(path string, res *resource.Resource) error {
	dt, err := json.MarshalIndent(res.Properties(), "", "  ")
	if err != nil {
		return errors.Wrapf(err, "cannot encode properties of %s", res.Path())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, dt, 0o644)
}

type reader struct {
	ctx context.Context
	r   io.Reader
}

func readerContext(ctx context.Context, r io.Reader) io.Reader {
	return reader{ctx, r}
}

func (r reader) Read(p []byte) (int, error) {
	err := r.ctx.Err()
	if err != nil {
		return 0, err
	}
	n, err := r.r.Read(p)
	if err != nil {
		return n, err
	}
	return n, r.ctx.Err()
}
