package app

import (
	"context"
	"io"
	"os"

	"github.com/crazy-max/bundlefs/pkg/archive"
	"github.com/crazy-max/bundlefs/pkg/config"
	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/crazy-max/bundlefs/pkg/provider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Bundlefs represents an active bundlefs object
type Bundlefs struct {
	ctx      context.Context
	meta     config.Meta
	cli      config.Cli
	out      io.Writer
	registry *provider.Registry
	manager  *provider.Manager
}

// New creates new bundlefs instance and installs the configured archives
func New(meta config.Meta, cli config.Cli) (*Bundlefs, error) {
	archives, err := configuredArchives(cli)
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return nil, errors.New("no archive configured, use --archive or --config")
	}

	registry := provider.NewRegistry()
	c := &Bundlefs{
		ctx:      context.Background(),
		meta:     meta,
		cli:      cli,
		out:      os.Stdout,
		registry: registry,
		manager:  provider.NewManager(registry),
	}

	sources := make([]*archive.File, len(archives))
	// sources outlive the group, they keep the app context
	eg := new(errgroup.Group)
	for i, a := range archives {
		eg.Go(func() error {
			src, err := archive.Open(c.ctx, a.Path)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, a := range archives {
		mappings, err := a.PathMappings()
		if err != nil {
			c.manager.Close()
			return nil, err
		}
		if err := c.manager.Install(a.ID, sources[i], mappings); err != nil {
			c.manager.Close()
			return nil, errors.Wrapf(err, "cannot install archive %s", a.ID)
		}
	}

	return c, nil
}

func configuredArchives(cli config.Cli) ([]config.Archive, error) {
	var archives []config.Archive
	if cli.Config != "" {
		f, err := config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
		archives = append(archives, f.Archives...)
	}
	if cli.Archive != "" {
		a := config.Archive{
			ID:   cli.Archive,
			Path: cli.Archive,
		}
		for _, header := range cli.Mappings {
			if _, err := mapping.ParseHeader(header); err != nil {
				return nil, err
			}
			if a.Header != "" {
				a.Header += ","
			}
			a.Header += header
		}
		archives = append(archives, a)
	} else if len(cli.Mappings) > 0 {
		return nil, errors.New("--mapping requires --archive")
	}
	return archives, nil
}

// Start runs the selected command
func (c *Bundlefs) Start(command string) error {
	switch command {
	case "resolve <path>":
		return c.resolve(c.cli.Resolve.Path)
	case "ls <path>":
		return c.list(c.cli.Ls.Path)
	case "cat <path>":
		return c.cat(c.cli.Cat.Path)
	case "export <path> <dist>":
		return c.export(c.cli.Export.Path, c.cli.Export.Dist)
	case "providers":
		return c.providers()
	default:
		return errors.Errorf("unknown command %q", command)
	}
}

// Close closes bundlefs
func (c *Bundlefs) Close() {
	if c == nil || c.manager == nil {
		return
	}
	c.manager.Close()
	log.Debug().Msg("Archives uninstalled")
}
