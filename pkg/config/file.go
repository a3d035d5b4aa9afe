package config

import (
	"os"

	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the archives configuration file
type File struct {
	Archives []Archive `yaml:"archives"`
}

// Archive is an archive to expose with its mappings
type Archive struct {
	ID       string    `yaml:"id"`
	Path     string    `yaml:"path"`
	Header   string    `yaml:"header,omitempty"`
	Mappings []Mapping `yaml:"mappings,omitempty"`
}

// Mapping is a single path mapping
type Mapping struct {
	Root    string `yaml:"root"`
	Path    string `yaml:"path,omitempty"`
	Overlay string `yaml:"overlay,omitempty"`
}

// Load reads the configuration file at filename
func Load(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read configuration %s", filename)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "cannot decode configuration %s", filename)
	}
	for i, a := range f.Archives {
		if a.Path == "" {
			return nil, errors.Errorf("archive #%d has no path", i)
		}
		if a.ID == "" {
			f.Archives[i].ID = a.Path
		}
	}
	return &f, nil
}

// PathMappings returns the mappings of the archive, header entries first
func (a Archive) PathMappings() ([]mapping.PathMapping, error) {
	res, err := mapping.ParseHeader(a.Header)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid header of archive %s", a.ID)
	}
	for _, m := range a.Mappings {
		pm, err := mapping.New(m.Root, m.Path, m.Overlay)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mapping of archive %s", a.ID)
		}
		res = append(res, pm)
	}
	return res, nil
}
