package mapping

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	attrPath    = "path"
	attrOverlay = "propsJSON"
)

// ParseHeader parses a comma separated list of mapping entries as found in
// archive metadata headers:
//
//	/libs/foo;path:=/SLING-INF/libs/foo;propsJSON:=json, /apps/bar
func ParseHeader(header string) ([]PathMapping, error) {
	var mappings []PathMapping
	for _, entry := range strings.Split(header, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		m, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

func parseEntry(entry string) (PathMapping, error) {
	parts := strings.Split(entry, ";")
	root := strings.TrimSpace(parts[0])
	var archiveRoot, overlayExt string
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		key, value, ok := strings.Cut(attr, ":=")
		if !ok {
			key, value, ok = strings.Cut(attr, "=")
		}
		if !ok {
			return PathMapping{}, &ConfigError{Root: root, Err: errors.Errorf("malformed attribute %q", attr)}
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case attrPath:
			archiveRoot = value
		case attrOverlay:
			overlayExt = value
		default:
			return PathMapping{}, &ConfigError{Root: root, Err: errors.Errorf("unknown attribute %q", key)}
		}
	}
	return New(root, archiveRoot, overlayExt)
}
