package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
)

func (c *Bundlefs) resolve(path string) error {
	res, err := c.registry.Resolve(path)
	if err != nil {
		return err
	}
	props, err := json.MarshalIndent(res.Properties(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode properties")
	}
	md := res.Metadata()
	fmt.Fprintf(c.out, "Path:       %s\n", res.Path())
	fmt.Fprintf(c.out, "Entry:      %s\n", res.ArchivePath())
	fmt.Fprintf(c.out, "Kind:       %s\n", res.Kind())
	fmt.Fprintf(c.out, "Type:       %s\n", res.ResourceType())
	fmt.Fprintf(c.out, "Archive:    %s\n", md.ArchiveID)
	fmt.Fprintf(c.out, "Generation: %d\n", md.Generation)
	if !res.Kind().IsFolder() {
		fmt.Fprintf(c.out, "Size:       %d\n", md.Size)
	}
	fmt.Fprintf(c.out, "Properties: %s\n", props)
	return nil
}

func (c *Bundlefs) list(path string) error {
	res, err := c.registry.Resolve(path)
	if err != nil {
		return err
	}
	children, err := res.Children()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, child := range children {
		fmt.Fprintf(w, "%s\t%s\t%s\n", child.Name(), child.Kind(), child.ResourceType())
	}
	return w.Flush()
}

func (c *Bundlefs) cat(path string) error {
	res, err := c.registry.Resolve(path)
	if err != nil {
		return err
	}
	rc, err := res.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(c.out, rc)
	return err
}

func (c *Bundlefs) providers() error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOT\tMAPPING\tGENERATION\tHITS\tMISSES\tARCHIVE")
	for _, info := range c.registry.Providers() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", info.Root, strings.Join(info.Mappings, ","), info.Generation, info.Hits, info.Misses, info.ArchiveID)
	}
	return w.Flush()
}
