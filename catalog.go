package vocrecord

// The class catalog and its TF object detection label map.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ClassCatalog is an ordered list of class names. The 1-indexed position of a name is its class
// ID; ID 0 is reserved for the background class. A catalog is immutable once created.
type ClassCatalog struct {
	names []string
	ids   map[string]int64
}

// NewClassCatalog creates a catalog from names, in order. Names must be non-empty and unique.
func NewClassCatalog(names []string) (*ClassCatalog, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("the class catalog is empty")
	}

	c := &ClassCatalog{
		names: make([]string, len(names)),
		ids:   make(map[string]int64, len(names)),
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty class name at position %d", i+1)
		}
		if id, found := c.ids[name]; found {
			return nil, fmt.Errorf("duplicate class name %q at positions %d and %d", name, id, i+1)
		}
		c.names[i] = name
		c.ids[name] = int64(i + 1)
	}

	return c, nil
}

// ID returns the class ID for name and whether name is part of the catalog.
func (c *ClassCatalog) ID(name string) (int64, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Names returns a copy of the class names in ID order.
func (c *ClassCatalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len is the number of classes.
func (c *ClassCatalog) Len() int {
	return len(c.names)
}

var labelMapEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// WriteLabelMap writes the catalog to w as a StringIntLabelMap in protobuf text format.
func (c *ClassCatalog) WriteLabelMap(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, name := range c.names {
		_, err := fmt.Fprintf(bw, "item {\n  id: %d\n  name: \"%s\"\n}\n", i+1,
			labelMapEscaper.Replace(name))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveLabelMap writes the label map to the file at path.
func (c *ClassCatalog) SaveLabelMap(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	if err := c.WriteLabelMap(file); err != nil {
		return fmt.Errorf("failed to write the label map %q: %w", path, err)
	}
	return nil
}
