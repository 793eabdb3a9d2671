// Package catalog maps pokédex ids to model paths.
package catalog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultModelPath is shown for ids that are not numbers.
const DefaultModelPath = "/pokemon/131/a131.dae"

var builtin = map[int]string{
	1:   "/pokemon/1/pm0001_00_00.dae",
	4:   "/pokemon/4/hitokage.dae",
	5:   "/pokemon/5/lizardo.dae",
	6:   "/pokemon/6/lizardon.dae",
	7:   "/pokemon/7/zenigame.dae",
	8:   "/pokemon/8/kameil.dae",
	9:   "/pokemon/9/kamex.dae",
	10:  "/pokemon/10/caterpie.dae",
	11:  "/pokemon/11/transel.dae",
	12:  "/pokemon/12/Male/butterfree.dae",
	13:  "/pokemon/13/beedle.dae",
	14:  "/pokemon/14/cocoon.dae",
	131: "/pokemon/131/a131.dae",
	143: "/pokemon/143/snorlax.obj",
}

type Catalog struct {
	Default string         `yaml:"default"`
	Models  map[int]string `yaml:"models"`
}

// New returns the built-in catalog.
func New() *Catalog {
	c := &Catalog{Default: DefaultModelPath, Models: map[int]string{}}
	for id, p := range builtin {
		c.Models[id] = p
	}
	return c
}

// LoadFile returns the built-in catalog with the overrides in a YAML file applied.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c := New()
	if err := c.LoadOverrides(f); err != nil {
		return nil, errors.Wrapf(err, "catalog: %s", path)
	}
	return c, nil
}

// LoadOverrides merges YAML of the form
//
//	default: /pokemon/25/pikachu.glb
//	models:
//	  25: /pokemon/25/pikachu.glb
func (c *Catalog) LoadOverrides(r io.Reader) error {
	var o Catalog
	if err := yaml.NewDecoder(r).Decode(&o); err != nil && err != io.EOF {
		return err
	}
	if o.Default != "" {
		c.Default = o.Default
	}
	for id, p := range o.Models {
		c.Models[id] = p
	}
	return nil
}

// ModelPath returns the model of id. Unknown ids use the standard
// pm<id>_00_00.dae naming.
func (c *Catalog) ModelPath(id int) string {
	if p, ok := c.Models[id]; ok {
		return p
	}
	return fmt.Sprintf("/pokemon/%d/pm%04d_00_00.dae", id, id)
}

// ParseID parses a decimal id. An empty string is 0.
func ParseID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	id, err := strconv.Atoi(s)
	return id, err == nil
}

// Resolve returns the model path for an id taken from a URL.
func (c *Catalog) Resolve(s string) string {
	id, ok := ParseID(s)
	if !ok {
		return c.Default
	}
	return c.ModelPath(id)
}

// IDs returns the ids with an explicit model, ascending.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.Models))
	for id := range c.Models {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
