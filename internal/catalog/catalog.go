// Package catalog holds the read-only set of workout templates loaded at
// startup.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// previewSize is how many exercise names a Summary lists.
const previewSize = 3

// Catalog maps template names to their prescriptions. Names keep the order
// of the source file. A Catalog is never modified after Parse.
type Catalog struct {
	names     []string
	templates map[string][]models.Prescription
	rejected  error
}

// Summary is the template picker entry for one template.
type Summary struct {
	Name          string   `json:"name"`
	ExerciseCount int      `json:"exercise_count"`
	Preview       []string `json:"preview"`
	More          int      `json:"more"`
}

// Load reads a template file (YAML, or JSON in the {"Name": [...]} layout) and
// logs any template that had to be dropped.
func Load(path string, log *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing template file: %w", err)
	}
	for _, rerr := range multierr.Errors(c.Rejected()) {
		log.Warn("template rejected", "path", path, "error", rerr)
	}
	return c, nil
}

// Parse builds a catalog from a YAML document whose top level maps template
// names to exercise lists. A malformed template is dropped and recorded in
// Rejected; only a document that is not such a mapping fails the whole parse.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{templates: make(map[string][]models.Prescription)}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return c, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must map template names to exercises", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		name := key.Value

		if _, dup := c.templates[name]; dup {
			c.rejected = multierr.Append(c.rejected,
				fmt.Errorf("template %q (line %d): duplicate name: %w", name, key.Line, models.ErrInvalidTemplate))
			continue
		}

		var prescriptions []models.Prescription
		if err := value.Decode(&prescriptions); err != nil {
			c.rejected = multierr.Append(c.rejected,
				fmt.Errorf("template %q (line %d): %v: %w", name, key.Line, err, models.ErrInvalidTemplate))
			continue
		}
		if len(prescriptions) == 0 {
			c.rejected = multierr.Append(c.rejected,
				fmt.Errorf("template %q (line %d): no exercises: %w", name, key.Line, models.ErrInvalidTemplate))
			continue
		}
		if err := session.Validate(prescriptions); err != nil {
			c.rejected = multierr.Append(c.rejected, fmt.Errorf("template %q (line %d): %w", name, key.Line, err))
			continue
		}

		c.names = append(c.names, name)
		c.templates[name] = prescriptions
	}
	return c, nil
}

// Rejected returns the combined errors of templates dropped during Parse, or nil.
func (c *Catalog) Rejected() error { return c.rejected }

// Names returns the template names in file order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of usable templates.
func (c *Catalog) Len() int { return len(c.names) }

// Get returns a copy of the named template's prescriptions.
func (c *Catalog) Get(name string) ([]models.Prescription, bool) {
	ps, ok := c.templates[name]
	if !ok {
		return nil, false
	}
	out := make([]models.Prescription, len(ps))
	for i, p := range ps {
		out[i] = models.Prescription{Name: p.Name, Sets: p.Sets, Weights: append([]float64(nil), p.Weights...)}
	}
	return out, true
}

// Summaries returns picker entries in file order.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.names))
	for _, name := range c.names {
		ps := c.templates[name]
		s := Summary{Name: name, ExerciseCount: len(ps), Preview: []string{}}
		for i := 0; i < len(ps) && i < previewSize; i++ {
			s.Preview = append(s.Preview, ps[i].Name)
		}
		s.More = len(ps) - len(s.Preview)
		out = append(out, s)
	}
	return out
}
