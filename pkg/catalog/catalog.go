// Package catalog holds the calculator directory: categories, calculator
// definitions, search, related calculators, the sitemap and the computation
// of a calculator's results from form inputs.
//
// The default catalog is embedded from calculators.yaml.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/formulas"
)

//go:embed calculators.yaml
var defaultData []byte

// ErrUnknownCalculator is returned for slugs not in the catalog.
var ErrUnknownCalculator = errors.New("unknown calculator")

// ExpressionFormula names the formula evaluated by the expression engine
// instead of a closed form.
const ExpressionFormula = "expression"

// Search limits.
const (
	MinQueryLen   = 2
	MaxSearchHits = 5
)

// Category groups calculators.
type Category struct {
	Slug        string `yaml:"slug" json:"slug"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// SelectOption is one choice of a select input.
type SelectOption struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Input describes one form field.
type Input struct {
	Name        string         `yaml:"name" json:"name"`
	Label       string         `yaml:"label" json:"label"`
	Type        string         `yaml:"type" json:"type"`
	Placeholder string         `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Default     string         `yaml:"default,omitempty" json:"default,omitempty"`
	Options     []SelectOption `yaml:"options,omitempty" json:"options,omitempty"`
	Min         *float64       `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64       `yaml:"max,omitempty" json:"max,omitempty"`
	Step        float64        `yaml:"step,omitempty" json:"step,omitempty"`
}

// ResultLabel describes how one result is shown. A nil Precision shows as
// many fraction digits as the value needs.
type ResultLabel struct {
	Key         string `yaml:"key" json:"key"`
	Label       string `yaml:"label" json:"label"`
	Unit        string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Precision   *int   `yaml:"precision,omitempty" json:"precision,omitempty"`
}

// Calculator is one calculator definition.
type Calculator struct {
	Slug               string        `yaml:"slug" json:"slug"`
	Title              string        `yaml:"title" json:"title"`
	Category           string        `yaml:"category" json:"category"`
	Formula            string        `yaml:"formula" json:"formula"`
	Featured           bool          `yaml:"featured,omitempty" json:"featured"`
	ShortDescription   string        `yaml:"short_description" json:"short_description"`
	FormulaDescription string        `yaml:"formula_description,omitempty" json:"formula_description,omitempty"`
	Article            string        `yaml:"article" json:"article"`
	Inputs             []Input       `yaml:"inputs" json:"inputs"`
	Results            []ResultLabel `yaml:"results" json:"results"`
	Related            []string      `yaml:"related,omitempty" json:"related,omitempty"`
}

type document struct {
	Categories  []Category   `yaml:"categories"`
	Calculators []Calculator `yaml:"calculators"`
}

// Catalog is an immutable calculator directory. It is safe for concurrent
// use.
type Catalog struct {
	categories  []Category
	calculators []Calculator
	bySlug      map[string]int
	ev          *evaluator.Evaluator
	locale      string
	logger      *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithEvaluator sets the evaluator used by expression calculators.
func WithEvaluator(ev *evaluator.Evaluator) Option {
	return func(c *Catalog) {
		c.ev = ev
	}
}

// WithLocale sets the locale results are formatted in.
func WithLocale(locale string) Option {
	return func(c *Catalog) {
		c.locale = locale
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// Load parses a YAML catalog. Slugs must be unique, every calculator must
// belong to a known category and name a registered formula. Related slugs
// that do not resolve are dropped with a warning.
func Load(data []byte, opts ...Option) (*Catalog, error) {
	c := &Catalog{locale: "en", bySlug: make(map[string]int)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.ev == nil {
		c.ev = evaluator.New()
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	categories := make(map[string]bool, len(doc.Categories))
	for _, cat := range doc.Categories {
		if cat.Slug == "" {
			return nil, errors.New("catalog: category without slug")
		}
		categories[cat.Slug] = true
	}

	for i, calc := range doc.Calculators {
		if calc.Slug == "" {
			return nil, fmt.Errorf("catalog: calculator %d has no slug", i)
		}
		if _, dup := c.bySlug[calc.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate calculator %q", calc.Slug)
		}
		if !categories[calc.Category] {
			return nil, fmt.Errorf("catalog: calculator %q: unknown category %q", calc.Slug, calc.Category)
		}
		if _, ok := formulas.Lookup(calc.Formula); !ok && calc.Formula != ExpressionFormula {
			return nil, fmt.Errorf("catalog: calculator %q: unknown formula %q", calc.Slug, calc.Formula)
		}
		c.bySlug[calc.Slug] = i
	}

	for i := range doc.Calculators {
		calc := &doc.Calculators[i]
		related := calc.Related[:0]
		for _, slug := range calc.Related {
			if _, ok := c.bySlug[slug]; !ok {
				c.logger.Warn("dropping unknown related calculator",
					zap.String("calculator", calc.Slug),
					zap.String("related", slug))
				continue
			}
			related = append(related, slug)
		}
		calc.Related = related
	}

	c.categories = doc.Categories
	c.calculators = doc.Calculators
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultData)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// New loads the embedded catalog with options.
func New(opts ...Option) (*Catalog, error) {
	return Load(defaultData, opts...)
}

// Categories returns all categories in catalog order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Category returns the category with the given slug.
func (c *Catalog) Category(slug string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return Category{}, false
}

// Calculators returns all calculators in catalog order.
func (c *Catalog) Calculators() []Calculator {
	return append([]Calculator(nil), c.calculators...)
}

// ByCategory returns the calculators of one category.
func (c *Catalog) ByCategory(slug string) []Calculator {
	return c.filter(func(calc *Calculator) bool { return calc.Category == slug })
}

// Featured returns the featured calculators.
func (c *Catalog) Featured() []Calculator {
	return c.filter(func(calc *Calculator) bool { return calc.Featured })
}

// Get returns the calculator with the given slug.
func (c *Catalog) Get(slug string) (Calculator, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Calculator{}, fmt.Errorf("%w: %q", ErrUnknownCalculator, slug)
	}
	return c.calculators[i], nil
}

// Search matches query case-insensitively against titles and short
// descriptions. Queries shorter than MinQueryLen return nothing; at most
// MaxSearchHits calculators are returned, in catalog order.
func (c *Catalog) Search(query string) []Calculator {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinQueryLen {
		return nil
	}
	var out []Calculator
	for _, calc := range c.calculators {
		if strings.Contains(strings.ToLower(calc.Title), q) ||
			strings.Contains(strings.ToLower(calc.ShortDescription), q) {
			out = append(out, calc)
			if len(out) == MaxSearchHits {
				break
			}
		}
	}
	return out
}

// Related returns the calculators related to slug.
func (c *Catalog) Related(slug string) ([]Calculator, error) {
	calc, err := c.Get(slug)
	if err != nil {
		return nil, err
	}
	out := make([]Calculator, 0, len(calc.Related))
	for _, r := range calc.Related {
		out = append(out, c.calculators[c.bySlug[r]])
	}
	return out, nil
}

func (c *Catalog) filter(keep func(*Calculator) bool) []Calculator {
	var out []Calculator
	for i := range c.calculators {
		if keep(&c.calculators[i]) {
			out = append(out, c.calculators[i])
		}
	}
	return out
}
