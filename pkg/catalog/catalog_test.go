package catalog_test

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocalc/pkg/catalog"
	"github.com/sandrolain/gocalc/pkg/formulas"
	"github.com/sandrolain/gocalc/pkg/types"
)

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()
	assert.Len(t, c.Categories(), 4)
	assert.Len(t, c.Calculators(), 12)

	for _, calc := range c.Calculators() {
		_, ok := c.Category(calc.Category)
		assert.True(t, ok, "calculator %s has category %s", calc.Slug, calc.Category)
		assert.NotEmpty(t, calc.Results, calc.Slug)
	}

	featured := c.Featured()
	require.NotEmpty(t, featured)
	for _, calc := range featured {
		assert.True(t, calc.Featured)
	}

	health := c.ByCategory("health")
	require.Len(t, health, 3)
	assert.Equal(t, "bmi-calculator", health[0].Slug)
}

func TestGet(t *testing.T) {
	c := catalog.Default()
	calc, err := c.Get("bmi-calculator")
	require.NoError(t, err)
	assert.Equal(t, "BMI Calculator", calc.Title)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownCalculator)
}

func TestSearch(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		query string
		want  []string
	}{
		{"b", nil},
		{"  ", nil},
		{"BMI", []string{"bmi-calculator"}},
		{"loan", []string{"loan-emi-calculator"}},
		{"date", []string{"date-difference-calculator"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, calc := range c.Search(tt.query) {
				got = append(got, calc.Slug)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, c.Search("calculat"), catalog.MaxSearchHits)
}

func TestRelated(t *testing.T) {
	c := catalog.Default()
	related, err := c.Related("bmi-calculator")
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "bmr-calculator", related[0].Slug)

	_, err = c.Related("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownCalculator)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown category", `
categories: [{slug: a, name: A}]
calculators: [{slug: x, category: b, formula: bmi}]`},
		{"unknown formula", `
categories: [{slug: a, name: A}]
calculators: [{slug: x, category: a, formula: magic}]`},
		{"duplicate slug", `
categories: [{slug: a, name: A}]
calculators: [{slug: x, category: a, formula: bmi}, {slug: x, category: a, formula: bmr}]`},
		{"malformed", `categories: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Load([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadDropsUnknownRelated(t *testing.T) {
	c, err := catalog.Load([]byte(`
categories: [{slug: a, name: A}]
calculators:
  - {slug: x, category: a, formula: bmi, related: [y, missing]}
  - {slug: y, category: a, formula: bmr}
`))
	require.NoError(t, err)
	related, err := c.Related("x")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "y", related[0].Slug)
}

func TestCompute(t *testing.T) {
	c := catalog.Default()
	out, err := c.Compute(context.Background(), "bmi-calculator", formulas.Inputs{"weight": "70", "height": "175"})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "bmi", out.Results[0].Key)
	assert.Equal(t, "22.86", out.Results[0].Formatted)
	assert.Equal(t, "Normal weight", out.Results[1].Formatted)
	assert.Equal(t, "Normal weight", out.Values()["category"])
}

func TestComputeDefaultsAndFormatting(t *testing.T) {
	c := catalog.Default()
	out, err := c.Compute(context.Background(), "unit-converter", formulas.Inputs{"value": "1000"})
	require.NoError(t, err)
	assert.Equal(t, "meters", out.Inputs["fromUnit"])
	assert.Equal(t, "feet", out.Inputs["toUnit"])
	assert.Equal(t, "3,280.8399", out.Results[0].Formatted)

	c, err = catalog.New(catalog.WithLocale("de"))
	require.NoError(t, err)
	out, err = c.Compute(context.Background(), "loan-emi-calculator", formulas.Inputs{"principal": "100000", "rate": "5", "tenure": "10"})
	require.NoError(t, err)
	assert.Equal(t, "1.060,66", out.Results[0].Formatted)
}

func TestComputeExpression(t *testing.T) {
	c := catalog.Default()
	out, err := c.Compute(context.Background(), "scientific-calculator", formulas.Inputs{"expression": "2 + 3 × 4"})
	require.NoError(t, err)
	assert.Equal(t, 14.0, out.Results[0].Value)
	assert.Equal(t, "14", out.Results[0].Formatted)

	out, err = c.Compute(context.Background(), "scientific-calculator", formulas.Inputs{"expression": "cos(π)", "angle_mode": "rad"})
	require.NoError(t, err)
	assert.Equal(t, -1.0, out.Results[0].Value)

	_, err = c.Compute(context.Background(), "scientific-calculator", formulas.Inputs{"expression": "1 ÷ 0"})
	assert.ErrorIs(t, err, types.ErrDomain)

	_, err = c.Compute(context.Background(), "scientific-calculator", formulas.Inputs{})
	assert.ErrorIs(t, err, formulas.ErrInvalidInput)
}

func TestComputeErrors(t *testing.T) {
	c := catalog.Default()
	_, err := c.Compute(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownCalculator)

	_, err = c.Compute(context.Background(), "bmi-calculator", formulas.Inputs{"weight": "70"})
	assert.ErrorIs(t, err, formulas.ErrInvalidInput)
}

func TestSitemap(t *testing.T) {
	c := catalog.Default()
	data, err := c.Sitemap("https://example.com/", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	var set struct {
		URLs []struct {
			Loc     string `xml:"loc"`
			LastMod string `xml:"lastmod"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(data, &set))
	assert.Len(t, set.URLs, 6+12)
	assert.Equal(t, "https://example.com/", set.URLs[0].Loc)
	assert.Equal(t, "2024-01-02", set.URLs[0].LastMod)
	assert.Equal(t, "https://example.com/calculator/bmi-calculator", set.URLs[6].Loc)
}
