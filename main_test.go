package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolisxo/gmaps-leads/config"
	"github.com/tolisxo/gmaps-leads/services"
)

func TestPromptReadsAllAnswers(t *testing.T) {
	var out bytes.Buffer
	p, err := prompt(strings.NewReader("dentists\nZurich\n25\n"), &out, services.Params{Headless: true})
	require.NoError(t, err)
	assert.Equal(t, services.Params{Query: "dentists", Region: "Zurich", MaxResults: 25, Headless: true}, p)
	assert.Contains(t, out.String(), "Business niche")
}

func TestPromptInvalidQuantityMeansNoLimit(t *testing.T) {
	p, err := prompt(strings.NewReader("bakeries\nBern\nlots\n"), &bytes.Buffer{}, services.Params{})
	require.NoError(t, err)
	assert.Zero(t, p.MaxResults)
}

func TestPromptSkipsAnsweredQuestions(t *testing.T) {
	var out bytes.Buffer
	p, err := prompt(strings.NewReader("cafes\n"), &out, services.Params{Region: "Basel", MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, "cafes", p.Query)
	assert.Equal(t, "Basel", p.Region)
	assert.NotContains(t, out.String(), "Region")
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 10, parseQuantity(" 10 "))
	assert.Zero(t, parseQuantity("-3"))
	assert.Zero(t, parseQuantity(""))
}

func TestJobsFromInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("dentists zurich\n\n# skipped\nbakeries bern\n"), 0o644))

	jobs, err := cli{Input: path, Max: 3}.jobs(config.Config{Headless: true}, strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "dentists zurich", jobs[0].Query)
	assert.Equal(t, "bakeries bern", jobs[1].Query)
	assert.Equal(t, 3, jobs[1].MaxResults)
	assert.True(t, jobs[1].Headless)
}

func TestJobsPrefersQueryFlag(t *testing.T) {
	jobs, err := cli{Query: " cafes ", Region: "Geneva", Input: "does-not-exist.txt"}.jobs(config.Config{}, strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "cafes Geneva", jobs[0].SearchTerm())
}

func TestApplyOverridesConfig(t *testing.T) {
	cfg := config.Config{Headless: true, Driver: config.DriverChromedp, OutputFormats: []string{"csv", "xlsx"}}
	cli{Headed: true, Driver: "rod", Formats: []string{" XLSX "}, Enrich: true}.apply(&cfg)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "rod", cfg.Driver)
	assert.Equal(t, []string{"xlsx"}, cfg.OutputFormats)
	assert.True(t, cfg.EnrichWebsites)
}

func TestPromptAcceptsEndOfInputAfterNiche(t *testing.T) {
	p, err := prompt(strings.NewReader("dentists\n"), &bytes.Buffer{}, services.Params{})
	require.NoError(t, err)
	assert.Equal(t, "dentists", p.Query)
	assert.Empty(t, p.Region)
	assert.Zero(t, p.MaxResults)
}

func TestPromptFailsWithoutNiche(t *testing.T) {
	_, err := prompt(strings.NewReader(""), &bytes.Buffer{}, services.Params{})
	require.ErrorContains(t, err, "read niche")
}
