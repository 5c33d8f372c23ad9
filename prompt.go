package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tolisxo/gmaps-leads/config"
	"github.com/tolisxo/gmaps-leads/services"
)

// jobs resolves what to search for: the flags, then the input file, then
// interactive prompts.
func (c cli) jobs(cfg config.Config, in io.Reader) ([]services.Params, error) {
	base := services.Params{Region: c.Region, MaxResults: max(c.Max, 0), Headless: cfg.Headless}

	if strings.TrimSpace(c.Query) != "" {
		base.Query = strings.TrimSpace(c.Query)
		return []services.Params{base}, nil
	}

	terms, err := readTerms(c.Input)
	if err != nil {
		return nil, err
	}
	if len(terms) > 0 {
		jobs := make([]services.Params, 0, len(terms))
		for _, t := range terms {
			p := base
			p.Query = t
			jobs = append(jobs, p)
		}
		return jobs, nil
	}

	p, err := prompt(in, os.Stdout, base)
	if err != nil {
		return nil, err
	}
	return []services.Params{p}, nil
}

// readTerms returns the non-empty lines of path. A missing file yields no terms.
func readTerms(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var terms []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			terms = append(terms, line)
		}
	}
	return terms, sc.Err()
}

func prompt(in io.Reader, out io.Writer, p services.Params) (services.Params, error) {
	r := bufio.NewReader(in)
	ask := func(question string) (string, error) {
		fmt.Fprint(out, question)
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	var err error
	for p.Query == "" {
		if p.Query, err = ask("Business niche (e.g. dentists): "); err != nil {
			return p, fmt.Errorf("read niche: %w", err)
		}
	}
	if p.Region == "" {
		// The region is optional, so running out of input leaves it empty.
		if p.Region, err = ask("Region (e.g. Zurich): "); err != nil && !errors.Is(err, io.EOF) {
			return p, fmt.Errorf("read region: %w", err)
		}
	}
	if p.MaxResults == 0 {
		answer, err := ask("How many businesses? (0 for no limit): ")
		if err != nil && !errors.Is(err, io.EOF) {
			return p, fmt.Errorf("read quantity: %w", err)
		}
		p.MaxResults = parseQuantity(answer)
	}
	return p, nil
}

// parseQuantity treats anything that is not a positive number as no limit.
func parseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
