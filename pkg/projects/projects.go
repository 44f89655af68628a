// Package projects reads the categorized project list the pipeline enriches.
//
// The list is YAML:
//
//	categories:
//	  - name: Databases
//	    projects:
//	      - name: Redis
//	        url: https://github.com/redis/redis
package projects

import (
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/repo-stars/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

// List is a parsed project file.
type List struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name     string    `yaml:"name"`
	Projects []Project `yaml:"projects"`
}

type Project struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load parses the project file at path.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project list: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a project list. Entries are not validated: a project
// without a URL is kept and ends up Unresolved.
func Parse(r io.Reader) (*List, error) {
	var list List
	if err := yaml.NewDecoder(r).Decode(&list); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse project list: %w", err)
	}
	return &list, nil
}

// Len returns the number of projects across all categories.
func (l *List) Len() int {
	n := 0
	for _, c := range l.Categories {
		n += len(c.Projects)
	}
	return n
}

// Flatten returns one record per project in file order.
func (l *List) Flatten() []pipeline.ProjectRecord {
	records := make([]pipeline.ProjectRecord, 0, l.Len())
	for _, c := range l.Categories {
		for _, p := range c.Projects {
			records = append(records, pipeline.ProjectRecord{
				URL:      p.URL,
				Name:     p.Name,
				Category: c.Name,
			})
		}
	}
	return records
}
