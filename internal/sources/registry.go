package sources

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule describes how to locate the article body for one news outlet.
// Selectors are CSS and tried in order; XPaths follow when none of the
// selectors yields enough text. MinLength 0 means the extractor default.
type Rule struct {
	Name      string   `yaml:"name"`
	Hosts     []string `yaml:"hosts"`
	Selectors []string `yaml:"selectors"`
	XPaths    []string `yaml:"xpaths,omitempty"`
	MinLength int      `yaml:"min_length,omitempty"`
}

// GenericName is the name of the catch-all rule used when no host matches.
const GenericName = "generic"

// Builtins returns the default rule set for the Guangdong news outlets.
func Builtins() []Rule {
	return []Rule{
		{
			Name:  "southcn", // 南方网
			Hosts: []string{"southcn.com"},
			Selectors: []string{
				"div.article-content",
				"div.content",
				"div.article-body",
				`div[class*="content"]`,
				`div[class*="article"]`,
				"article",
				"div.text",
			},
		},
		{
			Name:  "ycwb", // 金羊网
			Hosts: []string{"ycwb.com"},
			Selectors: []string{
				"div.article-content",
				"div.content",
				"div.article-body",
				`div[class*="content"]`,
				`div[class*="article"]`,
				"article",
				"div.text",
				"div.main-content",
			},
		},
		{
			Name:  "chinanews", // 中国新闻网
			Hosts: []string{"chinanews.com", "chinanews.com.cn"},
			Selectors: []string{
				"div.left_zw",
				"div.content",
				"div.article-content",
				`div[class*="content"]`,
				`div[class*="article"]`,
				"article",
				"div.text",
			},
			XPaths: []string{
				`//div[contains(@class, "left_zw")]`,
			},
		},
		{
			Name: GenericName,
			Selectors: []string{
				"article",
				"main",
				"#content",
				"div.content",
			},
		},
	}
}

// Registry resolves article hosts to extraction rules.
type Registry struct {
	rules  []Rule
	byName map[string]int
	logger *slog.Logger
}

// NewRegistry creates a registry seeded with the built-in rules.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		byName: make(map[string]int),
		logger: logger.With("component", "sources"),
	}
	for _, rule := range Builtins() {
		r.add(rule)
	}
	return r
}

func (r *Registry) add(rule Rule) {
	if idx, ok := r.byName[rule.Name]; ok {
		r.rules[idx] = rule
		return
	}
	r.byName[rule.Name] = len(r.rules)
	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Generic returns the catch-all rule.
func (r *Registry) Generic() Rule {
	return r.rules[r.byName[GenericName]]
}

// Match returns the rule whose host suffix matches the given host. The
// longest suffix wins, so a dedicated chinanews.com.cn entry would shadow
// chinanews.com. Unmatched hosts fall back to the generic rule.
func (r *Registry) Match(host string) Rule {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	best := -1
	bestLen := 0
	for i, rule := range r.rules {
		for _, suffix := range rule.Hosts {
			suffix = strings.ToLower(suffix)
			if host != suffix && !strings.HasSuffix(host, "."+suffix) {
				continue
			}
			if len(suffix) > bestLen {
				best = i
				bestLen = len(suffix)
			}
		}
	}
	if best < 0 {
		return r.Generic()
	}
	return r.rules[best]
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile merges rules from a YAML file over the built-ins. Rules sharing
// a name replace the built-in entry; new names are appended.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rules file %s: %w", path, err)
	}

	for _, rule := range file.Rules {
		if rule.Name == "" {
			return fmt.Errorf("parse rules file %s: rule without a name", path)
		}
		r.add(rule)
	}

	r.logger.Info("source rules loaded", "path", path, "rules", len(file.Rules))
	return nil
}
