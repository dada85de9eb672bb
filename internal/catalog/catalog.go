// Package catalog loads the declarative pattern configuration and exposes it
// as an immutable, process-wide catalog: compiled regexes, vocabularies,
// provincial keyword sets and placeholder strings.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/savegress/cliniredact/internal/textutil"
	"github.com/savegress/cliniredact/pkg/models"
)

//go:embed default_patterns.yaml
var defaultPatterns []byte

// Pattern is one compiled regex alternative for an entity type.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
	Score  float64
}

// Vocabulary holds the casefolded word lists the recognizers consult.
// Titles, verbs and stop words are sets; the keyword lists keep file order.
type Vocabulary struct {
	Titles          map[string]struct{}
	ActiveVerbs     map[string]struct{}
	PassiveVerbs    map[string]struct{}
	ContextKeywords []string
	CCContext       []string
	StopWords       map[string]struct{}
}

// Catalog is the process-wide pattern configuration. It is immutable after
// load and safe for unsynchronized concurrent reads.
type Catalog struct {
	patterns     map[models.EntityType][]Pattern
	vocab        Vocabulary
	provinces    map[models.EntityType][]string
	placeholders map[models.EntityType]string
}

type patternSpec struct {
	Name  string  `yaml:"name"`
	Regex string  `yaml:"regex"`
	Score float64 `yaml:"score"`
}

type vocabularySpec struct {
	HealthcareTitles       []string `yaml:"healthcare_titles"`
	PatientVerbsActive     []string `yaml:"patient_verbs_active"`
	PatientVerbsPassive    []string `yaml:"patient_verbs_passive"`
	PatientContextKeywords []string `yaml:"patient_context_keywords"`
	CreditCardContext      []string `yaml:"credit_card_context"`
	StopWords              []string `yaml:"stop_words"`
}

type provinceSpec struct {
	Keywords []string `yaml:"keywords"`
}

type fileSpec struct {
	Vocabulary vocabularySpec            `yaml:"vocabulary"`
	Patterns   map[string][]patternSpec  `yaml:"patterns"`
	Provinces  map[string]provinceSpec   `yaml:"provinces"`
}

// provinceEntity maps a config province code to its health number type.
var provinceEntity = map[string]models.EntityType{
	"ON": models.EntityONHealth,
	"BC": models.EntityBCHealth,
	"QC": models.EntityQCHealth,
	"AB": models.EntityABHealth,
	"SK": models.EntitySKHealth,
	"MB": models.EntityMBHealth,
	"NS": models.EntityNSHealth,
	"NB": models.EntityNBHealth,
	"NL": models.EntityNLHealth,
	"PE": models.EntityPEHealth,
	"NT": models.EntityNTHealth,
	"NU": models.EntityNUHealth,
	"YT": models.EntityYTHealth,
}

// Load reads the pattern configuration from path. An empty path loads the
// embedded default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultPatterns)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML configuration bytes. Missing required
// sections and malformed regexes fail the load; entity types with no
// configured patterns are logged and omitted.
func Parse(data []byte) (*Catalog, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse pattern config: %w", err)
	}

	if err := checkRequired(&spec); err != nil {
		return nil, err
	}

	c := &Catalog{
		patterns:     make(map[models.EntityType][]Pattern),
		provinces:    make(map[models.EntityType][]string),
		placeholders: make(map[models.EntityType]string),
		vocab: Vocabulary{
			Titles:          foldSet(spec.Vocabulary.HealthcareTitles),
			ActiveVerbs:     foldSet(spec.Vocabulary.PatientVerbsActive),
			PassiveVerbs:    foldSet(spec.Vocabulary.PatientVerbsPassive),
			ContextKeywords: foldList(spec.Vocabulary.PatientContextKeywords),
			CCContext:       foldList(spec.Vocabulary.CreditCardContext),
			StopWords:       foldSet(spec.Vocabulary.StopWords),
		},
	}

	for name, specs := range spec.Patterns {
		entity := models.EntityType(name)
		if !entity.Valid() {
			return nil, fmt.Errorf("pattern config: unknown entity type %q", name)
		}
		patterns := make([]Pattern, 0, len(specs))
		for _, ps := range specs {
			if ps.Name == "" {
				return nil, fmt.Errorf("pattern config: unnamed pattern under %s", name)
			}
			if ps.Score < 0 || ps.Score > 1 {
				return nil, fmt.Errorf("pattern config: score out of range for rule %s", ps.Name)
			}
			re, err := regexp.Compile(ps.Regex)
			if err != nil {
				return nil, fmt.Errorf("pattern config: rule %s: %w", ps.Name, err)
			}
			patterns = append(patterns, Pattern{Name: ps.Name, Regexp: re, Score: ps.Score})
		}
		sort.Slice(patterns, func(i, j int) bool { return patterns[i].Name < patterns[j].Name })
		c.patterns[entity] = patterns
	}

	for code, ps := range spec.Provinces {
		entity, ok := provinceEntity[code]
		if !ok {
			return nil, fmt.Errorf("pattern config: unknown province code %q", code)
		}
		c.provinces[entity] = foldList(ps.Keywords)
	}

	for _, t := range models.AllEntityTypes() {
		c.placeholders[t] = "<" + string(t) + ">"
		if t == models.EntityPatientName {
			continue
		}
		if len(c.patterns[t]) == 0 {
			logrus.WithField("entity_type", string(t)).Warn("no patterns configured; type omitted")
		}
	}

	return c, nil
}

func checkRequired(spec *fileSpec) error {
	v := spec.Vocabulary
	required := []struct {
		name string
		list []string
	}{
		{"vocabulary.healthcare_titles", v.HealthcareTitles},
		{"vocabulary.patient_verbs_active", v.PatientVerbsActive},
		{"vocabulary.patient_verbs_passive", v.PatientVerbsPassive},
		{"vocabulary.patient_context_keywords", v.PatientContextKeywords},
		{"vocabulary.credit_card_context", v.CreditCardContext},
		{"vocabulary.stop_words", v.StopWords},
	}
	for _, r := range required {
		if len(r.list) == 0 {
			return fmt.Errorf("pattern config: missing required section %s", r.name)
		}
	}
	if len(spec.Patterns) == 0 {
		return fmt.Errorf("pattern config: missing required section patterns")
	}
	if len(spec.Provinces) == 0 {
		return fmt.Errorf("pattern config: missing required section provinces")
	}
	return nil
}

// Patterns returns the compiled patterns for an entity type, nil when none
// are configured.
func (c *Catalog) Patterns(t models.EntityType) []Pattern {
	return c.patterns[t]
}

// PatternTypes lists the entity types that have at least one pattern, in a
// stable order.
func (c *Catalog) PatternTypes() []models.EntityType {
	types := make([]models.EntityType, 0, len(c.patterns))
	for t := range c.patterns {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Vocab returns the catalog vocabulary.
func (c *Catalog) Vocab() *Vocabulary {
	return &c.vocab
}

// ProvinceKeywords returns the casefolded keywords configured for a
// provincial health number type.
func (c *Catalog) ProvinceKeywords(t models.EntityType) []string {
	return c.provinces[t]
}

// Placeholder returns the literal replacement string for an entity type.
func (c *Catalog) Placeholder(t models.EntityType) string {
	return c.placeholders[t]
}

func foldSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[textutil.Fold(s)] = struct{}{}
	}
	return set
}

func foldList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, textutil.Fold(s))
	}
	return out
}
