package schema

// Rulebook is the static quota configuration for all subjects.
type Rulebook struct {
	Gub      GubRules                    `json:"gub" yaml:"gub"`
	Subjects map[SubjectKey]SubjectRules `json:"subjects" yaml:"subjects" validate:"required,dive"`
	Topics   []TopicInfo                 `json:"topics,omitempty" yaml:"topics,omitempty" validate:"dive"`
}

// GubRules caps graduation-relevant visits.
type GubRules struct {
	Total    int                                   `json:"total" yaml:"total" validate:"gte=0"`
	Ranges   []SchoolYearCondition                 `json:"ranges,omitempty" yaml:"ranges,omitempty" validate:"dive"`
	Subjects map[SubjectKey][]SchoolYearCondition `json:"subjects,omitempty" yaml:"subjects,omitempty" validate:"dive,dive"`
}

// SubjectRules holds the rules of one subject. History uses Variants, music
// uses SchoolYears and Topics.
type SubjectRules struct {
	Variants    []Variant             `json:"variants,omitempty" yaml:"variants,omitempty" validate:"dive"`
	SchoolYears []SchoolYearCondition `json:"school_years,omitempty" yaml:"school_years,omitempty" validate:"dive"`
	Topics      []SchoolYearCondition `json:"topics,omitempty" yaml:"topics,omitempty" validate:"dive"`
}

// Variant is one alternative rule set. Only one variant has to hold.
type Variant struct {
	Name       string                `json:"name" yaml:"name" validate:"required"`
	Conditions []SchoolYearCondition `json:"conditions" yaml:"conditions" validate:"required,min=1,dive"`
}

// TopicInfo names a lesson topic for display.
type TopicInfo struct {
	Key   LessonTopic `json:"key" yaml:"key" validate:"required"`
	Label string      `json:"label" yaml:"label"`
}

// TopicLabel returns the display label of a topic, falling back to its key.
func (rb *Rulebook) TopicLabel(key LessonTopic) string {
	for _, t := range rb.Topics {
		if t.Key == key && t.Label != "" {
			return t.Label
		}
	}
	return string(key)
}

// SubjectRulesFor returns the rules of subject and whether it is configured.
func (rb *Rulebook) SubjectRulesFor(subject SubjectKey) (SubjectRules, bool) {
	sr, ok := rb.Subjects[subject]
	return sr, ok
}
