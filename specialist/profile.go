package specialist

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the static background data the specialists answer from.
type Profile struct {
	Name        string              `yaml:"name" json:"name"`
	Title       string              `yaml:"title" json:"title"`
	Email       string              `yaml:"email,omitempty" json:"email,omitempty"`
	Location    string              `yaml:"location,omitempty" json:"location,omitempty"`
	Summary     string              `yaml:"summary" json:"summary"`
	Skills      map[string][]string `yaml:"skills,omitempty" json:"skills,omitempty"`
	Experience  []Experience        `yaml:"experience,omitempty" json:"experience,omitempty"`
	Education   []Education         `yaml:"education,omitempty" json:"education,omitempty"`
	Projects    []Project           `yaml:"projects,omitempty" json:"projects,omitempty"`
	Interests   []string            `yaml:"interests,omitempty" json:"interests,omitempty"`
	Personality Personality         `yaml:"personality,omitempty" json:"personality,omitempty"`
}

// Experience is one role held at a company.
type Experience struct {
	Company    string   `yaml:"company" json:"company"`
	Role       string   `yaml:"role" json:"role"`
	Duration   string   `yaml:"duration" json:"duration"`
	Highlights []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
}

// Education is one degree.
type Education struct {
	Degree string `yaml:"degree" json:"degree"`
	School string `yaml:"school" json:"school"`
	Year   string `yaml:"year,omitempty" json:"year,omitempty"`
	GPA    string `yaml:"gpa,omitempty" json:"gpa,omitempty"`
}

// Project is a showcased project.
type Project struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies,omitempty" json:"technologies,omitempty"`
	Impact       string   `yaml:"impact,omitempty" json:"impact,omitempty"`
}

// Personality describes work style and values.
type Personality struct {
	WorkStyle string   `yaml:"work_style,omitempty" json:"work_style,omitempty"`
	Strengths []string `yaml:"strengths,omitempty" json:"strengths,omitempty"`
	Values    []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Section keys understood by Profile.Section.
const (
	KeyName             = "name"
	KeyTitle            = "title"
	KeyLocation         = "location"
	KeySummary          = "summary"
	KeySkills           = "skills"
	KeyExperience       = "experience"
	KeyEducation        = "education"
	KeyProjects         = "projects"
	KeyInterests        = "interests"
	KeyPersonality      = "personality"
	KeyLeadership       = "leadership_examples"
	KeyExpertiseAreas   = "areas_of_expertise"
	KeyNumberOfProjects = "number_of_projects"
	KeyEducationLevel   = "education_level"
)

var allSections = []string{
	KeyName, KeyTitle, KeyLocation, KeySummary, KeySkills, KeyExperience,
	KeyEducation, KeyProjects, KeyInterests, KeyPersonality,
}

var leadershipMarkers = []string{"led", "lead", "mentor", "manag", "team"}

func (p *Profile) value(key string) (any, bool) {
	switch key {
	case KeyName:
		return p.Name, p.Name != ""
	case KeyTitle:
		return p.Title, p.Title != ""
	case KeyLocation:
		return p.Location, p.Location != ""
	case KeySummary:
		return p.Summary, p.Summary != ""
	case KeySkills:
		return p.Skills, len(p.Skills) > 0
	case KeyExperience:
		return p.Experience, len(p.Experience) > 0
	case KeyEducation:
		return p.Education, len(p.Education) > 0
	case KeyProjects:
		return p.Projects, len(p.Projects) > 0
	case KeyInterests:
		return p.Interests, len(p.Interests) > 0
	case KeyPersonality:
		return p.Personality, p.Personality.WorkStyle != "" || len(p.Personality.Strengths) > 0 || len(p.Personality.Values) > 0
	case KeyLeadership:
		ex := p.leadershipExamples()
		return ex, len(ex) > 0
	case KeyExpertiseAreas:
		areas := make([]string, 0, len(p.Skills))
		for k := range p.Skills {
			areas = append(areas, k)
		}
		sort.Strings(areas)
		return areas, len(areas) > 0
	case KeyNumberOfProjects:
		return len(p.Projects), true
	case KeyEducationLevel:
		if len(p.Education) == 0 {
			return "", false
		}
		return p.Education[0].Degree, p.Education[0].Degree != ""
	default:
		return nil, false
	}
}

func (p *Profile) leadershipExamples() []string {
	var out []string
	for _, e := range p.Experience {
		for _, h := range e.Highlights {
			lh := strings.ToLower(h)
			for _, m := range leadershipMarkers {
				if strings.Contains(lh, m) {
					out = append(out, fmt.Sprintf("%s (%s): %s", e.Role, e.Company, h))
					break
				}
			}
		}
	}
	return out
}

// Section renders the selected profile sections as YAML, in the given key
// order. Unknown or empty sections are skipped. Without keys every base
// section is rendered.
func (p *Profile) Section(keys ...string) string {
	if p == nil {
		return ""
	}
	if len(keys) == 0 {
		keys = allSections
	}
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		v, ok := p.value(k)
		if !ok {
			continue
		}
		var vn yaml.Node
		if err := vn.Encode(v); err != nil {
			continue
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &vn)
	}
	if len(doc.Content) == 0 {
		return ""
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}
