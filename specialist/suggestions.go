package specialist

import "slices"

// Suggestion is a category of sample questions offered to visitors.
type Suggestion struct {
	Category  string   `yaml:"category" json:"category"`
	Questions []string `yaml:"questions" json:"questions"`
}

// DefaultSuggestions returns the built-in sample questions.
func DefaultSuggestions() []Suggestion {
	return []Suggestion{
		{
			Category: "Technical Skills",
			Questions: []string{
				"What programming languages are you most proficient in?",
				"Can you describe a complex technical problem you've solved?",
				"What's your experience with distributed systems?",
				"How do you approach system design challenges?",
			},
		},
		{
			Category: "AI/ML Experience",
			Questions: []string{
				"What's your experience with LangChain and LangGraph?",
				"Can you explain a project where you used AI/ML?",
				"How do you approach prompt engineering?",
				"What's your experience with RAG systems?",
			},
		},
		{
			Category: "Work Style",
			Questions: []string{
				"How do you prefer to collaborate with team members?",
				"What motivates you in your work?",
				"How do you handle tight deadlines?",
				"What's your approach to code reviews?",
			},
		},
		{
			Category: "Background",
			Questions: []string{
				"Tell me about your education",
				"Why did you transition between roles?",
				"What's been your most impactful project?",
				"How has your career progressed over time?",
			},
		},
	}
}

func cloneSuggestions(in []Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, s := range in {
		out[i] = Suggestion{Category: s.Category, Questions: slices.Clone(s.Questions)}
	}
	return out
}
