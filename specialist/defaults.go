package specialist

// Shared prompt blocks available to every system prompt template.
const (
	ResponseFormatRules = `RESPONSE FORMAT:
- Answer directly in first person as the candidate
- No stage directions like "(smiles)", "(pauses)", "(chuckles)"
- No dialogue formatting ("Me:", "Interviewer:")
- Keep responses professional and concise (2-3 paragraphs max)
- No theatrical elements or meta-commentary`

	ContentRules = `CONTENT RULES:
1. Answer the actual question asked
2. Use real company/project names from data - never placeholders like "[Company Name]"
3. Only mention experiences from the provided data
4. Stay in character as the candidate being interviewed
5. When information is unavailable: "I don't have those specific details at the moment. Please feel free to contact me directly to discuss this further."`

	AntiHallucinationNote = `IMPORTANT: Only use information from the provided data. If you cannot answer fully with available data, acknowledge the limitation and suggest direct contact.`
)

const promptPreamble = `{{.ResponseFormat}}

{{.ContentRules}}
`

func temp(v float64) *float64 { return &v }

// DefaultDescriptors returns the portfolio specialists in routing priority order.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Tag:         "interview",
			Title:       "Interview",
			Description: `resume-style interview questions like "tell me about yourself", "what are your strengths/weaknesses", "why should we hire you", "describe a challenging project", "how do you handle pressure", behavioral questions`,
			Keywords:    []string{"yourself", "strength*", "weakness*", "hire", "challenging", "pressure", "conflict", "failure", "proud", "behavioral"},
			SystemPrompt: "You are answering interview questions as the candidate.\n\n" + promptPreamble + `
Common interview questions: strengths/weaknesses, challenging projects, handling pressure, motivations.
Use the STAR method (Situation, Task, Action, Result) for behavioral questions.

{{.AntiHallucination}}`,
			Instruction: "Respond as the candidate in an interview. Be authentic, use specific examples from actual experience. If this is a behavioral question, use the STAR method.",
			DataTitle:   "My Background & Data:",
			ContextKeys: []string{KeyName, KeyExperience, KeySkills, KeyProjects, KeyEducation, KeyPersonality},
			Temperature: temp(0.2),
			Priority:    10,
		},
		{
			Tag:         "technical",
			Title:       "Technical",
			Description: "questions about programming languages, frameworks, tools, system design, technical projects",
			Keywords:    []string{"language*", "programming", "framework*", "tool*", "stack", "system design", "architecture", "database*", "code", "coding", "python", "golang", "typescript", "llm", "machine learning", "ai", "api*", "cloud"},
			SystemPrompt: "You are answering technical interview questions as the candidate.\n\n" + promptPreamble + `
Technical focus areas (use data to support):
- Backend Development: Python, FastAPI, Django
- LLM & AI Engineering: Multi-agent systems, LangGraph, LangChain, RAG
- Data Engineering: APIs, databases, data pipelines
- Frontend: React/Next.js (prototyping only, not core expertise)

{{.AntiHallucination}}`,
			Instruction: "Respond as the candidate in first person. Showcase technical expertise with specific examples from projects and experience.",
			DataTitle:   "My Technical Background:",
			ContextKeys: []string{KeySkills, KeyProjects, KeyExperience},
			Temperature: temp(0.2),
			Priority:    20,
		},
		{
			Tag:         "personal",
			Title:       "Personal",
			Description: "questions about personality, work style, motivations, interests, soft skills, culture fit",
			Keywords:    []string{"personality", "work style", "motivat*", "interest*", "hobby", "hobbies", "soft skill*", "culture", "value*", "passion*", "free time"},
			SystemPrompt: "You are answering interview questions as the candidate.\n\n" + promptPreamble + `
Topics you can discuss (using real data):
- Work style and collaboration approach
- Motivations and career goals
- Soft skills and interpersonal abilities
- Values and work culture preferences
- Interests and passions

{{.AntiHallucination}}`,
			Instruction: "Respond as the candidate. Be genuine and personable, giving insight into personality and work style.",
			DataTitle:   "My Personal Background:",
			ContextKeys: []string{KeyPersonality, KeyInterests, KeySummary, KeyLeadership},
			Temperature: temp(0.3),
			Priority:    30,
		},
		{
			Tag:         "background",
			Title:       "Background",
			Description: "questions about education, work history, career progression, past companies",
			Keywords:    []string{"education", "degree", "university", "school", "studied", "study", "work history", "career", "compan*", "previous", "employer*", "job*", "role*", "experience"},
			SystemPrompt: "You are answering interview questions as the candidate. Today's date is {{.Today}}.\n\n" + promptPreamble + `
Additional background-specific rules:
- Never invent platform/product names - use exact wording from data
- Each work experience entry is a ROLE at a COMPANY, not a project name
- Achievements are individual tasks, not parts of named platforms
- Be time-aware: calculate which roles fall within requested timeframes

{{.AntiHallucination}}`,
			Instruction: "Provide clear, factual details about background and experience, including specific details about roles, achievements, and career progression.",
			DataTitle:   "My Professional Background:",
			ContextKeys: []string{KeyExperience, KeyEducation, KeySummary},
			Temperature: temp(0.1),
			Priority:    40,
		},
		{
			Tag:         "help",
			Title:       "Help",
			Description: "unclear questions, requests for guidance, or when the user needs help understanding capabilities",
			Keywords:    []string{"help", "what can you", "what can i ask", "how does this work", "guide", "capabilit*", "options"},
			SystemPrompt: "You are answering interview questions as the candidate.\n\n" + promptPreamble + `
For broad questions, provide helpful overview of what you can discuss:
- Technical skills and experience
- Work experience and projects
- Education background
- Work style and approach

When appropriate, suggest scheduling an interview for deeper discussion.

{{.AntiHallucination}}`,
			Instruction: "Be conversational yet professional. If the question is broad, provide a helpful overview. When appropriate, suggest scheduling an interview for deeper discussion.",
			DataTitle:   "My Background and Information:",
			ContextKeys: []string{KeyName, KeyTitle, KeyExpertiseAreas, KeyNumberOfProjects, KeyEducationLevel},
			Temperature: temp(0.3),
			Priority:    50,
		},
	}
}

// DefaultFallback is the general-purpose specialist used for low-confidence
// or failed routing.
func DefaultFallback() Descriptor {
	return Descriptor{
		Title:        "General",
		Description:  "anything that does not clearly belong to another specialist",
		SystemPrompt: "You are answering questions as the candidate.\n\n" + promptPreamble + "\n{{.AntiHallucination}}",
		Instruction:  "Respond as the candidate.",
		DataTitle:    "My Information:",
		Temperature:  temp(0.3),
	}
}

// DefaultRegistry builds the registry of portfolio specialists.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultFallback(), DefaultDescriptors()...)
	if err != nil {
		panic(err) // static data
	}
	return r
}

// DefaultProfile returns the placeholder candidate profile.
func DefaultProfile() *Profile {
	return &Profile{
		Name:     "J M",
		Title:    "Full-Stack Engineer & AI Developer",
		Email:    "jm@example.com",
		Location: "San Francisco, CA",
		Summary:  "Experienced full-stack engineer with expertise in AI/ML, distributed systems, and modern web technologies.",
		Skills: map[string][]string{
			"languages":  {"Python", "TypeScript", "JavaScript", "Go", "SQL"},
			"frameworks": {"React", "Next.js", "FastAPI", "Django", "LangChain"},
			"databases":  {"PostgreSQL", "MongoDB", "Redis", "Pinecone"},
			"tools":      {"Docker", "Kubernetes", "AWS", "Git", "CI/CD"},
			"ai_ml":      {"LangChain", "LangGraph", "OpenAI", "Hugging Face", "PyTorch"},
		},
		Experience: []Experience{
			{
				Company:  "Tech Startup",
				Role:     "Senior Full-Stack Engineer",
				Duration: "2022-2024",
				Highlights: []string{
					"Built AI-powered features using LangChain and OpenAI",
					"Designed scalable microservices architecture",
					"Led team of 4 engineers",
				},
			},
			{
				Company:  "AI Company",
				Role:     "ML Engineer",
				Duration: "2020-2022",
				Highlights: []string{
					"Developed NLP models for customer service automation",
					"Reduced response time by 60% with intelligent routing",
					"Implemented RAG system for knowledge base",
				},
			},
		},
		Education: []Education{{Degree: "BS Computer Science", School: "UC Berkeley", Year: "2020", GPA: "3.8"}},
		Projects: []Project{
			{
				Name:         "Token-Gated Resume Dashboard",
				Description:  "Interactive portfolio with multi-agent chatbot",
				Technologies: []string{"FastAPI", "LangGraph", "React", "PostgreSQL"},
				Impact:       "Showcases full-stack and AI capabilities",
			},
			{
				Name:         "Distributed Task Queue",
				Description:  "High-performance task processing system",
				Technologies: []string{"Go", "Redis", "RabbitMQ"},
				Impact:       "Handles 100k+ tasks per minute",
			},
		},
		Interests: []string{"Open Source", "System Design", "AI Ethics", "Teaching"},
		Personality: Personality{
			WorkStyle: "Collaborative, detail-oriented, and proactive",
			Strengths: []string{"Problem-solving", "Communication", "Leadership"},
			Values:    []string{"Code quality", "User experience", "Continuous learning"},
		},
	}
}
