package models

// Mode-dependent structure documents persisted on Note.Structure.
// Normalize coerces every array field to a non-nil slice so the stored
// JSON always has a stable shape for its mode.

type MeetingActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
}

type MeetingStructure struct {
	Summary     string              `json:"summary"`
	KeyPoints   []string            `json:"keyPoints"`
	Decisions   []string            `json:"decisions"`
	ActionItems []MeetingActionItem `json:"actionItems"`
	Questions   []string            `json:"questions"`
}

func (s *MeetingStructure) Normalize() {
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}
	if s.Decisions == nil {
		s.Decisions = []string{}
	}
	if s.ActionItems == nil {
		s.ActionItems = []MeetingActionItem{}
	}
	if s.Questions == nil {
		s.Questions = []string{}
	}
}

type CoreIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Connections []string `json:"connections"`
}

type ExpansionOpportunity struct {
	IdeaTitle  string   `json:"ideaTitle"`
	Directions []string `json:"directions"`
}

type NextStep struct {
	Step     string `json:"step"`
	Priority string `json:"priority"`
}

type BrainstormStructure struct {
	Summary                string                 `json:"summary"`
	CoreIdeas              []CoreIdea             `json:"coreIdeas"`
	ExpansionOpportunities []ExpansionOpportunity `json:"expansionOpportunities"`
	ResearchQuestions      []string               `json:"researchQuestions"`
	NextSteps              []NextStep             `json:"nextSteps"`
	Obstacles              []string               `json:"obstacles"`
	CreativePrompts        []string               `json:"creativePrompts"`
}

func (s *BrainstormStructure) Normalize() {
	if s.CoreIdeas == nil {
		s.CoreIdeas = []CoreIdea{}
	}
	for i := range s.CoreIdeas {
		if s.CoreIdeas[i].Connections == nil {
			s.CoreIdeas[i].Connections = []string{}
		}
	}
	if s.ExpansionOpportunities == nil {
		s.ExpansionOpportunities = []ExpansionOpportunity{}
	}
	for i := range s.ExpansionOpportunities {
		if s.ExpansionOpportunities[i].Directions == nil {
			s.ExpansionOpportunities[i].Directions = []string{}
		}
	}
	if s.ResearchQuestions == nil {
		s.ResearchQuestions = []string{}
	}
	if s.NextSteps == nil {
		s.NextSteps = []NextStep{}
	}
	if s.Obstacles == nil {
		s.Obstacles = []string{}
	}
	if s.CreativePrompts == nil {
		s.CreativePrompts = []string{}
	}
}
