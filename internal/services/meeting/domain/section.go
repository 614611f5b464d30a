package domain

// Section identifies one segment of the Level 10 meeting agenda.
type Section string

const (
	// SectionSegue opens the meeting with personal and professional wins.
	SectionSegue Section = "segue"
	// SectionScorecard reviews the weekly measurables.
	SectionScorecard Section = "scorecard"
	// SectionRocks reviews quarterly rock status.
	SectionRocks Section = "rocks"
	// SectionHeadlines shares customer and employee headlines.
	SectionHeadlines Section = "headlines"
	// SectionTodos reviews last week's to-do completion.
	SectionTodos Section = "todos"
	// SectionIDS identifies, discusses, and solves issues.
	SectionIDS Section = "ids"
	// SectionConclude recaps to-dos and rates the meeting.
	SectionConclude Section = "conclude"
)

// Sections returns every agenda section in canonical meeting order.
func Sections() []Section {
	return []Section{
		SectionSegue,
		SectionScorecard,
		SectionRocks,
		SectionHeadlines,
		SectionTodos,
		SectionIDS,
		SectionConclude,
	}
}

// IsValid reports whether the section is a known agenda segment.
func (s Section) IsValid() bool {
	switch s {
	case SectionSegue, SectionScorecard, SectionRocks, SectionHeadlines,
		SectionTodos, SectionIDS, SectionConclude:
		return true
	}
	return false
}

// String returns the section name.
func (s Section) String() string {
	return string(s)
}
