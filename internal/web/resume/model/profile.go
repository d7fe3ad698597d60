// Package model contains the résumé models: the profile singleton and skills.
package model

import "time"

// Profile the résumé, stored as the singleton profile/main
type Profile struct {
	Name         string        `firestore:"name" json:"name"`
	Title        string        `firestore:"title" json:"title"`
	Tagline      string        `firestore:"tagline" json:"tagline"`
	Bio          string        `firestore:"bio" json:"bio"`
	PhotoURL     string        `firestore:"photoUrl" json:"photoUrl"`
	Stats        []StatItem    `firestore:"stats" json:"stats"`
	Career       []CareerEntry `firestore:"career" json:"career"`
	Competencies []Competency  `firestore:"competencies" json:"competencies"`
	Education    []Education   `firestore:"education" json:"education"`
	ChartData    ChartData     `firestore:"chartData" json:"chartData"`
	Contact      ContactInfo   `firestore:"contact" json:"contact"`
	UpdatedAt    time.Time     `firestore:"updatedAt" json:"updatedAt"`
}

// StatItem a headline number such as "15+ years"
type StatItem struct {
	Number string `firestore:"number" json:"number"`
	Label  string `firestore:"label" json:"label"`
}

// CareerEntry one position
type CareerEntry struct {
	Period     string   `firestore:"period" json:"period"`
	Company    string   `firestore:"company" json:"company"`
	Division   string   `firestore:"division" json:"division"`
	Role       string   `firestore:"role" json:"role"`
	Highlights []string `firestore:"highlights" json:"highlights"`
}

// Education one degree
type Education struct {
	Period string `firestore:"period" json:"period"`
	School string `firestore:"school" json:"school"`
	Degree string `firestore:"degree" json:"degree"`
	GPA    string `firestore:"gpa" json:"gpa"`
}

// Competency a labeled strength
type Competency struct {
	Label  string `firestore:"label" json:"label"`
	Detail string `firestore:"detail" json:"detail"`
}

// Milestone a dated career achievement
type Milestone struct {
	Year        string `firestore:"year" json:"year"`
	Company     string `firestore:"company" json:"company"`
	Metric      string `firestore:"metric" json:"metric"`
	Achievement string `firestore:"achievement" json:"achievement"`
	IsMBA       bool   `firestore:"isMba" json:"isMba,omitempty"`
}

// IndustryExperience years spent in one industry
type IndustryExperience struct {
	Name  string  `firestore:"name" json:"name"`
	Years float64 `firestore:"years" json:"years"`
}

// CompetencyEvidence backs a competency with evidence
type CompetencyEvidence struct {
	Label    string `firestore:"label" json:"label"`
	Evidence string `firestore:"evidence" json:"evidence"`
}

// CompetencyGroup titled group of competencies
type CompetencyGroup struct {
	Title string               `firestore:"title" json:"title"`
	Items []CompetencyEvidence `firestore:"items" json:"items"`
}

// ChartData datasets the front end plots
type ChartData struct {
	Milestones         []Milestone          `firestore:"milestones" json:"milestones"`
	IndustryExperience []IndustryExperience `firestore:"industryExperience" json:"industryExperience"`
	CompetencyGroups   []CompetencyGroup    `firestore:"competencyGroups" json:"competencyGroups"`
}

// ContactInfo public contact details
type ContactInfo struct {
	Email    string `firestore:"email" json:"email"`
	Phone    string `firestore:"phone" json:"phone"`
	Location string `firestore:"location" json:"location"`
	LinkedIn string `firestore:"linkedin" json:"linkedin"`
}
