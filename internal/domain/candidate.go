package domain

// Candidate is a curated talent record. Created by discovery/import,
// read-only during outreach.
type Candidate struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	ProfileURL      string   `json:"profileUrl"` // unique
	Title           string   `json:"title"`
	CurrentCompany  string   `json:"currentCompany"`
	Skills          []string `json:"skills"`
	Location        string   `json:"location"`
	Rating          int      `json:"rating"` // 1..5
	Tags            []string `json:"tags"`
	ExperienceYears int      `json:"experienceYears"`
}
