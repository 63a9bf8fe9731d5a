package models

import (
	"strings"
	"time"
)

type Job struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Company      string    `gorm:"not null" json:"company"`
	Location     string    `gorm:"not null" json:"location"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Requirements string    `gorm:"type:text;not null" json:"requirements"` // comma separated
	Deadline     time.Time `gorm:"not null" json:"deadline"`
	PostedBy     string    `gorm:"size:36;index;not null" json:"postedBy"`
	CreatedAt    time.Time `gorm:"index;not null" json:"createdAt"`
}

// RequirementTags splits the delimited requirements field into trimmed tags.
func (j *Job) RequirementTags() []string {
	var tags []string
	for _, part := range strings.FieldsFunc(j.Requirements, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	}) {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
