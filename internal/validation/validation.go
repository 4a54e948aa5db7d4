package validation

import (
	"errors"
	"strings"
)

var (
	// ErrTitleRequired is returned when a post title is missing
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong is returned when a post title exceeds 200 characters
	ErrTitleTooLong = errors.New("title must be at most 200 characters")

	// ErrDescriptionRequired is returned when a post description is missing
	ErrDescriptionRequired = errors.New("description is required")

	// ErrMessageTooLong is returned when an invitation message exceeds 1000 characters
	ErrMessageTooLong = errors.New("message must be at most 1000 characters")

	// ErrTooManySkills is returned when a skill list exceeds 50 entries
	ErrTooManySkills = errors.New("at most 50 skills are allowed")

	// ErrSkillTooLong is returned when a single skill exceeds 100 characters
	ErrSkillTooLong = errors.New("each skill must be at most 100 characters")
)

// ValidateTitle validates a post title: required, at most 200 characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	return nil
}

// ValidateDescription validates a post description.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

// ValidateMessage validates an optional invitation message.
func ValidateMessage(message string) error {
	if len(message) > 1000 {
		return ErrMessageTooLong
	}
	return nil
}

// ValidateSkills validates a skill list.
func ValidateSkills(skills []string) error {
	if len(skills) > 50 {
		return ErrTooManySkills
	}
	for _, skill := range skills {
		if len(skill) > 100 {
			return ErrSkillTooLong
		}
	}
	return nil
}

// NormalizeSkills trims whitespace and drops empty entries. Casing is
// preserved; skill matching compares case-insensitively.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		out = append(out, skill)
	}
	return out
}
