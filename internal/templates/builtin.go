// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import "strings"

// Category groups templates by writing style.
type Category string

const (
	CategoryGeneral   Category = "General"
	CategoryAcademic  Category = "Academic"
	CategoryBusiness  Category = "Business"
	CategoryCasual    Category = "Casual"
	CategoryTechnical Category = "Technical"
	CategoryCreative  Category = "Creative"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryGeneral, CategoryAcademic, CategoryBusiness,
		CategoryCasual, CategoryTechnical, CategoryCreative,
	}
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultID is the template used when none is configured.
const DefaultID = "default"

// outputRule keeps the model from wrapping the correction in commentary.
const outputRule = " Do not add explanations, notes, or extra output. Only return the corrected text."

var builtIns = []Template{
	{
		ID:          DefaultID,
		Name:        "Default",
		Description: "General proofreading for non-native English speakers",
		Prompt: "You are an English proofreading assistant for non-native speakers. Correct grammar, spelling, " +
			"punctuation, and word choice errors. Pay special attention to: articles (a/an/the), prepositions, " +
			"verb tenses, subject-verb agreement, plural forms, and natural English phrasing. Preserve the " +
			"original meaning, tone, and formatting exactly." + outputRule,
		Category: CategoryGeneral,
		BuiltIn:  true,
	},
	{
		ID:          "academic",
		Name:        "Academic Writing",
		Description: "Formal academic and research writing",
		Prompt: "You are an academic writing assistant. Correct grammar, spelling, and punctuation while " +
			"maintaining formal academic tone. Focus on: precise terminology, clear argumentation, proper " +
			"citation format preservation, subject-verb agreement, and scholarly language. Ensure clarity and " +
			"conciseness while preserving the original meaning and academic rigor." + outputRule,
		Category: CategoryAcademic,
		BuiltIn:  true,
	},
	{
		ID:          "business",
		Name:        "Business Communication",
		Description: "Professional emails and business documents",
		Prompt: "You are a business writing assistant. Correct grammar, spelling, and punctuation while " +
			"maintaining professional tone. Focus on: clarity, conciseness, professional language, proper email " +
			"etiquette, and business terminology. Ensure the message is clear, polite, and action-oriented while " +
			"preserving the original intent." + outputRule,
		Category: CategoryBusiness,
		BuiltIn:  true,
	},
	{
		ID:          "casual",
		Name:        "Casual Writing",
		Description: "Informal messages and social media",
		Prompt: "You are a casual writing assistant. Correct obvious grammar and spelling errors while preserving " +
			"informal tone and style. Maintain conversational language, contractions, and casual expressions. " +
			"Only fix clear mistakes without making the text overly formal." + outputRule,
		Category: CategoryCasual,
		BuiltIn:  true,
	},
	{
		ID:          "technical",
		Name:        "Technical Documentation",
		Description: "Technical writing and documentation",
		Prompt: "You are a technical writing assistant. Correct grammar, spelling, and punctuation while " +
			"maintaining technical accuracy. Focus on: precise terminology, clear instructions, consistent " +
			"formatting, proper use of technical terms, and logical flow. Preserve code snippets, commands, and " +
			"technical specifications exactly." + outputRule,
		Category: CategoryTechnical,
		BuiltIn:  true,
	},
	{
		ID:          "creative",
		Name:        "Creative Writing",
		Description: "Stories, articles, and creative content",
		Prompt: "You are a creative writing assistant. Correct grammar, spelling, and punctuation while " +
			"preserving the author's unique voice and style. Focus on: narrative flow, dialogue punctuation, " +
			"descriptive language, and stylistic choices. Maintain creative expressions and intentional " +
			"stylistic devices while fixing clear errors." + outputRule,
		Category: CategoryCreative,
		BuiltIn:  true,
	},
}

// BuiltIns returns a copy of the built-in templates.
func BuiltIns() []Template {
	out := make([]Template, len(builtIns))
	copy(out, builtIns)
	return out
}
