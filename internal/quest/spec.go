package quest

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Difficulty grades how demanding a quest is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category tags the kind of activity a quest is about.
type Category string

const (
	CategoryFood          Category = "food"
	CategorySport         Category = "sport"
	CategoryArt           Category = "art"
	CategoryTravel        Category = "travel"
	CategoryPhoto         Category = "photo"
	CategoryCommunication Category = "communication"
	CategoryKindness      Category = "kindness"
	CategoryAdventure     Category = "adventure"
)

var categories = []Category{
	CategoryFood,
	CategorySport,
	CategoryArt,
	CategoryTravel,
	CategoryPhoto,
	CategoryCommunication,
	CategoryKindness,
	CategoryAdventure,
}

var categoryIcons = map[Category]string{
	CategoryFood:          "🍔",
	CategorySport:         "⚽",
	CategoryArt:           "🎨",
	CategoryTravel:        "✈️",
	CategoryPhoto:         "📸",
	CategoryCommunication: "💬",
	CategoryKindness:      "💚",
	CategoryAdventure:     "🗺️",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// CategoryInfo is a category with its display name.
type CategoryInfo struct {
	ID   Category `json:"id"`
	Name string   `json:"name"`
	Icon string   `json:"icon"`
}

// Categories lists every quest category in display order.
func Categories() []CategoryInfo {
	title := cases.Title(language.English)
	out := make([]CategoryInfo, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryInfo{ID: c, Name: title.String(string(c)), Icon: categoryIcons[c]})
	}
	return out
}

// QuestSpec is the generated content of a quest.
type QuestSpec struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Tasks            []string   `json:"tasks"`
	Reward           string     `json:"reward"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
}

func (s QuestSpec) clone() QuestSpec {
	s.Tasks = slices.Clone(s.Tasks)
	return s
}

// RequesterProfile is what the generator knows about the user asking for a quest.
type RequesterProfile struct {
	Location       string
	Interests      []string
	IsElevatedTier bool
}

func (p RequesterProfile) interests() []string {
	out := make([]string, 0, len(p.Interests))
	for _, interest := range p.Interests {
		if trimmed := strings.TrimSpace(interest); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
