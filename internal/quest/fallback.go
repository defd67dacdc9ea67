package quest

import (
	"strings"
)

// DefaultLocation is the placeholder city written into the fallback quests.
const DefaultLocation = "Moscow"

var standardPool = []QuestSpec{
	{
		Title:       "Purple Hunt",
		Description: "Today your favourite colour is purple! Prove it to Moscow.",
		Tasks: []string{
			"Find and photograph something purple within 100 metres of your home",
			"Buy something purple (ice cream, a flower, a postcard)",
			"Find someone wearing purple and ask for a selfie together",
			"Take a sunset photo with purple tones",
			"Share your best purple shot with #QuestGO",
		},
		Reward:           "Make a collage of every purple find and feel like a real colour hunter!",
		Category:         CategoryPhoto,
		Difficulty:       DifficultyEasy,
		EstimatedMinutes: 60,
	},
	{
		Title:       "Coffee Detective",
		Description: "Become the coffee expert of your Moscow neighbourhood in a single day!",
		Tasks: []string{
			"Find 3 coffee shops within 1 km of you in Moscow",
			"Order a different drink in each (cappuccino, latte, raf)",
			"Ask the barista about the most unusual order of the day",
			"Photograph the most beautiful cup",
			"Leave a kind review for your favourite one",
		},
		Reward:           "Now you know where the best coffee in your area is brewed!",
		Category:         CategoryFood,
		Difficulty:       DifficultyMedium,
		EstimatedMinutes: 120,
	},
	{
		Title:       "Random Kindness",
		Description: "Today you are a secret kindness superhero of Moscow. Nobody must know!",
		Tasks: []string{
			"Buy a coffee for a stranger and leave before they can thank you",
			"Leave a note with a compliment where someone will find it",
			"Help someone carry heavy bags",
			"Leave a book on a bench with a note saying \"Take me\"",
			"Feed a stray animal",
		},
		Reward:           "Write down how you feel after these good deeds. That is your superpower!",
		Category:         CategoryKindness,
		Difficulty:       DifficultyMedium,
		EstimatedMinutes: 90,
	},
}

var elevatedPool = []QuestSpec{
	{
		Title:       "VIP: Gastronomic Adventure",
		Description: "Today you are a Michelin critic in Moscow. Taste five cuisines of the world!",
		Tasks: []string{
			"Visit 5 places with different cuisines in Moscow (Italian, Japanese, Georgian, Indian, French)",
			"Order the most popular dish in each",
			"Keep a taste diary and describe every dish in one word",
			"Take an aesthetic photo of each dish",
			"Pick your top 3 and share them in stories",
		},
		Reward:           "Build your own map of the city's gastronomic discoveries!",
		Category:         CategoryFood,
		Difficulty:       DifficultyHard,
		EstimatedMinutes: 240,
	},
	{
		Title:       "VIP: 80s Photo Shoot",
		Description: "Become a retro star of Moscow for one day!",
		Tasks: []string{
			"Find vintage 80s clothes (thrift shops, your parents' wardrobe)",
			"Put together a look with bright accessories",
			"Find 80s-style spots in Moscow (old buildings, Soviet architecture)",
			"Run a photo shoot with friends or passers-by",
			"Make a retro collage and post it with 80s music",
		},
		Reward:           "The time machine is ready! Keep these photos as a souvenir of your trip to the past.",
		Category:         CategoryPhoto,
		Difficulty:       DifficultyHard,
		EstimatedMinutes: 180,
	},
}

// fallbackPool returns the quests a requester may receive without the backend.
func fallbackPool(elevated bool) []QuestSpec {
	if !elevated {
		return standardPool
	}
	pool := make([]QuestSpec, 0, len(standardPool)+len(elevatedPool))
	pool = append(pool, standardPool...)
	return append(pool, elevatedPool...)
}

// localize copies spec with the placeholder city replaced by location.
func localize(spec QuestSpec, location string) QuestSpec {
	out := spec.clone()
	location = strings.TrimSpace(location)
	if location == "" || location == DefaultLocation {
		return out
	}
	out.Description = strings.ReplaceAll(out.Description, DefaultLocation, location)
	for i, task := range out.Tasks {
		out.Tasks[i] = strings.ReplaceAll(task, DefaultLocation, location)
	}
	return out
}
