package quest

import (
	"strings"
)

const promptTemplate = `Task: create a unique quest for the user.
The quest must be fun, doable within one day and motivate the person to go outside, talk to people, try something new or feel something.

Reply strictly with JSON of this shape:
{
  "title": "short, memorable, atmospheric quest name",
  "description": "2-3 sentences that intrigue and set the mood",
  "tasks": ["Step 1", "Step 2", "Step 3"],
  "reward": "an emotional wrap-up or a suggestion to share a photo or video report",
  "category": "one of: food, sport, art, travel, photo, communication, kindness, adventure",
  "difficulty": "easy, medium or hard",
  "estimated_minutes": 60
}

Requirements:
- The quest takes place in {{location}}.
- It must suit a single person but can be fun for a group too.
- No complicated or paid activities (for example buying theatre tickets).
- Use real places in {{location}} (parks, districts, embankments, metro stations, landmarks).
- Keep a light, motivating and friendly tone: inspiring, creative, adventurous, sometimes romantic or about self-development.
- Tasks must be a list of 2 to 5 concrete steps that are clear, doable and not tied to a specific time of day.
- estimated_minutes must be a positive whole number.
{{interests}}
{{elevated}}

Important: the quest must not be boring or too hard. It needs an emotion: a sense of adventure, discovery, freedom or connection.

REPLY WITH VALID JSON ONLY, NO EXTRA TEXT AND NO MARKDOWN.`

const elevatedClause = "- This is a PRO user: make the quest more challenging and creative, with a VIP touch."

// BuildPrompt renders the generation prompt for profile. The interests clause
// is present only when the profile lists interests, the elevated clause only
// for elevated-tier requesters.
func BuildPrompt(profile RequesterProfile) string {
	location := strings.TrimSpace(profile.Location)
	if location == "" {
		location = DefaultLocation
	}

	interestsClause := ""
	if interests := profile.interests(); len(interests) > 0 {
		interestsClause = "- Take the user's interests into account: " + strings.Join(interests, ", ") + "."
	}
	tierClause := ""
	if profile.IsElevatedTier {
		tierClause = elevatedClause
	}

	return strings.NewReplacer(
		"{{location}}", location,
		"{{interests}}", interestsClause,
		"{{elevated}}", tierClause,
	).Replace(promptTemplate)
}
