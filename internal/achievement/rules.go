package achievement

// DefaultRules returns the achievements seeded into an empty store.
func DefaultRules() []Rule {
	return []Rule{
		{
			Code:        "novice",
			Name:        "Novice",
			Description: "Complete 5 quests",
			Icon:        "🌟",
			Kind:        KindCompletedQuests,
			Threshold:   5,
		},
		{
			Code:        "seeker",
			Name:        "Seeker",
			Description: "Complete 20 quests",
			Icon:        "🔍",
			Kind:        KindCompletedQuests,
			Threshold:   20,
		},
		{
			Code:        "master",
			Name:        "Adventure Master",
			Description: "Complete 50 quests",
			Icon:        "🏆",
			Kind:        KindCompletedQuests,
			Threshold:   50,
		},
		{
			Code:           "team_player",
			Name:           "Team Player",
			Description:    "Complete 10 shared quests",
			Icon:           "👥",
			Kind:           KindSharedQuests,
			Threshold:      10,
			TierRestricted: true,
		},
	}
}
