package missions

// defaultMissions is the starter catalog. Descriptions are what the classifier checks
// a proof photo against, so they describe what a photo should show.
func defaultMissions() []Mission {
	return []Mission{
		{
			Title:        "Clean Your Street",
			Description:  "A street or sidewalk cleared of litter, with at least one filled garbage bag visible.",
			PointsReward: 50,
			Icon:         "broom",
		},
		{
			Title:        "Plant a Tree",
			Description:  "A newly planted sapling in fresh soil, with hands, a shovel or a watering can nearby.",
			PointsReward: 100,
			Icon:         "tree",
		},
		{
			Title:        "Sort Your Recycling",
			Description:  "Recyclables separated by material into different bins or bags.",
			PointsReward: 30,
			Icon:         "recycle",
		},
		{
			Title:        "Fix a Leak",
			Description:  "A repaired tap or pipe, or a container set up to collect rainwater.",
			PointsReward: 40,
			Icon:         "droplet",
		},
		{
			Title:        "Community Cleanup Drive",
			Description:  "A group of volunteers in a public place holding or standing beside collected waste bags.",
			PointsReward: 150,
			Icon:         "users",
		},
	}
}
