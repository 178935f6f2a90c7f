package app

import "buzz-quiz-service/internal/domain"

// BuiltInQuizzes ships with the service and cannot be edited.
func BuiltInQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          "builtin-general",
			Title:       "General Knowledge",
			Description: "A warm-up round for everyone.",
			Questions: []domain.QuizQuestion{
				{ID: "gk-1", Text: "What is the largest planet in our solar system?", Options: [4]string{"Mars", "Jupiter", "Saturn", "Neptune"}, CorrectIndex: 1, TimeLimit: 20},
				{ID: "gk-2", Text: "How many continents are there?", Options: [4]string{"5", "6", "7", "8"}, CorrectIndex: 2, TimeLimit: 15},
				{ID: "gk-3", Text: "Which element has the chemical symbol O?", Options: [4]string{"Oxygen", "Gold", "Osmium", "Iron"}, CorrectIndex: 0, TimeLimit: 15},
				{ID: "gk-4", Text: "In which year did the first person walk on the Moon?", Options: [4]string{"1965", "1972", "1959", "1969"}, CorrectIndex: 3, TimeLimit: 20},
				{ID: "gk-5", Text: "What is the capital of Australia?", Options: [4]string{"Sydney", "Canberra", "Melbourne", "Perth"}, CorrectIndex: 1, TimeLimit: 20},
				{ID: "gk-6", Text: "How many sides does a hexagon have?", Options: [4]string{"5", "6", "7", "8"}, CorrectIndex: 1, TimeLimit: 10},
			},
		},
		{
			ID:          "builtin-games",
			Title:       "Video Games",
			Description: "Console trivia.",
			Questions: []domain.QuizQuestion{
				{ID: "vg-1", Text: "Which company makes the PlayStation?", Options: [4]string{"Nintendo", "Microsoft", "Sony", "Sega"}, CorrectIndex: 2, TimeLimit: 15},
				{ID: "vg-2", Text: "What colour is the big buzzer on a Buzz controller?", Options: [4]string{"Blue", "Green", "Yellow", "Red"}, CorrectIndex: 3, TimeLimit: 10},
				{ID: "vg-3", Text: "Which plumber is Nintendo's mascot?", Options: [4]string{"Mario", "Luigi", "Wario", "Toad"}, CorrectIndex: 0, TimeLimit: 10},
			},
		},
	}
}
