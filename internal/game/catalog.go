package game

import "smart-break-quiz/internal/domain"

// AllCategories is the catalog filter value that matches every game.
const AllCategories = "Все"

var catalog = []domain.Game{
	{ID: "1", Title: "Таблица умножения", Category: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Icon: "🔢", Description: "Тренируй устный счёт"},
	{ID: "2", Title: "Словарные слова", Category: domain.SubjectRussian, Difficulty: domain.DifficultyMedium, Icon: "📝", Description: "Запоминай правописание"},
	{ID: "3", Title: "English Words", Category: domain.SubjectEnglish, Difficulty: domain.DifficultyEasy, Icon: "🇬🇧", Description: "Пополни словарный запас"},
	{ID: "4", Title: "Столицы мира", Category: domain.SubjectGeography, Difficulty: domain.DifficultyHard, Icon: "🌍", Description: "Изучай страны и города"},
	{ID: "5", Title: "Логические цепочки", Category: domain.SubjectLogic, Difficulty: domain.DifficultyMedium, Icon: "🧩", Description: "Развивай мышление"},
	{ID: "6", Title: "Дроби и проценты", Category: domain.SubjectMath, Difficulty: domain.DifficultyHard, Icon: "➗", Description: "Реши сложные задачи"},
	{ID: "7", Title: "Части речи", Category: domain.SubjectRussian, Difficulty: domain.DifficultyMedium, Icon: "📚", Description: "Определяй и различай"},
	{ID: "8", Title: "Grammar Quest", Category: domain.SubjectEnglish, Difficulty: domain.DifficultyMedium, Icon: "✍️", Description: "Практикуй грамматику"},
	{ID: "9", Title: "Исторические даты", Category: domain.SubjectHistory, Difficulty: domain.DifficultyHard, Icon: "📜", Description: "Запоминай события"},
	{ID: "10", Title: "Геометрические фигуры", Category: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Icon: "🔺", Description: "Изучай свойства фигур"},
	{ID: "11", Title: "Синонимы и антонимы", Category: domain.SubjectRussian, Difficulty: domain.DifficultyMedium, Icon: "🔄", Description: "Расширяй лексикон"},
	{ID: "12", Title: "Irregular Verbs", Category: domain.SubjectEnglish, Difficulty: domain.DifficultyHard, Icon: "⚡", Description: "Выучи неправильные глаголы"},
}

// All returns every catalog game in display order.
func All() []domain.Game {
	out := make([]domain.Game, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a game by id.
func Lookup(id string) (domain.Game, error) {
	for _, g := range catalog {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.Game{}, domain.ErrGameNotFound
}

// ByCategory filters the catalog; an empty category or AllCategories returns everything.
func ByCategory(category string) []domain.Game {
	if category == "" || category == AllCategories {
		return All()
	}
	out := []domain.Game{}
	for _, g := range catalog {
		if g.Category == category {
			out = append(out, g)
		}
	}
	return out
}

// Categories lists the filter values, starting with AllCategories.
func Categories() []string {
	return append([]string{AllCategories}, domain.Subjects...)
}
