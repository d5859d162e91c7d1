package question

// fixedEntry is a question with a known answer and three fixed distractors.
type fixedEntry struct {
	subject string
	answer  string
	wrong   [3]string
}

type spellingEntry struct {
	word    string
	letter  string
	options [4]string
}

var vowels = [4]string{"а", "о", "е", "и"}

var spellingWords = []spellingEntry{
	{word: "к_рова", letter: "о", options: vowels},
	{word: "с_бака", letter: "о", options: vowels},
	{word: "м_локо", letter: "о", options: vowels},
	{word: "яг_да", letter: "о", options: vowels},
	{word: "п_нал", letter: "е", options: vowels},
	{word: "т_традь", letter: "е", options: vowels},
	{word: "к_рандаш", letter: "а", options: vowels},
	{word: "в_рона", letter: "о", options: vowels},
	{word: "з_мля", letter: "е", options: vowels},
	{word: "д_ревня", letter: "е", options: vowels},
}

var englishWords = []fixedEntry{
	{subject: "cat", answer: "кошка", wrong: [3]string{"собака", "мышь", "птица"}},
	{subject: "dog", answer: "собака", wrong: [3]string{"кошка", "лошадь", "корова"}},
	{subject: "book", answer: "книга", wrong: [3]string{"тетрадь", "ручка", "карандаш"}},
	{subject: "apple", answer: "яблоко", wrong: [3]string{"груша", "банан", "апельсин"}},
	{subject: "house", answer: "дом", wrong: [3]string{"школа", "магазин", "парк"}},
	{subject: "water", answer: "вода", wrong: [3]string{"молоко", "сок", "чай"}},
	{subject: "sun", answer: "солнце", wrong: [3]string{"луна", "звезда", "небо"}},
	{subject: "tree", answer: "дерево", wrong: [3]string{"цветок", "трава", "куст"}},
	{subject: "friend", answer: "друг", wrong: [3]string{"враг", "учитель", "родитель"}},
	{subject: "school", answer: "школа", wrong: [3]string{"дом", "парк", "магазин"}},
}

var capitals = []fixedEntry{
	{subject: "Франция", answer: "Париж", wrong: [3]string{"Лондон", "Берлин", "Рим"}},
	{subject: "Италия", answer: "Рим", wrong: [3]string{"Париж", "Мадрид", "Афины"}},
	{subject: "Германия", answer: "Берлин", wrong: [3]string{"Вена", "Прага", "Варшава"}},
	{subject: "Испания", answer: "Мадрид", wrong: [3]string{"Барселона", "Лиссабон", "Рим"}},
	{subject: "Англия", answer: "Лондон", wrong: [3]string{"Эдинбург", "Дублин", "Париж"}},
	{subject: "Япония", answer: "Токио", wrong: [3]string{"Пекин", "Сеул", "Бангкок"}},
	{subject: "Китай", answer: "Пекин", wrong: [3]string{"Токио", "Сеул", "Шанхай"}},
	{subject: "Египет", answer: "Каир", wrong: [3]string{"Александрия", "Дубай", "Багдад"}},
	{subject: "Бразилия", answer: "Бразилиа", wrong: [3]string{"Рио-де-Жанейро", "Сан-Паулу", "Буэнос-Айрес"}},
	{subject: "Австралия", answer: "Канберра", wrong: [3]string{"Сидней", "Мельбурн", "Перт"}},
}

var sequences = []fixedEntry{
	{subject: "2, 4, 6, 8, ?", answer: "10", wrong: [3]string{"9", "11", "12"}},
	{subject: "1, 3, 5, 7, ?", answer: "9", wrong: [3]string{"8", "10", "11"}},
	{subject: "10, 20, 30, 40, ?", answer: "50", wrong: [3]string{"45", "55", "60"}},
	{subject: "3, 6, 9, 12, ?", answer: "15", wrong: [3]string{"13", "14", "18"}},
	{subject: "5, 10, 15, 20, ?", answer: "25", wrong: [3]string{"22", "30", "24"}},
	{subject: "1, 4, 9, 16, ?", answer: "25", wrong: [3]string{"20", "24", "30"}},
	{subject: "2, 6, 18, 54, ?", answer: "162", wrong: [3]string{"108", "216", "324"}},
	{subject: "100, 90, 80, 70, ?", answer: "60", wrong: [3]string{"65", "55", "50"}},
	{subject: "1, 2, 4, 8, ?", answer: "16", wrong: [3]string{"12", "14", "18"}},
	{subject: "7, 14, 21, 28, ?", answer: "35", wrong: [3]string{"32", "33", "36"}},
}

var fractions = []fixedEntry{
	{subject: "1/2 + 1/4 = ?", answer: "3/4", wrong: [3]string{"1/3", "2/3", "1/4"}},
	{subject: "50% от 100 = ?", answer: "50", wrong: [3]string{"25", "75", "100"}},
	{subject: "1/3 от 30 = ?", answer: "10", wrong: [3]string{"5", "15", "20"}},
	{subject: "25% от 80 = ?", answer: "20", wrong: [3]string{"15", "25", "30"}},
	{subject: "3/4 от 20 = ?", answer: "15", wrong: [3]string{"10", "12", "18"}},
	{subject: "10% от 200 = ?", answer: "20", wrong: [3]string{"10", "30", "40"}},
	{subject: "1/2 от 50 = ?", answer: "25", wrong: [3]string{"20", "30", "35"}},
	{subject: "2/3 от 60 = ?", answer: "40", wrong: [3]string{"30", "45", "50"}},
	{subject: "75% от 40 = ?", answer: "30", wrong: [3]string{"25", "35", "20"}},
	{subject: "1/5 от 100 = ?", answer: "20", wrong: [3]string{"10", "25", "30"}},
}
