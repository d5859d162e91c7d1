package question

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"smart-break-quiz/internal/domain"
)

// SetSize is the number of questions in every supported question set.
const SetSize = 10

// Game ids with a dedicated generator.
const (
	VariantArithmetic  = "1"
	VariantSpelling    = "2"
	VariantTranslation = "3"
	VariantCapitals    = "4"
	VariantSequences   = "5"
	VariantFractions   = "6"
)

// Generator builds question sets. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator seeds a generator from the wall clock.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource allows deterministic question sets in tests.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns the question set for a game id. Unknown ids get a single filler question.
func (g *Generator) Generate(gameID string) []domain.Question {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch gameID {
	case VariantArithmetic:
		return g.arithmetic()
	case VariantSpelling:
		return spelling()
	case VariantTranslation:
		return g.fromFixed(englishWords, func(word string) string { return "Переведи слово: " + word })
	case VariantCapitals:
		return g.fromFixed(capitals, func(country string) string { return "Столица " + country + "?" })
	case VariantSequences:
		return g.fromFixed(sequences, func(seq string) string { return "Продолжи последовательность: " + seq })
	case VariantFractions:
		return g.fromFixed(fractions, func(problem string) string { return problem })
	default:
		return []domain.Question{filler()}
	}
}

func (g *Generator) arithmetic() []domain.Question {
	questions := make([]domain.Question, 0, SetSize)
	for i := 0; i < SetSize; i++ {
		a := g.rnd.Intn(10) + 1
		b := g.rnd.Intn(10) + 1
		correct := a * b

		values := []int{correct}
		values = append(values, g.distractor(values, func() int { return correct + g.rnd.Intn(5) + 1 }))
		values = append(values, g.distractor(values, func() int { return correct - g.rnd.Intn(5) - 1 }))
		values = append(values, g.distractor(values, func() int { return correct + g.rnd.Intn(10) + 5 }))

		options := make([]string, len(values))
		for j, v := range values {
			options[j] = strconv.Itoa(v)
		}
		g.shuffle(options)

		questions = append(questions, domain.Question{
			Prompt:        strconv.Itoa(a) + " × " + strconv.Itoa(b) + " = ?",
			Options:       options,
			CorrectAnswer: indexOf(options, strconv.Itoa(correct)),
		})
	}
	return questions
}

// distractor draws from next until the value is non-negative and not already taken.
func (g *Generator) distractor(taken []int, next func() int) int {
	for {
		v := next()
		if v < 0 {
			continue
		}
		if !containsInt(taken, v) {
			return v
		}
	}
}

func spelling() []domain.Question {
	questions := make([]domain.Question, 0, len(spellingWords))
	for _, w := range spellingWords {
		options := w.options[:]
		questions = append(questions, domain.Question{
			Prompt:        "Какая буква пропущена в слове: " + w.word + "?",
			Options:       append([]string(nil), options...),
			CorrectAnswer: indexOf(options, w.letter),
		})
	}
	return questions
}

func (g *Generator) fromFixed(entries []fixedEntry, prompt func(string) string) []domain.Question {
	questions := make([]domain.Question, 0, len(entries))
	for _, e := range entries {
		options := []string{e.answer, e.wrong[0], e.wrong[1], e.wrong[2]}
		g.shuffle(options)
		questions = append(questions, domain.Question{
			Prompt:        prompt(e.subject),
			Options:       options,
			CorrectAnswer: indexOf(options, e.answer),
		})
	}
	return questions
}

func filler() domain.Question {
	return domain.Question{
		Prompt:        "Начни играть!",
		Options:       []string{"OK", "Вперёд!", "Играть", "Старт"},
		CorrectAnswer: 0,
	}
}

// shuffle is a Fisher–Yates shuffle in place.
func (g *Generator) shuffle(options []string) {
	for i := len(options) - 1; i > 0; i-- {
		j := g.rnd.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
}

func indexOf(options []string, value string) int {
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return -1
}

func containsInt(values []int, v int) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
