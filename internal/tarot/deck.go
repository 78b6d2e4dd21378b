// Package tarot holds the static card catalog and the random draw used when a
// client does not supply its own spread.
package tarot

import "math/rand"

// MaxCards caps a single spread.
const MaxCards = 10

// DefaultCards is the spread size when the client does not ask for one.
const DefaultCards = 3

var majorArcana = []string{
	"Шут", "Маг", "Верховная Жрица", "Императрица", "Император",
	"Иерофант", "Влюблённые", "Колесница", "Сила", "Отшельник",
	"Колесо Фортуны", "Справедливость", "Повешенный", "Смерть",
	"Умеренность", "Дьявол", "Башня", "Звезда", "Луна", "Солнце",
	"Суд", "Мир",
}

var suits = []string{"Жезлов", "Кубков", "Мечей", "Пентаклей"}

var ranks = []string{
	"Туз", "Двойка", "Тройка", "Четвёрка", "Пятёрка", "Шестёрка",
	"Семёрка", "Восьмёрка", "Девятка", "Десятка", "Паж", "Рыцарь",
	"Королева", "Король",
}

var deck = buildDeck()

func buildDeck() []string {
	cards := make([]string, 0, len(majorArcana)+len(suits)*len(ranks))
	cards = append(cards, majorArcana...)
	for _, suit := range suits {
		for _, rank := range ranks {
			cards = append(cards, rank+" "+suit)
		}
	}
	return cards
}

// Deck returns a copy of the full 78-card catalog.
func Deck() []string {
	cards := make([]string, len(deck))
	copy(cards, deck)
	return cards
}

// Draw returns n distinct cards in drawn order. n is clamped to the deck.
func Draw(n int) []string {
	if n < 1 {
		n = 1
	}
	if n > len(deck) {
		n = len(deck)
	}
	cards := make([]string, n)
	for i, j := range rand.Perm(len(deck))[:n] {
		cards[i] = deck[j]
	}
	return cards
}

// typeLabels maps a reading type to the Russian wording used in prompts.
// Unknown types flow through untranslated.
var typeLabels = map[string]string{
	"classic": "классический расклад",
	"love":    "расклад на любовь",
	"career":  "расклад на карьеру",
	"yes_no":  "расклад «да или нет»",
}

// TypeLabel translates a reading type for prompt text, passing unknown
// values through as-is.
func TypeLabel(readingType string) string {
	if label, ok := typeLabels[readingType]; ok {
		return label
	}
	return readingType
}
