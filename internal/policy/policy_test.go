package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterForbiddenTopics(t *testing.T) {
	filter := New("")

	forbidden := []string{
		"Когда я умру?",
		"СКОРО ЛИ НАСТУПИТ СМЕРТЬ?",
		"Чем болен мой отец?",
		"Какой у меня диагноз?",
		"Он умер или жив?",
		"Will I die alone?",
		"Is this illness terminal?",
		"thoughts about suicide",
	}
	for _, question := range forbidden {
		assert.True(t, filter.IsForbidden(question), "should reject: %s", question)
	}

	allowed := []string{
		"Что меня ждёт в любви?",
		"Стоит ли менять работу в этом году?",
		"Получу ли я больше денег?",
		"Выйду ли я замуж?",
		"What diet suits me best?",
		"How can I improve my skills?",
		"I keep studying tarot",
		"",
	}
	for _, question := range allowed {
		assert.False(t, filter.IsForbidden(question), "should allow: %s", question)
	}
}

func TestFilterExtraTopics(t *testing.T) {
	filter := New("казино | ставки на спорт")

	assert.True(t, filter.IsForbidden("Выиграю ли я в КАЗИНО?"))
	assert.True(t, filter.IsForbidden("стоит ли делать ставки на спорт"))
	assert.False(t, New("").IsForbidden("Выиграю ли я в казино?"))
}
