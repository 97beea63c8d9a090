package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhnValidation(t *testing.T) {
	valid := []string{
		"4242424242424242", // visa test number
		"5555555555554444", // mastercard test number
		"378282246310005",  // amex test number
	}
	for _, number := range valid {
		assert.True(t, luhnValid(number), "expected %s to pass", number)
	}

	invalid := []string{
		"4242424242424241",
		"1234567890123456",
		"4242 4242 4242 4242", // separators are the caller's problem
		"abcdefabcdefabcd",
	}
	for _, number := range invalid {
		assert.False(t, luhnValid(number), "expected %s to fail", number)
	}
}

func TestTokenizeRejectsInvalidNumbers(t *testing.T) {
	svc := NewService()

	_, err := svc.Tokenize(Input{Number: "4242"})
	assert.ErrorIs(t, err, ErrInvalidCard)

	_, err = svc.Tokenize(Input{Number: "4242424242424241", ExpMonth: "12", ExpYear: "2030", CVC: "123"})
	assert.ErrorIs(t, err, ErrInvalidCard)
}
