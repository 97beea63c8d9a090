// Package card tokenizes credit cards through Stripe before a charge
// is handed to the payment processor. Raw card numbers never touch
// the database.
package card

import (
	"errors"
	"fmt"
	"os"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

var ErrInvalidCard = errors.New("invalid card")

type Input struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
	Holder   string `json:"holder"`
}

type Token struct {
	Token    string `json:"token"`
	CardType string `json:"card_type"`
	LastFour string `json:"last_four"`
}

type Service interface {
	Tokenize(input Input) (*Token, error)
}

type service struct{}

func NewService() Service {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return &service{}
}

func (s *service) Tokenize(input Input) (*Token, error) {
	if len(input.Number) < 13 || !luhnValid(input.Number) {
		return nil, ErrInvalidCard
	}

	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(input.Number),
			ExpMonth: stripe.String(input.ExpMonth),
			ExpYear:  stripe.String(input.ExpYear),
			CVC:      stripe.String(input.CVC),
			Name:     stripe.String(input.Holder),
		},
	}
	stripeToken, err := token.New(params)
	if err != nil {
		return nil, fmt.Errorf("card tokenization failed: %w", err)
	}

	return &Token{
		Token:    stripeToken.ID,
		CardType: string(stripeToken.Card.Brand),
		LastFour: input.Number[len(input.Number)-4:],
	}, nil
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
