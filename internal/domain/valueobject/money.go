package valueobject

import (
	"fmt"
	"math"
	"strings"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

const DefaultCurrency = "USD"

// AmountScale - число знаков после запятой, которое хранит колонка amount.
const AmountScale = 4

var amountFactor = math.Pow10(AmountScale)

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.Validation("сумма не может быть отрицательной")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.Validation("некорректная сумма")
	}
	scaled := amount * amountFactor
	if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return Money{}, apperror.Validation(fmt.Sprintf("сумма может содержать не более %d знаков после запятой", AmountScale))
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Money{}, apperror.Validation("код валюты должен состоять из трёх букв")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}

type ValuationType string

const (
	ValuationTypeFixed      ValuationType = "fixed"
	ValuationTypeRange      ValuationType = "range"
	ValuationTypePercentage ValuationType = "percentage"
)

func (t ValuationType) IsValid() bool {
	switch t {
	case ValuationTypeFixed, ValuationTypeRange, ValuationTypePercentage:
		return true
	}
	return false
}
