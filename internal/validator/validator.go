// Package validator provides ticker symbol normalization and the custom
// validation functions registered with Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MaxSymbolLength bounds a normalized ticker symbol.
const MaxSymbolLength = 12

// tickerRegex accepts uppercase alphanumerics with interior '.' or '-'
// (BRK-B, SHOP.TO). The first and last characters must be alphanumeric.
var tickerRegex = regexp.MustCompile(`^[A-Z0-9](?:[A-Z0-9.\-]*[A-Z0-9])?$`)

// NormalizeSymbol trims and uppercases a raw ticker symbol and reports
// whether the result is well-formed.
func NormalizeSymbol(raw string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" || len(symbol) > MaxSymbolLength {
		return symbol, false
	}
	return symbol, tickerRegex.MatchString(symbol)
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("ticker", validateTicker)
	}
}

func validateTicker(fl validator.FieldLevel) bool {
	_, ok := NormalizeSymbol(fl.Field().String())
	return ok
}
