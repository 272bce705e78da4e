package viewmodel

import (
	"fmt"
	"strings"
	"time"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
)

// Methods are the choices offered by the method filter; "" means any.
var Methods = []string{"", "GET", "POST", "PUT", "PATCH", "DELETE"}

// FilterInput is the raw text of the filter bar.
type FilterInput struct {
	From     string
	To       string
	Endpoint string
	Method   string
	Status   string
	User     string
}

// DefaultFilterInput covers the 24 hours up to now.
func DefaultFilterInput(now time.Time) FilterInput {
	return FilterInput{
		From: format.InputValue(now.Add(-24 * time.Hour)),
		To:   format.InputValue(now),
	}
}

// Filter converts the inputs into list-endpoint filters. Dates are read in
// loc and sent as UTC.
func (in FilterInput) Filter(loc *time.Location) (model.Filter, error) {
	f := model.Filter{
		Endpoint: strings.TrimSpace(in.Endpoint),
		Method:   strings.ToUpper(strings.TrimSpace(in.Method)),
		Status:   strings.TrimSpace(in.Status),
		User:     strings.TrimSpace(in.User),
	}

	var err error
	if f.From, err = isoInput(in.From, loc); err != nil {
		return model.Filter{}, fmt.Errorf("from: %w", err)
	}
	if f.To, err = isoInput(in.To, loc); err != nil {
		return model.Filter{}, fmt.Errorf("to: %w", err)
	}
	return f, nil
}

func isoInput(s string, loc *time.Location) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, err := format.ParseLocalInput(s, loc)
	if err != nil {
		return "", err
	}
	return format.ISO(t), nil
}
