package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateItem checks an item against its tags and the rating scale in use.
func ValidateItem(item CollectedItem, ratingScale int) error {
	if err := validate.Struct(item); err != nil {
		return fmt.Errorf("invalid item %q: %w", item.Title, err)
	}
	if ratingScale > 0 && item.Rating > ratingScale {
		return fmt.Errorf("invalid item %q: rating %d above scale %d", item.Title, item.Rating, ratingScale)
	}
	return nil
}

// ValidateScore checks a category score before it is stored.
func ValidateScore(score CategoryScore) error {
	if err := validate.Struct(score); err != nil {
		return fmt.Errorf("invalid category score: %w", err)
	}
	return nil
}

// ValidatePolitician checks a politician record before it is stored.
func ValidatePolitician(p Politician) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid politician: %w", err)
	}
	return nil
}
