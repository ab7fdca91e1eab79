package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TotalCategories is the size of the fixed evaluation dimension set.
const TotalCategories = 10

// Category is one fixed evaluation dimension.
type Category struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

var categories = [TotalCategories]Category{
	{ID: 1, Key: "expertise", Name: "Expertise"},
	{ID: 2, Key: "leadership", Name: "Leadership"},
	{ID: 3, Key: "vision", Name: "Vision"},
	{ID: 4, Key: "integrity", Name: "Integrity"},
	{ID: 5, Key: "ethics", Name: "Ethics"},
	{ID: 6, Key: "accountability", Name: "Accountability"},
	{ID: 7, Key: "transparency", Name: "Transparency"},
	{ID: 8, Key: "communication", Name: "Communication"},
	{ID: 9, Key: "responsiveness", Name: "Responsiveness"},
	{ID: 10, Key: "public_interest", Name: "Public interest"},
}

// Categories returns the ten categories ordered by id.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// AllCategoryIDs returns 1..TotalCategories.
func AllCategoryIDs() []int {
	ids := make([]int, TotalCategories)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

// CategoryByID resolves a category or reports ErrInvalidCategory.
func CategoryByID(id int) (Category, error) {
	if id < 1 || id > TotalCategories {
		return Category{}, fmt.Errorf("%w: %d", ErrInvalidCategory, id)
	}
	return categories[id-1], nil
}

// ParseCategorySet accepts "all", "1-10", "1,3,5" or mixes like "2-4,9".
// The result is sorted and free of duplicates.
func ParseCategorySet(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return AllCategoryIDs(), nil
	}

	seen := map[int]struct{}{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		for id := lo; id <= hi; id++ {
			seen[id] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: empty selection %q", ErrInvalidCategory, value)
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func parseRange(part string) (int, int, error) {
	bounds := strings.SplitN(part, "-", 2)
	lo, err := parseCategoryID(bounds[0])
	if err != nil {
		return 0, 0, err
	}
	if len(bounds) == 1 {
		return lo, lo, nil
	}

	hi, err := parseCategoryID(bounds[1])
	if err != nil {
		return 0, 0, err
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: descending range %q", ErrInvalidCategory, part)
	}
	return lo, hi, nil
}

func parseCategoryID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidCategory, raw)
	}
	if _, err := CategoryByID(id); err != nil {
		return 0, err
	}
	return id, nil
}
