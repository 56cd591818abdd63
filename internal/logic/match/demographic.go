package match

import (
	"strconv"
	"strings"

	"github.com/adlytic/addecision/internal/models"
)

// Demographics scores demographic compatibility. Age ranges accept "min-max"
// and open-ended "min+" forms; a malformed range fails only the age
// sub-check. Gender, income bracket and education compare by exact
// (case-insensitive) equality; income brackets carry no ordering semantics.
func Demographics(target *models.DemographicCriteria, user *models.UserDemographics) models.DimensionResult {
	if target == nil || user == nil {
		return neutral("no demographic targeting or no user demographics")
	}

	details := make(map[string]string)
	var sum float64
	checks := 0

	if target.AgeRange != "" && user.Age > 0 {
		checks++
		if ageInRange(user.Age, target.AgeRange) {
			sum++
			details["age"] = "match"
		} else {
			details["age"] = "mismatch"
		}
	}
	if target.Gender != "" && user.Gender != "" {
		checks++
		if strings.EqualFold(target.Gender, user.Gender) {
			sum++
			details["gender"] = "match"
		} else {
			details["gender"] = "mismatch"
		}
	}
	if target.Income != "" && user.Income != "" {
		checks++
		if strings.EqualFold(target.Income, user.Income) {
			sum++
			details["income"] = "match"
		} else {
			details["income"] = "mismatch"
		}
	}
	if target.Education != "" && user.Education != "" {
		checks++
		if strings.EqualFold(target.Education, user.Education) {
			sum++
			details["education"] = "match"
		} else {
			details["education"] = "mismatch"
		}
	}

	if checks == 0 {
		return neutral("no comparable demographic fields")
	}

	score := sum / float64(checks)
	return models.DimensionResult{
		Matches: score >= defaultThreshold,
		Score:   score,
		Details: details,
	}
}

// ageInRange tests age against "min-max" or "min+". Malformed ranges never
// match.
func ageInRange(age int, ageRange string) bool {
	r := strings.TrimSpace(ageRange)
	if strings.HasSuffix(r, "+") {
		min, err := strconv.Atoi(strings.TrimSuffix(r, "+"))
		if err != nil {
			return false
		}
		return age >= min
	}
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return false
	}
	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return false
	}
	max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}
	return age >= min && age <= max
}
