package evaluator

import (
	"strings"

	"PoliticianEvaluator/internal/domain"
)

// Definition is the static instruction text for one category.
type Definition struct {
	Category     domain.Category
	Instructions string
}

var defaultInstructions = map[string]string{
	"expertise": `Assess professional expertise: education, prior careers, committee work, ` +
		`bills drafted in the politician's field, and the technical quality of policy proposals.`,
	"leadership": `Assess leadership: roles held in party or legislature, coalitions built, ` +
		`crises managed, and ability to carry initiatives through to adoption.`,
	"vision": `Assess vision: long-term policy agenda, consistency of stated goals over time, ` +
		`and concrete plans for future challenges such as demographics, climate and economy.`,
	"integrity": `Assess integrity: corruption allegations, court rulings, asset disclosures, ` +
		`conflicts of interest, and how funds were managed.`,
	"ethics": `Assess ethics: conduct in office, statements that demean groups, abuse of privilege, ` +
		`ethics committee proceedings and the response to them.`,
	"accountability": `Assess accountability: fulfilment of campaign pledges, attendance and voting ` +
		`record, acceptance of responsibility for failures.`,
	"transparency": `Assess transparency: disclosure of schedules, spending and lobbying contacts, ` +
		`openness of decision making and responses to information requests.`,
	"communication": `Assess communication: engagement with constituents and media, clarity of ` +
		`explanations, town halls and public debates.`,
	"responsiveness": `Assess responsiveness: handling of constituent petitions, local issues ` +
		`resolved, speed of reaction to emerging public concerns.`,
	"public_interest": `Assess public interest orientation: legislation serving broad welfare over ` +
		`narrow interests, advocacy for vulnerable groups, independence from special interests.`,
}

// Definitions returns the ten category definitions. Non-empty overrides replace
// the default instruction text for their category id.
func Definitions(overrides map[int]string) []Definition {
	defs := make([]Definition, 0, domain.TotalCategories)
	for _, cat := range domain.Categories() {
		text := defaultInstructions[cat.Key]
		if o := strings.TrimSpace(overrides[cat.ID]); o != "" {
			text = o
		}
		defs = append(defs, Definition{Category: cat, Instructions: text})
	}
	return defs
}
