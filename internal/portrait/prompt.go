package portrait

import (
	"fmt"
	"strings"

	"pawtraits/server/internal/domain"
)

// ComposeInput carries everything the composer may consult. SubjectDescription
// is the optional vision-analysis text; StyleOverride replaces the default
// style body when non-empty.
type ComposeInput struct {
	Attributes         domain.SubjectAttributes
	StyleOverride      string
	SubjectDescription string
}

const renaissanceOpening = "A breathtaking Renaissance oil painting portrait in the style of the old masters — Rembrandt van Rijn, Anthony van Dyck, Johannes Vermeer."

const renaissanceClosing = "Dramatic chiaroscuro lighting with warm golden candlelight casting rich shadows. Deep jewel-toned background in burgundy and forest green with subtle texture. Elaborate period regalia — velvet robes, gold chain of office, intricate lace ruff collar, ornate jewellery. Painted with masterful brushwork, rich impasto texture, aged museum-quality canvas. Highly detailed, cinematic, 17th century Flemish painting style. Ultra high resolution."

// categoryModifiers are the per-category style instructions. Constructed once
// at init and treated as immutable process-wide configuration.
var categoryModifiers = map[domain.Category]string{
	domain.CategoryPets:     "This is a beloved pet. Dress them in miniature royal regalia with a velvet cushion. The animal should look regal, dignified, and noble.",
	domain.CategoryFamily:   "This is a family group portrait. Pose them together in aristocratic fashion with warm familial closeness.",
	domain.CategoryChildren: "This is a child. Crown them with a small gold coronet and dress them in royal robes. Cherubic, innocent, regal.",
	domain.CategoryCouples:  "This is a couple. Pose them together with a tender, aristocratic intimacy. Two nobles deeply bonded.",
	domain.CategorySelf:     "This is a solo self-portrait. Dramatic three-quarter view, piercing gaze, self-assured noble bearing.",
}

// selfGenderedModifiers are the gendered style variants. Only self has them;
// every other category shares one modifier across genders.
var selfGenderedModifiers = map[domain.Gender]string{
	domain.GenderMale:   "This is a solo self-portrait of a gentleman. Dramatic three-quarter view, piercing gaze, the commanding bearing of a lord in his prime.",
	domain.GenderFemale: "This is a solo self-portrait of a lady. Dramatic three-quarter view, piercing gaze, the graceful and assured bearing of a noblewoman of the court.",
}

const negativeBase = "photograph, photorealistic, modern clothing, modern objects, text, watermark, signature, low quality, blurry, washed out, distorted anatomy, extra limbs, deformed hands, frame, border, canvas edge"

// Compose turns a canonical attribute set into the backend-agnostic prompt
// pair. Pure and deterministic: identical input always yields identical text.
// Clause order is significant for backend prompt weighting and must stay
// framing → description → body → multi-subject tail → gender tail.
func Compose(in ComposeInput) domain.PromptPair {
	attrs := in.Attributes
	override := strings.TrimSpace(in.StyleOverride)

	var clauses []string
	if framing := framingClause(attrs); framing != "" {
		clauses = append(clauses, framing)
	}
	if desc := strings.TrimSpace(in.SubjectDescription); desc != "" {
		clauses = append(clauses, "The subject: "+strings.TrimRight(desc, ".")+".")
	}
	if override != "" {
		clauses = append(clauses, override)
	} else {
		clauses = append(clauses, styleBody(attrs.Category, attrs.EffectiveGender))
	}
	if tail := multiSubjectTail(attrs, override != ""); tail != "" {
		clauses = append(clauses, tail)
	}
	if tail := genderTail(attrs); tail != "" {
		clauses = append(clauses, tail)
	}

	return domain.PromptPair{
		Positive: strings.Join(clauses, " "),
		Negative: negativeText(attrs),
	}
}

// framingClause opens the positive prompt. Pets and children carry their
// framing inside the style body already; groups get an explicit numeric
// instruction; known-gender solo subjects a short gendered clause.
func framingClause(attrs domain.SubjectAttributes) string {
	switch attrs.Category {
	case domain.CategoryPets, domain.CategoryChildren:
		return ""
	}
	if attrs.IsMultiSubject {
		return fmt.Sprintf("Group portrait of %d subjects together in a single composition, every person painted with equal prominence.", promptSubjectCount(attrs))
	}
	switch attrs.EffectiveGender {
	case domain.GenderMale:
		return "Portrait of one man as the sole subject."
	case domain.GenderFemale:
		return "Portrait of one woman as the sole subject."
	}
	return "Portrait of a single subject."
}

// promptSubjectCount never states fewer than two subjects once multiplicity
// is established.
func promptSubjectCount(attrs domain.SubjectAttributes) int {
	if attrs.SubjectCount < 2 {
		return 2
	}
	return attrs.SubjectCount
}

func styleBody(category domain.Category, gender domain.Gender) string {
	modifier, ok := categoryModifiers[category]
	if !ok {
		category = domain.CategorySelf
		modifier = categoryModifiers[domain.CategorySelf]
	}
	if category == domain.CategorySelf {
		if gendered, ok := selfGenderedModifiers[gender]; ok {
			modifier = gendered
		}
	}
	return renaissanceOpening + " " + modifier + " " + renaissanceClosing
}

// multiSubjectTail reinforces group composition. The family and couples
// default bodies already pose the subjects together, so the tail is only
// appended when an override replaced the body or multiplicity came from
// flags on a non-group category.
func multiSubjectTail(attrs domain.SubjectAttributes, hasOverride bool) string {
	if !attrs.IsMultiSubject {
		return ""
	}
	if attrs.Category.IsGroup() && !hasOverride {
		return ""
	}
	return "All subjects fully visible, posed side by side, each painted with equal prominence in one shared scene."
}

// genderTail constrains attire for known-gender solo subjects. Never emitted
// for groups or unspecified gender.
func genderTail(attrs domain.SubjectAttributes) string {
	if attrs.IsMultiSubject {
		return ""
	}
	switch attrs.EffectiveGender {
	case domain.GenderMale:
		return "Masculine period attire only: doublet, velvet cloak, chain of office. No dresses, no gowns, no feminine presentation."
	case domain.GenderFemale:
		return "Feminine period attire only: brocade gown, pearl jewellery, lace collar. No masculine doublet, no beard, no male presentation."
	}
	return ""
}

func negativeText(attrs domain.SubjectAttributes) string {
	if attrs.IsMultiSubject {
		return negativeBase + ", single person only, solo portrait"
	}
	switch attrs.EffectiveGender {
	case domain.GenderMale:
		return negativeBase + ", feminine attire, dress, gown, female presentation"
	case domain.GenderFemale:
		return negativeBase + ", masculine attire, beard, male presentation"
	}
	return negativeBase
}
