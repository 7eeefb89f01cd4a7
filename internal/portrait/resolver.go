package portrait

import (
	"strings"

	"pawtraits/server/internal/domain"
)

// Resolve normalizes raw request fields into a canonical attribute set. It is
// total: every input combination yields a valid result.
//
// Precedence, highest first:
//  1. family/couples force mixed gender and multi-subject, overriding hints.
//  2. multiPhoto or subjectCount > 1 force multi-subject; the gender hint is
//     still honored for attire text but never selects a solo framing clause.
//  3. a male/female hint sets the effective gender; auto or absent resolves
//     to unspecified, never to a concrete gender.
func Resolve(category domain.Category, hint domain.GenderHint, subjectCount int, multiPhoto bool) domain.SubjectAttributes {
	if subjectCount < 1 {
		subjectCount = 1
	}
	attrs := domain.SubjectAttributes{
		Category:        category,
		EffectiveGender: domain.GenderUnspecified,
		SubjectCount:    subjectCount,
	}

	if category.IsGroup() {
		attrs.EffectiveGender = domain.GenderMixed
		attrs.IsMultiSubject = true
		return attrs
	}

	attrs.IsMultiSubject = multiPhoto || subjectCount > 1
	switch normalizeHint(hint) {
	case domain.GenderHintMale:
		attrs.EffectiveGender = domain.GenderMale
	case domain.GenderHintFemale:
		attrs.EffectiveGender = domain.GenderFemale
	}
	return attrs
}

func normalizeHint(hint domain.GenderHint) domain.GenderHint {
	switch domain.GenderHint(strings.ToLower(strings.TrimSpace(string(hint)))) {
	case domain.GenderHintMale:
		return domain.GenderHintMale
	case domain.GenderHintFemale:
		return domain.GenderHintFemale
	}
	return domain.GenderHintAuto
}
