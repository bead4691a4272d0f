package correlate

import (
	"regexp"
	"strings"
)

var nameTokenRe = regexp.MustCompile(`[a-z0-9]+`)

// normalizeForComparison lowercases and strips non-alphanumeric runs,
// the same normalisation the name correlator compares on.
func normalizeForComparison(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokens(s string) []string {
	return nameTokenRe.FindAllString(strings.ToLower(s), -1)
}

// jaccard computes the Jaccard index of two token sets.
func jaccard(a, b []string) float64 {
	setA := map[string]bool{}
	for _, t := range a {
		setA[t] = true
	}
	setB := map[string]bool{}
	for _, t := range b {
		setB[t] = true
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA)
	for t := range setB {
		if !setA[t] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// jaroWinkler computes the Jaro-Winkler similarity of two strings, scaled
// to [0,1]. Standard prefix scale 0.1, max boosted prefix length 4.
func jaroWinkler(a, b string) float64 {
	jaro := jaroSimilarity(a, b)
	if jaro <= 0 {
		return jaro
	}
	prefix := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

func jaroSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	matchDistance := la
	if lb > matchDistance {
		matchDistance = lb
	}
	matchDistance = matchDistance/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		start := i - matchDistance
		if start < 0 {
			start = 0
		}
		end := i + matchDistance + 1
		if end > lb {
			end = lb
		}
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	var transpositions int
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions))/m) / 3.0
}

// NameScore computes the Tier 3 name score between a ModGroup display name
// and a catalog mod name (spec §4.7).
//
// Returns (score, method).
func NameScore(a, b string) (float64, string) {
	na := normalizeForComparison(a)
	nb := normalizeForComparison(b)

	if na == nb {
		return 1.00, "exact"
	}
	if na != "" && nb != "" {
		shorter, longer := na, nb
		if len(longer) < len(shorter) {
			shorter, longer = longer, shorter
		}
		if len(shorter) >= 4 && strings.Contains(longer, shorter) {
			return 0.90, "substring"
		}
	}

	ta, tb := tokens(na), tokens(nb)
	jac := jaccard(ta, tb)
	if jac == 0 {
		return 0, "fuzzy"
	}
	jw := jaroWinkler(na, nb)
	return 0.6*jac + 0.4*jw, "fuzzy"
}
