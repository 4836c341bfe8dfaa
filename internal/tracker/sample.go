package tracker

import (
	"math/rand"
	"regexp"
)

// partitionCandidates splits candidate vehicle ids by the sample id pattern.
// Ids matching the pattern land in the first slice; order is preserved.
func partitionCandidates(pattern *regexp.Regexp, ids []string) (matching, other []string) {
	for _, id := range ids {
		if pattern.MatchString(id) {
			matching = append(matching, id)
		} else {
			other = append(other, id)
		}
	}
	return matching, other
}

// pickSample randomly selects up to n candidates. The input slice is left
// untouched.
func pickSample(rng *rand.Rand, candidates []string, n int) []string {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	shuffled := make([]string, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
