package adherence

import "strings"

// frequencyRules is an ordered phrase table mapping free-text prescription
// frequencies to doses per day. Matching is case-insensitive substring
// search over a mixed English/Spanish phrase list; the first matching rule
// wins and anything unmatched defaults to one dose per day.
var frequencyRules = []struct {
	phrases []string
	doses   int
}{
	{[]string{"dos veces", "2 veces", "twice"}, 2},
	{[]string{"tres veces", "3 veces", "three times"}, 3},
	{[]string{"cuatro veces", "4 veces", "four times"}, 4},
	{[]string{"cada 12 horas", "every 12 hours"}, 2},
	{[]string{"cada 8 horas", "every 8 hours"}, 3},
	{[]string{"cada 6 horas", "every 6 hours"}, 4},
}

// DosesPerDay derives the expected daily dose count from the subscription's
// prescribed frequency string.
func DosesPerDay(frequency string) int {
	freq := strings.ToLower(strings.TrimSpace(frequency))
	if freq == "" {
		return 1
	}
	for _, rule := range frequencyRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(freq, phrase) {
				return rule.doses
			}
		}
	}
	return 1
}
