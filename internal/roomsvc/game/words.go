package game

import "strconv"

var ones = []string{"", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "ten", "eleven", "twelve", "thirteen", "fourteen",
	"fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}

var tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty",
	"seventy", "eighty", "ninety"}

// NumberToWords spells a called number for the announcement text that rides
// along on bingo-call notifications.
func NumberToWords(n int) string {
	if n < 0 || n > 99 {
		return strconv.Itoa(n)
	}
	if n < 20 {
		return ones[n]
	}
	w := tens[n/10]
	if n%10 != 0 {
		w += " " + ones[n%10]
	}
	return w
}
