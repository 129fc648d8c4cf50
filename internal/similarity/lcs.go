package similarity

// LCSLength returns the length of the longest common subsequence of a and
// b, compared code point by code point. Runs in O(len(a)*len(b)) time and
// O(min row) space.
func LCSLength(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(rb)]
}

// Ratio computes a symmetric similarity score in [0, 1] defined as
// 2*LCS(a,b) / (len(a)+len(b)) over code points. Returns 0 when either
// input is empty; Ratio(a, a) == 1 for any non-empty a.
func Ratio(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	return 2 * float64(LCSLength(a, b)) / float64(la+lb)
}
