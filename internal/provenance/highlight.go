package provenance

import (
	"strings"

	"compass/pkg/utils"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// ApplyHighlights 用 <mark> 包裹答案中与各 Highlight 最接近的句子；相似度低于 cutoff 的不处理
func ApplyHighlights(answer string, highlights []Highlight, cutoff float64) string {
	if cutoff <= 0 {
		cutoff = DefaultThreshold
	}
	sentences := utils.SplitSentences(answer)
	marked := make(map[string]bool)
	for _, h := range highlights {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		best, bestScore := "", 0.0
		for _, s := range sentences {
			if score := Ratio(h.Text, s); score > bestScore {
				best, bestScore = s, score
			}
		}
		if bestScore < cutoff || marked[best] {
			continue
		}
		answer = strings.Replace(answer, best, markOpen+best+markClose, 1)
		marked[best] = true
	}
	return answer
}
