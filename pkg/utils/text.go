package utils

import "strings"

// SplitSentences 在 '.'、'!'、'?' 后接一个或多个空格处切分句子；结果去除首尾空白，不含空串
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && text[i+1] == ' ' {
			out = appendSentence(out, text[start:i+1])
			j := i + 1
			for j < len(text) && text[j] == ' ' {
				j++
			}
			start = j
			i = j - 1
		}
	}
	return appendSentence(out, text[start:])
}

func appendSentence(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

// FirstSentenceLongerThan 返回第一个词数大于 n 的句子
func FirstSentenceLongerThan(text string, n int) (string, bool) {
	for _, s := range SplitSentences(text) {
		if len(strings.Fields(s)) > n {
			return s, true
		}
	}
	return "", false
}
