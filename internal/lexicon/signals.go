package lexicon

import "strings"

var growthKeywords = []string{
	"学习", "培训", "复盘", "总结", "提升", "改进", "晋升", "跨部门", "项目", "进修",
	"learn", "train", "review", "summar", "improve", "promot", "cross-team", "project",
}

var growthIndicators = []string{
	"晋升", "升职", "优秀", "获奖", "荣获", "证书", "资格证", "表彰", "第一名", "标杆",
	"promoted", "award", "certificat",
}

var employerWords = []string{"公司", "企业", "机构", "单位"}

var imageMarkers = []string{"[图片]", "[image]", "<image>", "[img]", "图片内容", "扫描件", "ocr识别", "[ocr]"}

var noiseTokens = []string{"do", "open", "obj", "endobj", "stream", "endstream", "xref", "trailer", "startxref"}

// HasGrowthKeyword reports whether sentence mentions a learning or growth activity.
func HasGrowthKeyword(sentence string) bool {
	return containsAny(sentence, growthKeywords)
}

// CountGrowthIndicators counts occurrences of achievement markers in text.
func CountGrowthIndicators(text string) int {
	return countAll(text, growthIndicators)
}

// CountEmployerWords counts employer nouns in text.
func CountEmployerWords(text string) int {
	return countAll(text, employerWords)
}

// HasImageMarker reports whether text carries an explicit image or OCR marker.
func HasImageMarker(text string) bool {
	return containsAny(text, imageMarkers)
}

// NoiseTokens returns the isolated tokens stripped from extracted text.
func NoiseTokens() []string {
	out := make([]string, len(noiseTokens))
	copy(out, noiseTokens)
	return out
}

func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func countAll(text string, words []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, w := range words {
		n += strings.Count(lower, w)
	}
	return n
}
