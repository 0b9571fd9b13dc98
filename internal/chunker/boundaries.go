package chunker

var (
	standardSentenceEndings = []rune{'.', '!', '?'}
	cjkSentenceEndings      = []rune{'。', '！', '？', '‼', '⁇', '⁈', '⁉'}

	standardWordBreaks = []rune{',', ';', ':', ' ', '(', ')', '[', ']', '{', '}', '\t', '\n'}
	cjkWordBreaks      = []rune{
		'、', '，', '；', '：', '（', '）', '【', '】', '「', '」', '『', '』',
		'〔', '〕', '〈', '〉', '《', '》', '〖', '〗', '〘', '〙', '〚', '〛',
		'〝', '〞', '〟', '〰', '–', '—', '‘', '’', '‚', '‛', '“', '”', '„', '‟',
		'‹', '›',
	}
)

// Both sets are always active; there is no language detection.
var (
	sentenceEndings = runeSet(standardSentenceEndings, cjkSentenceEndings)
	wordBreaks      = runeSet(standardWordBreaks, cjkWordBreaks)
)

func runeSet(groups ...[]rune) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, g := range groups {
		for _, r := range g {
			set[r] = struct{}{}
		}
	}
	return set
}

func isSentenceEnding(r rune) bool {
	_, ok := sentenceEndings[r]
	return ok
}

func isWordBreak(r rune) bool {
	_, ok := wordBreaks[r]
	return ok
}
