package nlp

// irregularLemmas maps common irregular verb forms to their base form.
var irregularLemmas = map[string]string{
	"is": "be", "am": "be", "are": "be", "was": "be", "were": "be",
	"been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"saw": "see", "seen": "see",
	"took": "take", "taken": "take",
	"gave": "give", "given": "give",
	"went": "go", "gone": "go",
	"came": "come",
	"felt": "feel",
	"found": "find",
	"told": "tell",
	"said": "say",
	"got": "get", "gotten": "get",
	"kept": "keep",
	"left": "leave",
	"brought": "bring",
	"underwent": "undergo",
}

// LemmaCandidates returns deterministic base-form candidates for a lowercase
// English word, beginning with the word itself. Suffix stripping generates
// every plausible base (doubled-consonant collapse, e-restoration) because
// the correct variant cannot be chosen without a lexicon; callers matching
// against a lemma vocabulary test each candidate in order.
func LemmaCandidates(word string) []string {
	out := []string{word}
	if base, ok := irregularLemmas[word]; ok {
		return append(out, base)
	}

	n := len(word)
	switch {
	case n > 4 && (word[n-3:] == "ies" || word[n-3:] == "ied"):
		out = append(out, word[:n-3]+"y")
	case n > 3 && word[n-2:] == "es" && word[n-3] != 's':
		out = append(out, word[:n-1], word[:n-2])
	case n > 3 && word[n-1] == 's' && word[n-2] != 's':
		out = append(out, word[:n-1])
	case n > 4 && word[n-2:] == "ed":
		out = appendStemVariants(out, word[:n-2])
	case n > 5 && word[n-3:] == "ing":
		out = appendStemVariants(out, word[:n-3])
	}
	return out
}

// appendStemVariants adds the collapsed-double-consonant, plain, and
// e-restored readings of a stripped stem.
func appendStemVariants(out []string, stem string) []string {
	n := len(stem)
	if n > 2 && stem[n-1] == stem[n-2] && !isVowel(stem[n-1]) {
		out = append(out, stem[:n-1])
	}
	out = append(out, stem, stem+"e")
	return out
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// MatchesLemma reports whether a token's lemma, or any base-form candidate of
// its folded surface, belongs to the given lemma set.
func MatchesLemma(lemma, folded string, set map[string]struct{}) bool {
	if _, ok := set[lemma]; ok {
		return true
	}
	for _, cand := range LemmaCandidates(folded) {
		if _, ok := set[cand]; ok {
			return true
		}
	}
	return false
}
