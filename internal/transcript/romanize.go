package transcript

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// stripMarks removes combining marks after canonical decomposition.
// Applied only to transliterated runs, never to surrounding Latin text.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Romanize transliterates all segment and word text into Latin script,
// preserving timing. Already-Latin text passes through unchanged, so the
// operation is idempotent. The returned transcript is always tagged Latin.
func Romanize(tr types.Transcript) types.Transcript {
	out := tr
	out.Script = types.ScriptLatin
	out.Segments = make([]types.Segment, len(tr.Segments))
	for i, s := range tr.Segments {
		s.Text = RomanizeText(s.Text)
		if len(s.Words) > 0 {
			words := make([]types.Word, len(s.Words))
			for j, w := range s.Words {
				w.Word = RomanizeText(w.Word)
				words[j] = w
			}
			s.Words = words
		}
		out.Segments[i] = s
	}
	return out
}

// RomanizeText transliterates a single string. Only runs of Devanagari or
// Arabic runes are converted; everything else, accented Latin included, is
// copied through byte for byte.
func RomanizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	rs := []rune(s)
	var run []rune
	flush := func() {
		if len(run) == 0 {
			return
		}
		b.WriteString(transliterate(run))
		run = run[:0]
	}
	for _, r := range rs {
		if unicode.In(r, unicode.Devanagari, unicode.Arabic) {
			run = append(run, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

// transliterate converts one non-Latin run. Marks not covered by the rune
// tables are stripped afterwards so the run comes out plain ASCII.
func transliterate(rs []rune) string {
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		if unicode.In(rs[i], unicode.Devanagari) {
			i = writeDevanagari(&b, rs, i)
			continue
		}
		writeArabic(&b, rs[i])
	}
	flat, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		return b.String()
	}
	return flat
}

const (
	virama     = '्'
	nukta      = '़'
	anusvara   = 'ं'
	candrabind = 'ँ'
	visarga    = 'ः'
)

var devaConsonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "n",
	'च': "ch", 'छ': "chh", 'ज': "j", 'झ': "jh", 'ञ': "n",
	'ट': "t", 'ठ': "th", 'ड': "d", 'ढ': "dh", 'ण': "n",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'व': "v",
	'श': "sh", 'ष': "sh", 'स': "s", 'ह': "h",
	// precomposed nukta forms (qa, khha, ghha, za, dddha, rha, fa)
	'क़': "q", 'ख़': "kh", 'ग़': "gh", 'ज़': "z",
	'ड़': "r", 'ढ़': "rh", 'फ़': "f",
}

var devaVowels = map[rune]string{
	'अ': "a", 'आ': "aa", 'इ': "i", 'ई': "ee", 'उ': "u", 'ऊ': "oo",
	'ऋ': "ri", 'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au", 'ऑ': "o",
}

var devaMatras = map[rune]string{
	'ा': "aa", 'ि': "i", 'ी': "ee", 'ु': "u", 'ू': "oo",
	'ृ': "ri", 'े': "e", 'ै': "ai", 'ो': "o", 'ौ': "au",
	'ॉ': "o",
}

var devaDigits = map[rune]rune{
	'०': '0', '१': '1', '२': '2', '३': '3', '४': '4',
	'५': '5', '६': '6', '७': '7', '८': '8', '९': '9',
}

// writeDevanagari emits the transliteration for the rune at i and returns
// the index of the last rune consumed. Consonants carry an inherent "a"
// unless followed by a dependent vowel sign or a virama.
func writeDevanagari(b *strings.Builder, rs []rune, i int) int {
	r := rs[i]

	if base, ok := devaConsonants[r]; ok {
		// fold a following nukta into the bare consonant
		if i+1 < len(rs) && rs[i+1] == nukta {
			i++
		}
		b.WriteString(base)
		if i+1 < len(rs) {
			next := rs[i+1]
			if next == virama {
				return i + 1
			}
			if m, ok := devaMatras[next]; ok {
				b.WriteString(m)
				return i + 1
			}
		}
		b.WriteString("a")
		return i
	}
	if v, ok := devaVowels[r]; ok {
		b.WriteString(v)
		return i
	}
	if d, ok := devaDigits[r]; ok {
		b.WriteRune(d)
		return i
	}
	switch r {
	case anusvara, candrabind:
		b.WriteString("n")
	case visarga:
		b.WriteString("h")
	case '।', '॥':
		b.WriteString(".")
	case virama, nukta:
		// stray marks carry no sound on their own
	default:
		b.WriteRune(r)
	}
	return i
}

var arabicLetters = map[rune]string{
	'ا': "a", 'آ': "aa", 'أ': "a", 'إ': "i", 'ب': "b", 'پ': "p",
	'ت': "t", 'ٹ': "t", 'ث': "s", 'ج': "j", 'چ': "ch", 'ح': "h",
	'خ': "kh", 'د': "d", 'ڈ': "d", 'ذ': "z", 'ر': "r", 'ڑ': "r",
	'ز': "z", 'ژ': "zh", 'س': "s", 'ش': "sh", 'ص': "s", 'ض': "z",
	'ط': "t", 'ظ': "z", 'ع': "a", 'غ': "gh", 'ف': "f", 'ق': "q",
	'ک': "k", 'ك': "k", 'گ': "g", 'ل': "l", 'م': "m", 'ن': "n",
	'ں': "n", 'و': "o", 'ہ': "h", 'ھ': "h", 'ه': "h", 'ء': "'",
	'ی': "i", 'ي': "i", 'ے': "e", 'ئ': "i", 'ؤ': "o", 'ة': "h",
}

var arabicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

func writeArabic(b *strings.Builder, r rune) {
	if s, ok := arabicLetters[r]; ok {
		b.WriteString(s)
		return
	}
	if d, ok := arabicDigits[r]; ok {
		b.WriteRune(d)
		return
	}
	switch r {
	case '؟':
		b.WriteString("?")
	case '،':
		b.WriteString(",")
	case '؛':
		b.WriteString(";")
	case '۔':
		b.WriteString(".")
	default:
		if unicode.IsMark(r) {
			// harakat have no standalone romanization
			return
		}
		b.WriteRune(r)
	}
}
