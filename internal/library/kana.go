package library

// kanaInitials holds the romaji initial of every hiragana from U+3041 to U+3096.
// Katakana reuse it at an offset of 0x60.
const kanaInitials = "AAIIUUEEOO" + // ぁ-お
	"KGKGKGKGKG" + // か-ご
	"SZSJSZSZSZ" + // さ-ぞ
	"TDCJTTZTDTD" + // た-ど
	"NNNNN" + // な-の
	"HBPHBPFBPHBPHBP" + // は-ぽ
	"MMMMM" + // ま-も
	"YYYYYY" + // ゃ-よ
	"RRRRR" + // ら-ろ
	"WWWWWNVKK" // ゎ-ゖ

const (
	hiraganaFirst = 0x3041
	hiraganaLast  = 0x3096
	katakanaShift = 0x60
)

func kanaInitial(r rune) (string, bool) {
	if r >= hiraganaFirst+katakanaShift && r <= hiraganaLast+katakanaShift {
		r -= katakanaShift
	}
	if r < hiraganaFirst || r > hiraganaLast {
		return "", false
	}
	return kanaInitials[r-hiraganaFirst : r-hiraganaFirst+1], true
}
