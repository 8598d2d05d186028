package speech

import "strconv"

// HashText computes a 32-bit polynomial hash of the text, used as the
// tts_formatted cache key. No cryptographic property is needed, only a low
// collision rate for sentence-length inputs.
func HashText(text string) string {
	var hash int32
	for _, r := range text {
		hash = (hash << 5) - hash + int32(r)
	}
	return strconv.FormatInt(int64(hash), 10)
}
