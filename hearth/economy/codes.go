package economy

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewCode generates an unguessable identifier: the given kind prefix followed
// by 13 base36 characters from a crypto-grade 64-bit draw. Uniqueness is
// enforced by the database constraint on the column, not here; a colliding
// insert surfaces as a store error.
func NewCode(prefix string) string {
	return prefix + base36encode(cryptoUint64())
}

func base36encode(n uint64) string {
	// 36^13 > 2^64, so 13 characters always fit a uint64.
	buf := [13]byte{}
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = codeAlphabet[n%36]
		n /= 36
	}
	return string(buf[:])
}
