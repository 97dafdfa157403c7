package random

import (
	crand "crypto/rand"
	"math/rand/v2"
	"unsafe"
)

const (
	letters       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"
	letterIdxBits = 6
	letterIdxMask = 1<<letterIdxBits - 1
	letterIdxMax  = 63 / letterIdxBits
)

// AlphaNumeric 指定した文字数のランダム英数字文字列を生成します
// この関数はmath/randが生成する擬似乱数を使用します
func AlphaNumeric(n int) string {
	b := make([]byte, n)
	cache, remain := rand.Int64(), letterIdxMax
	for i := n - 1; i >= 0; {
		if remain == 0 {
			cache, remain = rand.Int64(), letterIdxMax
		}
		idx := int(cache & letterIdxMask)
		if idx < len(letters) {
			b[i] = letters[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}
	return *(*string)(unsafe.Pointer(&b))
}

// SecureAlphaNumeric 指定した文字数のランダム英数字文字列を生成します
// この関数はcrypto/randが生成する暗号学的に安全な乱数を使用します
func SecureAlphaNumeric(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		panic(err)
	}
	for i := 0; i < n; {
		idx := int(b[i] & letterIdxMask)
		if idx < len(letters) {
			b[i] = letters[idx]
			i++
		} else {
			if _, err := crand.Read(b[i : i+1]); err != nil {
				panic(err)
			}
		}
	}
	return *(*string)(unsafe.Pointer(&b))
}
