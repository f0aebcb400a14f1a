package utils

import "math/rand/v2"

const seqLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandSeq returns a random alphanumeric string of length n.
func RandSeq(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = seqLetters[rand.IntN(len(seqLetters))]
	}
	return string(b)
}
