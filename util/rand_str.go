// Package util contains any functions used across the application that don't match
// any other package
package util

import "math/rand/v2"

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandStr returns a random string of n letters. Used for request IDs
// and stored-file keys, where collisions only need to be unlikely, not
// impossible
func RandStr(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}

	return string(b)
}
