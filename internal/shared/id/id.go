// Package id generates the prefixed public identifiers of billing records,
// e.g. "sub_4fK9x2LmQa7Z".
package id

import (
	"crypto/rand"
	"fmt"
)

const (
	base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// bodyLength gives about 71 bits of entropy.
	bodyLength = 12

	// bytes at or above this value are rejected to keep the draw uniform
	maxUnbiased = 256 - 256%len(base62)
)

const (
	PrefixSubscription = "sub"
	PrefixStudy        = "std"
)

// NewSubscriptionID returns a fresh "sub_" identifier.
func NewSubscriptionID() (string, error) {
	return newPrefixed(PrefixSubscription)
}

// NewStudyID returns a fresh "std_" identifier.
func NewStudyID() (string, error) {
	return newPrefixed(PrefixStudy)
}

func newPrefixed(prefix string) (string, error) {
	body := make([]byte, 0, bodyLength)
	buf := make([]byte, bodyLength*2)

	for len(body) < bodyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			body = append(body, base62[int(b)%len(base62)])
			if len(body) == bodyLength {
				break
			}
		}
	}

	return prefix + "_" + string(body), nil
}
