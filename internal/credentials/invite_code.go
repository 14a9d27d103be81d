// Package credentials generates human-friendly family join codes.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var adjectives = []string{
	"happy", "sunny", "brave", "bright", "cool", "swift", "clever", "jolly",
	"mighty", "super", "wild", "lucky", "magic", "bouncy", "cheerful", "daring",
	"eager", "gentle", "jazzy", "kindly", "lively", "merry", "noble", "perky",
	"quick", "royal", "snappy", "zippy", "bold", "cosmic", "epic", "groovy",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "otter", "phoenix", "rocket", "wizard", "knight", "pirate",
	"robot", "ranger", "captain", "comet", "thunder", "storm", "badger", "falcon",
	"walrus", "koala", "lynx", "moose", "owl", "penguin", "raven", "turtle",
}

// GenerateInviteCode returns a code like "brave-otter-42"
func GenerateInviteCode() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%02d", adjective, noun, n.Int64()), nil
}

// NormalizeInviteCode canonicalizes user-typed codes for lookup
func NormalizeInviteCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
