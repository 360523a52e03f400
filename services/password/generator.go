package password

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var ErrNoCharsetSelected = errors.New("no character set selected")

type CharsetOptions struct {
	Upper   bool
	Lower   bool
	Numbers bool
	Special bool
}

func DefaultCharsetOptions() CharsetOptions {
	return CharsetOptions{Upper: true, Lower: true, Numbers: true, Special: true}
}

const (
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars   = "abcdefghijkmnpqrstuvwxyz"
	numberChars  = "23456789"
	specialChars = "!@#$%^&*-_=+?"
)

// Generate produces a random password of the given length containing at
// least one character from every enabled set.
func (s *Service) Generate(length int, opts CharsetOptions) (string, error) {
	var sets []string
	if opts.Upper {
		sets = append(sets, upperChars)
	}
	if opts.Lower {
		sets = append(sets, lowerChars)
	}
	if opts.Numbers {
		sets = append(sets, numberChars)
	}
	if opts.Special {
		sets = append(sets, specialChars)
	}
	if len(sets) == 0 {
		return "", ErrNoCharsetSelected
	}
	if length < len(sets) {
		length = len(sets)
	}

	combined := ""
	for _, set := range sets {
		combined += set
	}

	chars := make([]byte, 0, length)
	for _, set := range sets {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(combined)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}

func shuffle(chars []byte) error {
	for i := len(chars) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}
	return nil
}
