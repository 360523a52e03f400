package mfa

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Backup codes avoid characters users confuse when reading codes off paper.
const backupCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateBackupCodes produces the configured number of single-use recovery
// codes, formatted XXXX-XXXX for readability.
func (s *Service) GenerateBackupCodes() ([]string, error) {
	count := s.config.TOTP.BackupCodeCount
	length := s.config.TOTP.BackupCodeLength

	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code, err := generateBackupCode(length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// HashBackupCodes bcrypt-hashes each code for storage. The raw codes are
// shown to the user exactly once.
func (s *Service) HashBackupCodes(codes []string) ([]string, error) {
	hashes := make([]string, 0, len(codes))
	for _, code := range codes {
		hash, err := bcrypt.GenerateFromPassword([]byte(normalizeBackupCode(code)), s.config.Auth.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash backup code: %w", err)
		}
		hashes = append(hashes, string(hash))
	}
	return hashes, nil
}

// VerifyBackupCode checks code against the stored hashes. On a match it
// returns the remaining hashes with the matched one removed; each code is
// good for exactly one use. Input is case-insensitive and tolerates the
// hyphen or spaces being dropped.
func (s *Service) VerifyBackupCode(hashes []string, code string) (bool, []string) {
	normalized := normalizeBackupCode(code)
	if normalized == "" {
		return false, hashes
	}

	for i, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalized)) == nil {
			remaining := make([]string, 0, len(hashes)-1)
			remaining = append(remaining, hashes[:i]...)
			remaining = append(remaining, hashes[i+1:]...)
			return true, remaining
		}
	}
	return false, hashes
}

func generateBackupCode(length int) (string, error) {
	chars := make([]byte, length)
	max := big.NewInt(int64(len(backupCodeCharset)))
	for i := range chars {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		chars[i] = backupCodeCharset[n.Int64()]
	}

	code := string(chars)
	if length >= 8 {
		mid := length / 2
		code = code[:mid] + "-" + code[mid:]
	}
	return code, nil
}

func normalizeBackupCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}
