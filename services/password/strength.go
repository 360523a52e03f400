package password

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type StrengthLevel string

const (
	LevelWeak   StrengthLevel = "weak"
	LevelFair   StrengthLevel = "fair"
	LevelGood   StrengthLevel = "good"
	LevelStrong StrengthLevel = "strong"
)

const (
	CheckMinLength   = "min_length"
	CheckUppercase   = "uppercase"
	CheckLowercase   = "lowercase"
	CheckNumber      = "number"
	CheckSpecial     = "special"
	CheckNotCommon   = "not_common"
	CheckNotReused   = "not_reused"
	CheckNoSequences = "no_sequences"
)

type StrengthResult struct {
	Score        int           `json:"score"`
	Level        StrengthLevel `json:"level"`
	PassedChecks []string      `json:"passed_checks"`
	FailedChecks []string      `json:"failed_checks"`
	Suggestions  []string      `json:"suggestions"`
}

var commonPasswords = []string{
	"password", "password1", "password123", "passw0rd", "123456", "1234567",
	"12345678", "123456789", "1234567890", "qwerty", "qwerty123", "abc123",
	"letmein", "welcome", "welcome1", "admin", "administrator", "root",
	"iloveyou", "monkey", "dragon", "sunshine", "princess", "football",
	"baseball", "master", "shadow", "superman", "batman", "trustno1",
	"login", "starwars", "whatever", "secret", "freedom",
}

var keyboardRows = []string{
	"qwertyuiop", "asdfghjkl", "zxcvbnm", "1234567890",
}

// Score combines the independent weighted checks of the password policy into
// a 0-100 score. history carries the user's most recent password hashes;
// reuse of any of them fails the not_reused check.
func (s *Service) Score(password string, history []string) StrengthResult {
	result := StrengthResult{}
	score := 0

	pass := func(name string, points int) {
		result.PassedChecks = append(result.PassedChecks, name)
		score += points
	}
	fail := func(name, suggestion string) {
		result.FailedChecks = append(result.FailedChecks, name)
		result.Suggestions = append(result.Suggestions, suggestion)
	}

	if len(password) >= s.config.Auth.MinLength {
		pass(CheckMinLength, 15)
	} else {
		fail(CheckMinLength, "use a longer password")
	}

	classes := classifyCharacters(password)
	classChecks := []struct {
		name       string
		required   bool
		present    bool
		suggestion string
	}{
		{CheckUppercase, s.config.Auth.RequireUpper, classes.upper, "add an uppercase letter"},
		{CheckLowercase, s.config.Auth.RequireLower, classes.lower, "add a lowercase letter"},
		{CheckNumber, s.config.Auth.RequireNumber, classes.number, "add a number"},
		{CheckSpecial, s.config.Auth.RequireSpecial, classes.special, "add a special character"},
	}
	for _, check := range classChecks {
		if !check.required {
			continue
		}
		if check.present {
			pass(check.name, 15)
		} else {
			fail(check.name, check.suggestion)
		}
	}

	if s.isCommonPassword(password) {
		fail(CheckNotCommon, "avoid common passwords")
	} else {
		pass(CheckNotCommon, 10)
	}

	if isReused(password, history, s.config.Auth.PasswordHistoryLimit) {
		fail(CheckNotReused, "do not reuse a previous password")
	} else {
		pass(CheckNotReused, 10)
	}

	if hasSequentialRun(password) || hasKeyboardRun(password) {
		fail(CheckNoSequences, "avoid sequences like abc, 123 or qwerty")
	} else {
		pass(CheckNoSequences, 10)
	}

	switch {
	case len(password) >= 16:
		score += 10
	case len(password) >= 12:
		score += 5
	}

	if uniqueRatio(password) >= 0.8 {
		score += 5
	}

	switch classes.count() {
	case 4:
		score += 10
	case 3:
		score += 5
	}

	if score > 100 {
		score = 100
	}

	result.Score = score
	result.Level = levelForScore(score)
	return result
}

func levelForScore(score int) StrengthLevel {
	switch {
	case score < 40:
		return LevelWeak
	case score < 60:
		return LevelFair
	case score < 80:
		return LevelGood
	default:
		return LevelStrong
	}
}

// isCommonPassword matches in both directions: a password that contains a
// common password, or is contained in one, is still guessable.
func (s *Service) isCommonPassword(password string) bool {
	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lowered, common) || strings.Contains(common, lowered) {
			return true
		}
	}
	for _, common := range s.config.Auth.ExtraCommonPasswords {
		common = strings.ToLower(common)
		if common == "" {
			continue
		}
		if strings.Contains(lowered, common) || strings.Contains(common, lowered) {
			return true
		}
	}
	return false
}

func isReused(password string, history []string, limit int) bool {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	for _, hash := range history {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil {
			return true
		}
	}
	return false
}

func hasSequentialRun(password string) bool {
	runes := []rune(strings.ToLower(password))
	for i := 0; i+2 < len(runes); i++ {
		ascending := runes[i+1] == runes[i]+1 && runes[i+2] == runes[i]+2
		descending := runes[i+1] == runes[i]-1 && runes[i+2] == runes[i]-2
		if ascending || descending {
			return true
		}
	}
	return false
}

func hasKeyboardRun(password string) bool {
	lowered := strings.ToLower(password)
	for _, row := range keyboardRows {
		reversed := reverse(row)
		for i := 0; i+3 <= len(row); i++ {
			if strings.Contains(lowered, row[i:i+3]) || strings.Contains(lowered, reversed[i:i+3]) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func uniqueRatio(password string) float64 {
	if password == "" {
		return 0
	}
	seen := make(map[rune]struct{})
	total := 0
	for _, r := range password {
		seen[r] = struct{}{}
		total++
	}
	return float64(len(seen)) / float64(total)
}
