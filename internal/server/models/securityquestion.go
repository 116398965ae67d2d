package models

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
)

// SecurityQuestion is a challenge question provisioned for a profile. The
// answer is the stored reference credential; agents forward only a hash of
// the member's response.
type SecurityQuestion struct {
	Model

	ProfileID uint `gorm:"uniqueIndex:idx_security_questions_profile_question,where:deleted_at is NULL"`
	// QuestionID identifies the question within the profile, chosen at
	// provisioning time.
	QuestionID string `gorm:"uniqueIndex:idx_security_questions_profile_question,where:deleted_at is NULL"`

	Question string
	Answer   string
}

// VerifyAnswerhash checks a forwarded answerhash against the stored answer.
// The answerhash is the hex SHA1 of nonce and answer, computed by the
// submitting gateway from the member's plaintext response.
func (q *SecurityQuestion) VerifyAnswerhash(nonce, answerhash string) bool {
	sum := sha1.Sum([]byte(nonce + q.Answer))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(answerhash)) == 1
}
