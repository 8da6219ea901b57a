package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// ExamSessionStateKey returns the cache key holding a candidate's full exam
// session state
func (r *CacheKeyStruct) ExamSessionStateKey(examID string, candidateID int) string {
	return fmt.Sprintf("exam-session:%s:candidate:%d", examID, candidateID)
}

// ExamConfigKey returns the cache key for an exam's resolved configuration
func (r *CacheKeyStruct) ExamConfigKey(examID string) string {
	return fmt.Sprintf("exam:%s:config", examID)
}

// QuestionSetKey returns the cache key for a shared question set payload
func (r *CacheKeyStruct) QuestionSetKey(setID string) string {
	return fmt.Sprintf("question-set:%s", setID)
}

// CandidateActiveExamKey returns the cache key for a candidate's currently
// active exam
func (r *CacheKeyStruct) CandidateActiveExamKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:active_exam", candidateID)
}

var CacheKey = NewCacheKeyStruct()
