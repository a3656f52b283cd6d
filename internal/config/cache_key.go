package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// TestCheckpointKey returns the single checkpoint slot for a student's
// in-progress practice test on a given question paper.
func (r *CacheKeyStruct) TestCheckpointKey(paperID string, studentID int) string {
	return fmt.Sprintf("student:%d:paper:%s:checkpoint", studentID, paperID)
}

// PaperQuestionsKey returns the cache key for a paper's question payload
func (r *CacheKeyStruct) PaperQuestionsKey(paperID string) string {
	return fmt.Sprintf("paper:%s:questions", paperID)
}

var CacheKey = NewCacheKeyStruct()
