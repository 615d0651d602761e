package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session JTI.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// TutorStatusKey returns the cache key for a student's cached topic status.
func (r *CacheKeyStruct) TutorStatusKey(studentID int, topic string) string {
	return fmt.Sprintf("student:%d:topic:%s:status", studentID, topic)
}

var CacheKey = NewCacheKeyStruct()
