package database

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Helper functions to safely extract values from Neo4j records
func getString(record *neo4j.Record, key string) string {
	if val, ok := record.Get(key); ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getFloat64(record *neo4j.Record, key string) float64 {
	if val, ok := record.Get(key); ok && val != nil {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
	}
	return 0.0
}

func getInt64(record *neo4j.Record, key string) int64 {
	if val, ok := record.Get(key); ok && val != nil {
		switch v := val.(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}

func getBool(record *neo4j.Record, key string) bool {
	if val, ok := record.Get(key); ok && val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// getUnix reads a timestamp stored either as epoch seconds or as a temporal value
func getUnix(record *neo4j.Record, key string) int64 {
	if val, ok := record.Get(key); ok && val != nil {
		switch v := val.(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		case time.Time:
			return v.Unix()
		case neo4j.LocalDateTime:
			return v.Time().Unix()
		}
	}
	return 0
}
