// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fixtures holds the deterministic seed data written into every
// collection on a cache reseed. Ids and timestamps are fixed so two reseeds
// produce byte-identical collections.
package fixtures

import "github.com/pulsefit/pulsefitLocal/internal/record"

// SeedTime stamps every fixture record.
const SeedTime = "2026-01-01T00:00:00Z"

func seeded(id string, fields record.Record) record.Record {
	rec := fields.Clone()
	rec[record.FieldID] = id
	rec[record.FieldCreatedAt] = SeedTime
	rec[record.FieldUpdatedAt] = SeedTime
	return rec
}

var exercises = []record.Record{
	seeded("seed-exercise-001", record.Record{"name": "Push-up", "muscle": "chest", "equipment": "none"}),
	seeded("seed-exercise-002", record.Record{"name": "Squat", "muscle": "legs", "equipment": "none"}),
	seeded("seed-exercise-003", record.Record{"name": "Deadlift", "muscle": "back", "equipment": "barbell"}),
	seeded("seed-exercise-004", record.Record{"name": "Plank", "muscle": "core", "equipment": "none"}),
	seeded("seed-exercise-005", record.Record{"name": "Pull-up", "muscle": "back", "equipment": "bar"}),
}

var predefinedWorkouts = []record.Record{
	seeded("seed-predef-001", record.Record{
		"name":      "Bodyweight Basics",
		"level":     "beginner",
		"exercises": []any{"seed-exercise-001", "seed-exercise-002", "seed-exercise-004"},
	}),
	seeded("seed-predef-002", record.Record{
		"name":      "Strength Foundation",
		"level":     "intermediate",
		"exercises": []any{"seed-exercise-002", "seed-exercise-003", "seed-exercise-005"},
	}),
}

var plans = []record.Record{
	seeded("seed-plan-001", record.Record{
		"title":        "Starter Week",
		"daysPerWeek":  3,
		"workouts":     []any{"seed-predef-001"},
		"durationDays": 7,
	}),
}

// For returns the fixture records for an entity. Entities without seed data
// get an empty collection, which still creates the storage key on reseed.
func For(entity string) []record.Record {
	var src []record.Record
	switch entity {
	case "Exercise":
		src = exercises
	case "PredefinedWorkout":
		src = predefinedWorkouts
	case "Plan":
		src = plans
	default:
		return []record.Record{}
	}

	out := make([]record.Record, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out
}
