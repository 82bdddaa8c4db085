// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package resource declares one descriptor per backend resource. The
// backend nests payloads differently per resource and names identifiers
// inconsistently, so each descriptor records its endpoint path, envelope
// paths, and identifier field. Everything behavioral lives in the generic
// remote engine.
package resource

import "github.com/pulsefit/pulsefitLocal/internal/remote"

// Entity names, also the persisted collection names.
const (
	Workout           = "Workout"
	Exercise          = "Exercise"
	Goal              = "Goal"
	Plan              = "Plan"
	PredefinedWorkout = "PredefinedWorkout"
	User              = "User"
	Progress          = "Progress"
)

// All lists every resource the data layer serves, in seed order.
var All = []remote.Descriptor{
	{
		// Workouts come back as a bare array / bare object.
		Name:       Workout,
		Path:       "workouts",
		AltIDField: "_id",
	},
	{
		Name:       Exercise,
		Path:       "exercises",
		ListPath:   "data.exercises",
		ItemPath:   "data.exercise",
		AltIDField: "_id",
	},
	{
		Name:       Goal,
		Path:       "goals",
		ListPath:   "goals",
		ItemPath:   "goal",
		AltIDField: "goal_id",
	},
	{
		Name:       Plan,
		Path:       "plans",
		ListPath:   "data.plans",
		ItemPath:   "data.plan",
		AltIDField: "_id",
	},
	{
		// Predefined workouts are served from a read-mostly catalog whose
		// list sits under "results"; single items come back bare.
		Name:       PredefinedWorkout,
		Path:       "predefined-workouts",
		ListPath:   "results",
		AltIDField: "uuid",
	},
	{
		Name:       User,
		Path:       "users",
		ListPath:   "data.users",
		ItemPath:   "data.user",
		AltIDField: "_id",
	},
	{
		Name:       Progress,
		Path:       "progress",
		AltIDField: "_id",
	},
}

// Lookup returns the descriptor for an entity name.
func Lookup(name string) (remote.Descriptor, bool) {
	for _, d := range All {
		if d.Name == name {
			return d, true
		}
	}
	return remote.Descriptor{}, false
}
