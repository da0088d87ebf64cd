// Package routes holds the static page table of go-salas.
//
// The table is built once at init and never mutated; every accessor
// hands out copies so callers cannot change what the server dispatches.
package routes

import (
	"errors"
	"fmt"
	"strings"
)

// Symbolic route names, usable for reverse lookup from templates and handlers.
const (
	Home     = "home"
	Profile  = "profile"
	Rooms    = "rooms"
	Room     = "room"
	Feedback = "feedback"
	Progress = "progress"
)

var (
	ErrUnknownRoute  = errors.New("unknown route")
	ErrDuplicatePath = errors.New("duplicate route path")
	ErrDuplicateName = errors.New("duplicate route name")
	ErrInvalidRoute  = errors.New("invalid route")
)

// Route binds one literal request path to a page.
type Route struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Title    string `json:"title"`
}

var table = []Route{
	{Path: "/", Name: Home, Template: "core/home.html", Title: "Inicio"},
	{Path: "/perfil/", Name: Profile, Template: "core/profile.html", Title: "Perfil"},
	{Path: "/salas/", Name: Rooms, Template: "core/rooms.html", Title: "Salas"},
	{Path: "/sala/", Name: Room, Template: "core/room.html", Title: "Sala"},
	{Path: "/feedback/", Name: Feedback, Template: "core/feedback.html", Title: "Feedback"},
	{Path: "/progreso/", Name: Progress, Template: "core/progress.html", Title: "Progreso"},
}

var (
	byPath = make(map[string]Route, len(table))
	byName = make(map[string]Route, len(table))
)

func init() {
	if err := Validate(table); err != nil {
		panic("routes: " + err.Error())
	}
	for _, r := range table {
		byPath[r.Path] = r
		byName[r.Name] = r
	}
}

// All returns the page table in declaration order.
func All() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Lookup finds the route for an exact request path.
// There are no wildcards and no trailing slash normalisation: "/sala" is not "/sala/".
func Lookup(path string) (Route, bool) {
	r, ok := byPath[path]
	return r, ok
}

// ByName finds a route by its symbolic name.
func ByName(name string) (Route, bool) {
	r, ok := byName[name]
	return r, ok
}

// Reverse returns the path registered under name.
func Reverse(name string) (string, error) {
	r, ok := byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return r.Path, nil
}

// Validate checks a table for empty fields, relative paths and duplicates.
func Validate(rs []Route) error {
	paths := make(map[string]bool, len(rs))
	names := make(map[string]bool, len(rs))
	for i, r := range rs {
		if r.Path == "" || r.Name == "" || r.Template == "" {
			return fmt.Errorf("%w: entry %d has empty fields", ErrInvalidRoute, i)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("%w: path %q is not absolute", ErrInvalidRoute, r.Path)
		}
		if paths[r.Path] {
			return fmt.Errorf("%w: %q", ErrDuplicatePath, r.Path)
		}
		if names[r.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
		paths[r.Path] = true
		names[r.Name] = true
	}
	return nil
}
