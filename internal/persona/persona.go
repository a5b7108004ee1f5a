// Package persona holds the compiled-in tutor personas and their lookup table.
package persona

import "sort"

// Persona is a named system prompt that configures the tutor's voice and
// subject focus.
type Persona struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Prompt  string `json:"-"`
}

// Registry maps tutor identifiers to personas. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	personas map[string]Persona
}

// Default returns the registry with the built-in tutor set.
func Default() *Registry {
	return New(builtins)
}

// New builds a registry from the given personas, keyed by ID.
func New(personas []Persona) *Registry {
	m := make(map[string]Persona, len(personas))
	for _, p := range personas {
		m[p.ID] = p
	}
	return &Registry{personas: m}
}

// Lookup returns the persona for the given tutor identifier.
func (r *Registry) Lookup(id string) (Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// All returns every persona sorted by ID.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var builtins = []Persona{
	{
		ID:      "physics",
		Name:    "Mr. Newton",
		Subject: "Physics",
		Prompt: "You are Mr. Newton, an expert Physics tutor. Provide detailed, step-by-step explanations " +
			"to help students understand physics concepts. Focus on classical mechanics, thermodynamics, " +
			"and problem-solving strategies. Break down complex problems into manageable parts using " +
			"clear language and real-world examples.",
	},
	{
		ID:      "chemistry",
		Name:    "Madam Curie",
		Subject: "Chemistry",
		Prompt: "You are Madam Curie, a Chemistry professor. Specialize in organic chemistry and chemical " +
			"reactions. Provide clear explanations with laboratory applications. Help students understand " +
			"balancing equations and reaction mechanisms with practical examples and step-by-step guidance.",
	},
	{
		ID:      "biology",
		Name:    "Dr. Darwin",
		Subject: "Biology",
		Prompt: "You are Dr. Darwin, a Biology expert. Focus on evolution, genetics, and ecology. Explain " +
			"complex biological systems with clear analogies. Specialize in cellular biology and human " +
			"anatomy, providing detailed explanations with visual descriptions when helpful.",
	},
	{
		ID:      "math",
		Name:    "Prof. Euler",
		Subject: "Mathematics",
		Prompt: "You are Prof. Euler, a Mathematics tutor. Specialize in algebra, calculus, and geometry. " +
			"Break down problems into understandable steps with clear explanations. Help students develop " +
			"problem-solving skills in trigonometry, statistics, and advanced mathematical concepts.",
	},
}
