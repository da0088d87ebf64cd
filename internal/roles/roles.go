// Package roles is the catalog of practice roles handed out when a
// participant joins a room.
package roles

import (
	"math/rand/v2"
)

// Role is a behaviour profile a participant practices during a session.
type Role struct {
	Name      string   `json:"name"`
	Objective string   `json:"objective"`
	Tips      []string `json:"tips"`
}

var catalog = []Role{
	{
		Name:      "Lider Reactivo",
		Objective: "Coordina sin interrumpir.",
		Tips: []string{
			"Espera 3 segundos antes de responder.",
			"Pregunta antes de reasignar tareas.",
		},
	},
	{
		Name:      "Colaborador Inseguro",
		Objective: "Expresa tu desacuerdo.",
		Tips: []string{
			"Evita 'quizas' o 'tal vez'.",
			"Da una razon concreta en 1 frase.",
		},
	},
	{
		Name:      "Individualista Abrumado",
		Objective: "Participa breve y pide aclaraciones.",
		Tips: []string{
			"Haz 1 pregunta corta.",
			"No intentes resolver todo solo.",
		},
	},
	{
		Name:      "Integrante Pasivo-Desconectado",
		Objective: "Participa al menos una vez.",
		Tips: []string{
			"Di una idea corta o confirma: 'Estoy de acuerdo porque...'.",
		},
	},
}

// All returns a deep copy of the catalog.
func All() []Role {
	out := make([]Role, len(catalog))
	for i, r := range catalog {
		out[i] = r.clone()
	}
	return out
}

// ByName returns the role with the given name.
func ByName(name string) (Role, bool) {
	for _, r := range catalog {
		if r.Name == name {
			return r.clone(), true
		}
	}
	return Role{}, false
}

// Pick assigns a role uniformly at random. A nil source uses the global generator.
func Pick(r *rand.Rand) Role {
	var i int
	if r == nil {
		i = rand.IntN(len(catalog))
	} else {
		i = r.IntN(len(catalog))
	}
	return catalog[i].clone()
}

func (r Role) clone() Role {
	r.Tips = append([]string(nil), r.Tips...)
	return r
}
