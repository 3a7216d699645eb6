// Package combo reads the option catalogs ("combos") served by the backend and
// adapts them into cascade option sources.
package combo

import "strconv"

// Type identifies a catalog on the backend (GET /combos/{type}).
type Type int

const (
	Pais Type = iota + 1
	Ubicacion
	Prioridad
	EstadoTicket
	NivelUrgencia
	PaisAlt
	Sucursal
	TipoDocumento
	Aplicacion
	Usuario
	Modulos
	TipoIncidencia
	PrioridadAlt
	EstadoAlt
	UrgenciaAlt
	Empresa
	TipoEmpresa
	Perfil
)

var typeNames = map[Type]string{
	Pais:           "pais",
	Ubicacion:      "ubicacion",
	Prioridad:      "prioridad",
	EstadoTicket:   "estado_ticket",
	NivelUrgencia:  "nivel_urgencia",
	PaisAlt:        "pais_alt",
	Sucursal:       "sucursal",
	TipoDocumento:  "tipo_documento",
	Aplicacion:     "aplicacion",
	Usuario:        "usuario",
	Modulos:        "modulos",
	TipoIncidencia: "tipo_incidencia",
	PrioridadAlt:   "prioridad_alt",
	EstadoAlt:      "estado_alt",
	UrgenciaAlt:    "urgencia_alt",
	Empresa:        "empresa",
	TipoEmpresa:    "tipo_empresa",
	Perfil:         "perfil",
}

// String returns the catalog name, or its number for types the client does not know.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return strconv.Itoa(int(t))
}
