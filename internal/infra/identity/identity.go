package identity

import "strings"

// Normalizer lleva cualquier identificador del transporte a una forma canónica
// (número de teléfono) para que dos ids distintos de la misma persona comparen
// igual. Los alias vienen de config y se resuelven después de limpiar sufijos.
type Normalizer struct {
	aliases map[string]string
}

func New(aliases map[string]string) *Normalizer {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Normalizer{aliases: aliases}
}

// Normalize: recorta sufijos del transporte ("@s.whatsapp.net", "@lid", ...),
// la parte de device (":12") y el "+" inicial; luego aplica el mapa de alias.
func (n *Normalizer) Normalize(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}
	if at := strings.IndexByte(id, '@'); at >= 0 {
		id = id[:at]
	}
	if colon := strings.IndexByte(id, ':'); colon >= 0 {
		id = id[:colon]
	}
	id = strings.TrimPrefix(id, "+")
	if canon, ok := n.aliases[id]; ok {
		return canon
	}
	return id
}

// Same compara dos identificadores crudos en forma canónica.
func (n *Normalizer) Same(a, b string) bool {
	return n.Normalize(a) == n.Normalize(b)
}
