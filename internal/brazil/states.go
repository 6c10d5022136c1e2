package brazil

import "fmt"

// UnknownStateCodeError is returned for abbreviations outside the 27 federative units
type UnknownStateCodeError struct {
	Code string
}

func (e *UnknownStateCodeError) Error() string {
	return fmt.Sprintf("unknown state code %q", e.Code)
}

// states maps the 26 states and the federal district to their upper-case names
var states = map[string]string{
	"AC": "ACRE",
	"AL": "ALAGOAS",
	"AP": "AMAPÁ",
	"AM": "AMAZONAS",
	"BA": "BAHIA",
	"CE": "CEARA",
	"DF": "DISTRITO FEDERAL",
	"ES": "ESPIRITO SANTO",
	"GO": "GOIAS",
	"MA": "MARANHAO",
	"MT": "MATO GROSSO",
	"MS": "MATO GROSSO DO SUL",
	"MG": "MINAS GERAIS",
	"PA": "PARA",
	"PB": "PARAIBA",
	"PR": "PARANA",
	"PE": "PERNAMBUCO",
	"PI": "PIAUI",
	"RJ": "RIO DE JANEIRO",
	"RN": "RIO GRANDE DO NORTE",
	"RS": "RIO GRANDE DO SUL",
	"RO": "RONDONIA",
	"RR": "RORAIMA",
	"SC": "SANTA CATARINA",
	"SP": "SAO PAULO",
	"SE": "SERGIPE",
	"TO": "TOCANTINS",
}

// GetState returns the state name for a two-letter code. Lookup is exact:
// lower-case or padded codes are unknown.
func GetState(code string) (string, error) {
	name, ok := states[code]
	if !ok {
		return "", &UnknownStateCodeError{Code: code}
	}
	return name, nil
}
