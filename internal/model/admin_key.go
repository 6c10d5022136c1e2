package model

import (
	"fmt"
	"strings"
)

const (
	keySeparator = ","
	keyFields    = 7
)

// AdministrativeKey identifies a city together with its state and IBGE regions.
// Fields never contain commas; the comma-joined form is used as the index key.
type AdministrativeKey struct {
	CityName        string `json:"city"`
	StateName       string `json:"state_name"`
	StateCode       string `json:"state_code"`
	MesoRegionCode  string `json:"meso_region_code"`
	MesoRegionName  string `json:"meso_region_name"`
	MicroRegionCode string `json:"micro_region_code"`
	MicroRegionName string `json:"micro_region_name"`
}

// String serializes the key in its fixed field order
func (k AdministrativeKey) String() string {
	return strings.Join([]string{
		k.CityName,
		k.StateName,
		k.StateCode,
		k.MesoRegionCode,
		k.MesoRegionName,
		k.MicroRegionCode,
		k.MicroRegionName,
	}, keySeparator)
}

// ParseAdministrativeKey splits a serialized key back into its fields.
// Keys indexed by city name alone (multi-geometry placemarks) do not carry
// all seven fields and are rejected.
func ParseAdministrativeKey(s string) (AdministrativeKey, error) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != keyFields {
		return AdministrativeKey{}, fmt.Errorf("administrative key %q has %d fields, expected %d", s, len(parts), keyFields)
	}

	return AdministrativeKey{
		CityName:        parts[0],
		StateName:       parts[1],
		StateCode:       parts[2],
		MesoRegionCode:  parts[3],
		MesoRegionName:  parts[4],
		MicroRegionCode: parts[5],
		MicroRegionName: parts[6],
	}, nil
}
