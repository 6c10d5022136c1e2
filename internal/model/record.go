package model

// TrackingRecord is a connected-car document as stored in MongoDB.
// Fields not mapped here are kept in the inline maps so that writing
// Data back does not drop anything.
type TrackingRecord struct {
	ID   interface{} `bson:"_id"`
	Data *RecordData `bson:"Data,omitempty"`
}

// RecordData is the "Data" sub-document
type RecordData struct {
	Position *Position             `bson:"Position,omitempty"`
	Extra    map[string]interface{} `bson:",inline"`
}

// Position is the "Data.Position" sub-document that receives the administrative fields
type Position struct {
	Point       []float64              `bson:"Point"`
	Cidade      string                 `bson:"Cidade,omitempty"`
	Sigla       string                 `bson:"Sigla,omitempty"`
	Estado      string                 `bson:"Estado,omitempty"`
	MesoRegiao  string                 `bson:"MesoRegiao,omitempty"`
	NomeMeso    string                 `bson:"NomeMeso,omitempty"`
	MicroRegiao string                 `bson:"MicroRegiao,omitempty"`
	NomeMicro   string                 `bson:"NomeMicro,omitempty"`
	Extra       map[string]interface{} `bson:",inline"`
}

// CityField is the dotted path checked to select records that still need enrichment
const CityField = "Data.Position.Cidade"

// Apply writes the key components into the position fields
func (p *Position) Apply(key AdministrativeKey) {
	p.Cidade = key.CityName
	p.Sigla = key.StateCode
	p.Estado = key.StateName
	p.MesoRegiao = key.MesoRegionCode
	p.NomeMeso = key.MesoRegionName
	p.MicroRegiao = key.MicroRegionCode
	p.NomeMicro = key.MicroRegionName
}

// HasCity reports whether the record was already enriched
func (r *TrackingRecord) HasCity() bool {
	return r.Data != nil && r.Data.Position != nil && r.Data.Position.Cidade != ""
}
