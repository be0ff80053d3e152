package domain

// MedicationFields is the structured output of the AI classifier for a
// prescription or package image. Fields the model is not confident about
// stay empty.
type MedicationFields struct {
	Name                  string `json:"name"`
	GenericName           string `json:"generic_name"`
	BrandName             string `json:"brand_name"`
	Dosage                string `json:"dosage"`
	Frequency             string `json:"frequency"`
	Instructions          string `json:"instructions"`
	Notes                 string `json:"notes"`
	Manufacturer          string `json:"manufacturer"`
	Strength              string `json:"strength"`
	RouteOfAdministration string `json:"route_of_administration"`
}

// FilledCount reports how many fields the classifier populated; it feeds the
// confidence tier.
func (f MedicationFields) FilledCount() int {
	fields := []string{
		f.Name, f.GenericName, f.BrandName, f.Dosage, f.Frequency,
		f.Instructions, f.Notes, f.Manufacturer, f.Strength, f.RouteOfAdministration,
	}
	n := 0
	for _, v := range fields {
		if v != "" {
			n++
		}
	}
	return n
}

// MedicationAnalysis is the full classifier verdict.
type MedicationAnalysis struct {
	Fields      MedicationFields `json:"fields"`
	Criticality Criticality      `json:"criticality"`
	Confidence  string           `json:"confidence"`
}
