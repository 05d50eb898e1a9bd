package enrichment

import (
	"fmt"

	"enrichsync/internal/constants"
)

func profileField(expr, label string) FieldOption {
	return FieldOption{Value: "profile." + expr, Label: label}
}

// ProspectInfoFields are the by-url profile fields offered for mapping.
var ProspectInfoFields = []FieldOption{
	profileField("id", "ID"),
	profileField("firstName", "First Name"),
	profileField("lastName", "Last Name"),
	profileField("sourcePage", "Source Page"),
	profileField("source", "Source"),
	profileField("industry", "Industry"),
	profileField("country", "Country"),
	profileField("locality", "Locality"),
	profileField("skills", "Skills"),
	profileField("currentJob[0].companyName", "Current Job Company Name"),
	profileField("currentJob[0].position", "Current Job Position"),
	profileField("currentJob[0].socialLink", "Current Job Social Link"),
	profileField("currentJob[0].site", "Current Job Website"),
	profileField("currentJob[0].locality", "Current Job Locality"),
	profileField("currentJob[0].state", "Current Job State"),
	profileField("currentJob[0].city", "Current Job City"),
	profileField("currentJob[0].street", "Current Job Street"),
	profileField("currentJob[0].postal", "Current Job Postal"),
	profileField("currentJob[0].founded", "Current Job Founded"),
	profileField("currentJob[0].startDate", "Current Job Start Date"),
	profileField("currentJob[0].endDate", "Current Job End Date"),
	profileField("currentJob[0].size", "Current Job Company Size"),
	profileField("currentJob[0].industry", "Current Job Industry"),
	profileField("currentJob[0].companyType", "Current Job Company Type"),
	profileField("currentJob[0].country", "Current Job Country"),
	profileField("currentJob", "Current Jobs"),
	profileField("social", "Social"),
	profileField("emails.map(e, e.email)", "Emails"),
	profileField("emails", "Emails Detailed"),
}

// ListMetadata returns the mappable fields of objectType.
func ListMetadata(objectType string) FieldsSchema {
	switch objectType {
	case constants.MetaObjectTypeEnrichByURL:
		options := make([]FieldOption, len(ProspectInfoFields))
		copy(options, ProspectInfoFields)
		return FieldsSchema{OK: true, Options: options}
	default:
		msg := fmt.Sprintf("Unsupported object type '%s'.", objectType)
		return FieldsSchema{OK: false, Error: &msg, Options: []FieldOption{}}
	}
}
