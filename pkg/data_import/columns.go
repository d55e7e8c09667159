package data_import

import (
	"strings"
)

type field string

const (
	fieldIdentifier         field = "identifier"
	fieldClientExternalId   field = "clientExternalId"
	fieldClientFirstName    field = "clientFirstName"
	fieldClientLastName     field = "clientLastName"
	fieldClientName         field = "clientName"
	fieldTaxCode            field = "taxCode"
	fieldOperatorExternalId field = "operatorExternalId"
	fieldOperatorFirstName  field = "operatorFirstName"
	fieldOperatorLastName   field = "operatorLastName"
	fieldOperatorName       field = "operatorName"
	fieldServiceType        field = "serviceType"
	fieldScheduledStart     field = "scheduledStart"
	fieldScheduledEnd       field = "scheduledEnd"
	fieldRecordedStart      field = "recordedStart"
	fieldRecordedEnd        field = "recordedEnd"
	fieldDuration           field = "duration"
	fieldKilometers         field = "kilometers"
	fieldValue              field = "value"
)

// aliases maps English and Italian export headers to row fields.
var aliases = map[field][]string{
	fieldIdentifier:         {"Identifier", "ID", "Identificativo"},
	fieldClientExternalId:   {"Assisted Person ID", "Client ID", "ID. assistito", "ID assistito"},
	fieldClientFirstName:    {"Assisted Person First Name", "Person First Name", "Client First Name", "Nome assistito", "Nome della persona assistita"},
	fieldClientLastName:     {"Assisted Person Last Name", "Person Last Name", "Client Last Name", "Cognome assistito", "Cognome della persona assistita"},
	fieldClientName:         {"Client Name", "Assisted Person", "Nome Cliente", "Assistito"},
	fieldTaxCode:            {"Tax Code", "Codice fiscale"},
	fieldOperatorExternalId: {"Operator ID", "ID. operatore", "ID operatore"},
	fieldOperatorFirstName:  {"Operator First Name", "Nome operatore"},
	fieldOperatorLastName:   {"Operator Last Name", "Cognome operatore"},
	fieldOperatorName:       {"Operator", "Operatore"},
	fieldServiceType:        {"Service Type", "Tipo prestazione", "Tipo Servizio"},
	fieldScheduledStart:     {"Scheduled Start", "Inizio programmato"},
	fieldScheduledEnd:       {"Scheduled End", "Fine programmata"},
	fieldRecordedStart:      {"Recorded Start", "Inizio registrato"},
	fieldRecordedEnd:        {"Recorded End", "Fine registrata", "Fine registrato"},
	fieldDuration:           {"Duration", "Durata"},
	fieldKilometers:         {"Kilometers", "Km", "Chilometri"},
	fieldValue:              {"Value", "Valore"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]field {
	index := map[string]field{}
	for f, names := range aliases {
		for _, name := range names {
			index[normalizeHeader(name)] = f
		}
	}
	return index
}

func normalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}

// mapHeader returns the column of every recognised field. The first matching column wins.
func mapHeader(header []string) map[field]int {
	columns := map[field]int{}
	for i, h := range header {
		f, ok := aliasIndex[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := columns[f]; !seen {
			columns[f] = i
		}
	}
	return columns
}

// splitName splits a full name cell into its first word and the rest.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
