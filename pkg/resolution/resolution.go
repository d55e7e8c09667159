package resolution

import (
	"strings"

	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/data_import"
	"github.com/homecare-coop/backoffice/pkg/staff"
)

type MatchKind string

const (
	MatchIdentifier MatchKind = "identifier"
	MatchTaxCode    MatchKind = "tax_code"
	MatchName       MatchKind = "name"
	MatchNone       MatchKind = "none"
)

// Resolution is the outcome for one import row. Ids are zero when the match kind is none.
type Resolution struct {
	RowId       int
	RowNumber   int
	Identifier  string
	ClientId    int
	ClientName  string
	ClientMatch MatchKind
	StaffId     int
	StaffName   string
	StaffMatch  MatchKind
}

func (r Resolution) Resolved() bool {
	return r.ClientId != 0 && r.StaffId != 0
}

type Summary struct {
	TotalRows    int
	Resolved     int
	ClientsByKey map[MatchKind]int
	StaffByKey   map[MatchKind]int
}

func summarize(resolutions []Resolution) Summary {
	summary := Summary{
		TotalRows:    len(resolutions),
		ClientsByKey: map[MatchKind]int{},
		StaffByKey:   map[MatchKind]int{},
	}
	for _, r := range resolutions {
		if r.Resolved() {
			summary.Resolved++
		}
		summary.ClientsByKey[r.ClientMatch]++
		summary.StaffByKey[r.StaffMatch]++
	}
	return summary
}

type person struct {
	id   int
	name string
}

// index holds the lookup tables for clients and staff. Earlier entries win on collisions.
type index struct {
	clientsByExternalId map[string]person
	clientsByTaxCode    map[string]person
	clientsByName       map[string]person
	staffByExternalId   map[string]person
	staffByName         map[string]person
}

func newIndex(clients []client.Client, members []staff.Staff) *index {
	ix := &index{
		clientsByExternalId: map[string]person{},
		clientsByTaxCode:    map[string]person{},
		clientsByName:       map[string]person{},
		staffByExternalId:   map[string]person{},
		staffByName:         map[string]person{},
	}
	for _, c := range clients {
		ix.addClient(c)
	}
	for _, s := range members {
		ix.addStaff(s)
	}
	return ix
}

func putIfAbsent(m map[string]person, key string, p person) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = p
	}
}

func (ix *index) addClient(c client.Client) {
	p := person{id: c.Id, name: c.FullName()}
	putIfAbsent(ix.clientsByExternalId, strings.TrimSpace(c.ExternalId), p)
	putIfAbsent(ix.clientsByTaxCode, strings.ToUpper(strings.TrimSpace(c.TaxCode)), p)
	for _, key := range nameKeys(c.FirstName, c.LastName) {
		putIfAbsent(ix.clientsByName, key, p)
	}
}

func (ix *index) addStaff(s staff.Staff) {
	p := person{id: s.Id, name: s.FullName()}
	putIfAbsent(ix.staffByExternalId, strings.TrimSpace(s.ExternalId), p)
	for _, key := range nameKeys(s.FirstName, s.LastName) {
		putIfAbsent(ix.staffByName, key, p)
	}
}

func (ix *index) client(row data_import.Row) (person, MatchKind) {
	if p, ok := ix.clientsByExternalId[row.ClientExternalId]; ok && row.ClientExternalId != "" {
		return p, MatchIdentifier
	}
	if p, ok := ix.clientsByTaxCode[strings.ToUpper(row.TaxCode)]; ok && row.TaxCode != "" {
		return p, MatchTaxCode
	}
	if key := NormalizeName(row.ClientFirstName + " " + row.ClientLastName); key != "" {
		if p, ok := ix.clientsByName[key]; ok {
			return p, MatchName
		}
	}
	return person{}, MatchNone
}

func (ix *index) staff(row data_import.Row) (person, MatchKind) {
	if p, ok := ix.staffByExternalId[row.OperatorExternalId]; ok && row.OperatorExternalId != "" {
		return p, MatchIdentifier
	}
	if key := NormalizeName(row.OperatorFirstName + " " + row.OperatorLastName); key != "" {
		if p, ok := ix.staffByName[key]; ok {
			return p, MatchName
		}
	}
	return person{}, MatchNone
}

func (ix *index) resolve(row data_import.Row) Resolution {
	c, clientMatch := ix.client(row)
	s, staffMatch := ix.staff(row)
	return Resolution{
		RowId:       row.Id,
		RowNumber:   row.RowNumber,
		Identifier:  row.Identifier,
		ClientId:    c.id,
		ClientName:  c.name,
		ClientMatch: clientMatch,
		StaffId:     s.id,
		StaffName:   s.name,
		StaffMatch:  staffMatch,
	}
}
