package core

import (
	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// MLS computes mailing list metrics over a message archive database.
type MLS struct {
	querier Querier
	dialect build.Dialect
	tables  schema.MLSTables
}

var _ DataSource = &MLS{} // Compile-time check

// NewMLS returns the MLS datasource.
func NewMLS(q Querier, d build.Dialect, tables schema.MLSTables) *MLS {
	return &MLS{querier: q, dialect: d, tables: tables}
}

// Kind identifies the datasource family.
func (m *MLS) Kind() schema.DataSourceKind { return schema.MLSSource }

func (m *MLS) messagesTable() string { return tref(m.tables.Messages, "m") }
func (m *MLS) mpTable() string       { return tref(m.tables.MessagesPeople, "mp") }

// senderJoin links messages to their From address. The archive keeps one
// messages_people row per recipient role, so the role must be pinned.
func (m *MLS) senderJoin() build.Cond {
	return build.Cond{
		Tables: []string{m.mpTable()},
		Filters: []build.Filter{
			{Expr: "mp.message_id = m.message_ID", Requires: []string{m.mpTable(), m.messagesTable()}},
			{Expr: "mp.type_of_recipient = ?", Args: []any{"From"}, Requires: []string{m.mpTable()}},
		},
	}
}

func (m *MLS) listCond(url string) build.Cond {
	return build.Cond{
		Filters: []build.Filter{{
			Expr:     "m.mailing_list_url = ?",
			Args:     []any{url},
			Requires: []string{m.messagesTable()},
		}},
	}
}

func (m *MLS) conds(f Filters, dateExpr string) ([]build.Condition, error) {
	conds := []build.Condition{periodCond(f, dateExpr, m.messagesTable())}
	if f.Repository != "" {
		conds = append(conds, m.listCond(f.Repository))
	}
	// organization and person filters resolve through the sender address
	if f.Organization != "" {
		conds = append(conds, m.senderJoin(), organizationCond(
			m.tables.Identities, "mp.email_address", dateExpr, f.Organization, m.mpTable()))
	}
	if len(f.InPersons) > 0 || len(f.OutPersons) > 0 {
		conds = append(conds, m.senderJoin())
		conds = append(conds, personsConds(
			m.tables.Identities, m.tables.People, "email_address",
			[]string{"mp.email_address"}, f, m.mpTable())...)
	}
	return conds, nil
}

func (m *MLS) metric(id, name, desc, column string, requires []string, extra ...build.Condition) *queryMetric {
	return &queryMetric{
		info:       MetricInfo{ID: id, Name: name, Description: desc},
		source:     schema.MLSSource,
		querier:    m.querier,
		dialect:    m.dialect,
		column:     column,
		requires:   requires,
		baseTables: []string{m.messagesTable()},
		dateOf:     staticDate("m.first_date"),
		conds:      m.conds,
		extra:      extra,
	}
}

// Metrics returns the MLS metric catalog.
func (m *MLS) Metrics() []Metric {
	ident := m.tables.Identities
	senderIdentity := identityJoinCond(ident, "mp.email_address", "pup", "up", m.mpTable())
	pup := tref(ident.Qualified(ident.PeopleUPeople), "pup")
	up := tref(ident.Qualified(ident.UPeople), "up")

	sent := m.metric("sent", "Messages sent",
		"Messages posted in the interval",
		"count(distinct(m.message_ID))", []string{m.messagesTable()})
	senders := m.metric("senders", "Message senders",
		"Distinct message senders, alias-resolved",
		"count(distinct(pup.upeople_id))", []string{pup},
		m.senderJoin(), senderIdentity)

	topTables := append([]string{m.mpTable()}, senderIdentity.Tables...)
	topFilters := append(m.senderJoin().Filters, senderIdentity.Filters...)

	return []Metric{
		&rankedMetric{queryMetric: sent, top: topSpec{
			tables:   topTables,
			filters:  topFilters,
			idExpr:   "up.id",
			nameExpr: "up.identifier",
			requires: []string{up},
		}},
		senders,
	}
}
