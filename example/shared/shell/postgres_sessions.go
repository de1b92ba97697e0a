package shell

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // PostgreSQL dialect registration

	"github.com/pericialabs/coordination-go/coordination"
)

var postgresDialect = goqu.Dialect("postgres")

// sqlStager stages goqu-built SQL statements for a scope's transaction.
// Statements run in staging order when the scope commits and flushes the
// session; a rolled-back scope discards them unexecuted.
type sqlStager struct {
	staged []string
}

func (s *sqlStager) stage(sql string, err error) error {
	if err != nil {
		return err
	}

	s.staged = append(s.staged, sql)

	return nil
}

// Flush executes all staged statements on the scope's transaction.
func (s *sqlStager) Flush(ctx context.Context, tx coordination.Transaction) error {
	for _, statement := range s.staged {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return err
		}
	}

	s.staged = nil

	return nil
}

// Discard drops all staged statements without executing them.
func (s *sqlStager) Discard() {
	s.staged = nil
}

// StagedCount returns the number of statements waiting for the next flush.
func (s *sqlStager) StagedCount() int {
	return len(s.staged)
}

// UserPostgresSession stages writes to the users table for one scope.
// The sessions are write-behind: reads go through the query side of the
// application, not through the session.
type UserPostgresSession struct {
	sqlStager
}

// NewUserPostgresSession creates an empty session for the users table.
func NewUserPostgresSession() *UserPostgresSession {
	return &UserPostgresSession{}
}

// Add stages an insert for the given user.
func (s *UserPostgresSession) Add(user User) error {
	sql, _, err := postgresDialect.Insert("users").Rows(goqu.Record{
		"id":     user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"tax_id": user.TaxID,
		"role":   user.Role,
	}).ToSQL()

	return s.stage(sql, err)
}

// Update stages an update for the given user.
func (s *UserPostgresSession) Update(user User) error {
	sql, _, err := postgresDialect.Update("users").Set(goqu.Record{
		"name":   user.Name,
		"email":  user.Email,
		"tax_id": user.TaxID,
		"role":   user.Role,
	}).Where(goqu.C("id").Eq(user.ID)).ToSQL()

	return s.stage(sql, err)
}

// Delete stages the removal of the user with the given ID.
func (s *UserPostgresSession) Delete(userID string) error {
	sql, _, err := postgresDialect.Delete("users").
		Where(goqu.C("id").Eq(userID)).ToSQL()

	return s.stage(sql, err)
}

// BuffetPostgresSession stages writes to the buffets table for one scope.
type BuffetPostgresSession struct {
	sqlStager
}

// NewBuffetPostgresSession creates an empty session for the buffets table.
func NewBuffetPostgresSession() *BuffetPostgresSession {
	return &BuffetPostgresSession{}
}

// Add stages an insert for the given buffet.
func (s *BuffetPostgresSession) Add(buffet Buffet) error {
	sql, _, err := postgresDialect.Insert("buffets").Rows(goqu.Record{
		"id":            buffet.ID,
		"name":          buffet.Name,
		"cnpj":          buffet.CNPJ,
		"owner_user_id": buffet.OwnerUserID,
	}).ToSQL()

	return s.stage(sql, err)
}

// Update stages an update for the given buffet.
func (s *BuffetPostgresSession) Update(buffet Buffet) error {
	sql, _, err := postgresDialect.Update("buffets").Set(goqu.Record{
		"name":          buffet.Name,
		"cnpj":          buffet.CNPJ,
		"owner_user_id": buffet.OwnerUserID,
	}).Where(goqu.C("id").Eq(buffet.ID)).ToSQL()

	return s.stage(sql, err)
}

// Delete stages the removal of the buffet with the given ID.
func (s *BuffetPostgresSession) Delete(buffetID string) error {
	sql, _, err := postgresDialect.Delete("buffets").
		Where(goqu.C("id").Eq(buffetID)).ToSQL()

	return s.stage(sql, err)
}

// InvestigationPostgresSession stages writes to the investigations table for one scope.
type InvestigationPostgresSession struct {
	sqlStager
}

// NewInvestigationPostgresSession creates an empty session for the investigations table.
func NewInvestigationPostgresSession() *InvestigationPostgresSession {
	return &InvestigationPostgresSession{}
}

// Add stages an insert for the given investigation.
func (s *InvestigationPostgresSession) Add(investigation Investigation) error {
	sql, _, err := postgresDialect.Insert("investigations").Rows(goqu.Record{
		"id":                   investigation.ID,
		"plate":                investigation.Plate,
		"vin":                  investigation.VIN,
		"buffet_id":            investigation.BuffetID,
		"requested_by_user_id": investigation.RequestedByUserID,
		"status":               string(investigation.Status),
		"report_summary":       investigation.ReportSummary,
	}).ToSQL()

	return s.stage(sql, err)
}

// Update stages an update for the given investigation.
func (s *InvestigationPostgresSession) Update(investigation Investigation) error {
	sql, _, err := postgresDialect.Update("investigations").Set(goqu.Record{
		"status":         string(investigation.Status),
		"report_summary": investigation.ReportSummary,
	}).Where(goqu.C("id").Eq(investigation.ID)).ToSQL()

	return s.stage(sql, err)
}

// Delete stages the removal of the investigation with the given ID.
func (s *InvestigationPostgresSession) Delete(investigationID string) error {
	sql, _, err := postgresDialect.Delete("investigations").
		Where(goqu.C("id").Eq(investigationID)).ToSQL()

	return s.stage(sql, err)
}

var (
	_ coordination.Participant = (*UserPostgresSession)(nil)
	_ coordination.Participant = (*BuffetPostgresSession)(nil)
	_ coordination.Participant = (*InvestigationPostgresSession)(nil)
)
