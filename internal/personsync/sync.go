// Package personsync upserts a single Pipedrive person from a local input
// document: search by name, then update the first match or create a new
// person.
package personsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rflorenc/pipedrive-person-sync/internal/config"
	"github.com/rflorenc/pipedrive-person-sync/internal/mapping"
	"github.com/rflorenc/pipedrive-person-sync/internal/pipedrive"
)

// Outcome is the branch a run took.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeCreated Outcome = "created"
)

// Result describes a completed run.
type Result struct {
	Outcome  Outcome          `json:"outcome"`
	PersonID string           `json:"person_id"`
	Person   pipedrive.Person `json:"person"`
	Payload  mapping.Payload  `json:"payload"`
}

// Persons is the part of the Pipedrive API a run uses.
type Persons interface {
	SearchPersons(ctx context.Context, term string) (pipedrive.Person, error)
	UpdatePerson(ctx context.Context, id string, payload interface{}) (pipedrive.Person, error)
	CreatePerson(ctx context.Context, payload interface{}) (pipedrive.Person, error)
}

// Syncer runs the search → update-or-create sequence.
type Syncer struct {
	cfg     *config.Config
	table   mapping.Table
	persons Persons
}

// New creates a Syncer.
func New(cfg *config.Config, table mapping.Table, persons Persons) *Syncer {
	return &Syncer{cfg: cfg, table: table, persons: persons}
}

// NewFromConfig creates a Syncer backed by a Pipedrive client built from cfg.
func NewFromConfig(cfg *config.Config, table mapping.Table, opts ...pipedrive.Option) *Syncer {
	opts = append([]pipedrive.Option{
		pipedrive.WithTimeout(cfg.Timeout),
		pipedrive.WithRateLimit(cfg.RateLimit),
	}, opts...)
	client := pipedrive.NewClient(cfg.APIBaseURL(), cfg.APIKey, opts...)
	return New(cfg, table, client)
}

// Table returns the mapping table the Syncer was built with.
func (s *Syncer) Table() mapping.Table {
	return s.table
}

// Preview builds the payload for doc without contacting Pipedrive.
func (s *Syncer) Preview(doc mapping.Document) (mapping.Payload, error) {
	return mapping.BuildPayload(s.table, doc)
}

// Run synchronizes doc into Pipedrive. Configuration, mapping and input
// errors are reported before any request is made. The update or create
// request is only issued after the search has returned.
func (s *Syncer) Run(ctx context.Context, doc mapping.Document, logger func(string)) (*Result, error) {
	if logger == nil {
		logger = func(string) {}
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	name, err := mapping.IdentityValue(s.table, doc)
	if err != nil {
		return nil, err
	}
	payload, err := mapping.BuildPayload(s.table, doc)
	if err != nil {
		return nil, err
	}

	logger(fmt.Sprintf("Searching Pipedrive for person %q", name))
	existing, err := s.persons.SearchPersons(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("searching persons: %w", err)
	}

	if existing != nil {
		id := existing.ID()
		if id == "" {
			return nil, errors.New("searching persons: matched item has no id")
		}
		person, err := s.persons.UpdatePerson(ctx, id, payload)
		if err != nil {
			return nil, fmt.Errorf("updating person %s: %w", id, err)
		}
		logger("Updated existing person.")
		return &Result{Outcome: OutcomeUpdated, PersonID: id, Person: person, Payload: payload}, nil
	}

	person, err := s.persons.CreatePerson(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}
	logger("Created new person.")
	return &Result{Outcome: OutcomeCreated, PersonID: person.ID(), Person: person, Payload: payload}, nil
}
