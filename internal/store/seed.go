package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// SeedFile is the YAML shape for loading subjects, bills, and votes from the
// external catalogs. It stands in for the vote-scraper collaborator, which
// supplies the same records over its own channel.
type SeedFile struct {
	Subjects []SeedSubject `yaml:"subjects"`
	Bills    []SeedBill    `yaml:"bills"`
	Votes    []SeedVote    `yaml:"votes"`
}

// SeedSubject describes one legislator.
type SeedSubject struct {
	Name     string `yaml:"name"`
	Chamber  string `yaml:"chamber"`
	District string `yaml:"district"`
	Party    string `yaml:"party"`
}

// SeedBill describes one bill from the catalog.
type SeedBill struct {
	ID      string   `yaml:"id"`
	Number  string   `yaml:"number"`
	Title   string   `yaml:"title"`
	Summary string   `yaml:"summary"`
	Topics  []string `yaml:"topics"`
}

// SeedVote references its subject by name and its bill by catalog id.
type SeedVote struct {
	Subject  string `yaml:"subject"`
	Bill     string `yaml:"bill"`
	Choice   string `yaml:"choice"`
	VoteType string `yaml:"vote_type"`
	VoteDate string `yaml:"vote_date"`
}

// LoadSeed parses a seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	return &seed, nil
}

// ApplySeed loads the seed records into the store. Subjects and bills
// upsert; duplicate votes are ignored, so re-seeding is safe.
func (s *Store) ApplySeed(seed *SeedFile) error {
	subjects := make(map[string]int64, len(seed.Subjects))
	for _, ss := range seed.Subjects {
		subject := model.Subject{
			Name:     ss.Name,
			Chamber:  ss.Chamber,
			District: ss.District,
			Party:    ss.Party,
		}
		if err := s.UpsertSubject(&subject); err != nil {
			return fmt.Errorf("seed subject %q: %w", ss.Name, err)
		}
		subjects[ss.Name] = subject.ID
	}

	for _, sb := range seed.Bills {
		bill := model.Bill{
			ID:      sb.ID,
			Number:  sb.Number,
			Title:   sb.Title,
			Summary: sb.Summary,
			Topics:  sb.Topics,
		}
		if err := s.SaveBill(bill); err != nil {
			return fmt.Errorf("seed bill %q: %w", sb.ID, err)
		}
	}

	for _, sv := range seed.Votes {
		subjectID, ok := subjects[sv.Subject]
		if !ok {
			existing, err := s.GetSubjectByName(sv.Subject)
			if err != nil {
				return fmt.Errorf("seed vote lookup: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("seed vote references unknown subject %q", sv.Subject)
			}
			subjectID = existing.ID
		}

		vote := model.Vote{
			SubjectID: subjectID,
			BillID:    sv.Bill,
			Choice:    model.VoteChoice(sv.Choice),
			VoteType:  sv.VoteType,
			VoteDate:  sv.VoteDate,
		}
		if err := s.SaveVote(&vote); err != nil {
			return fmt.Errorf("seed vote for %q on %q: %w", sv.Subject, sv.Bill, err)
		}
	}

	return nil
}
