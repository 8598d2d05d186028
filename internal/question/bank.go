package question

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed data/questions.json
var bankFiles embed.FS

// Record is one civics question. Immutable after load.
// Answers holds the official answer variants; callers that need a single
// answer use the first variant.
type Record struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

// PrimaryAnswer returns the first official answer variant.
func (r Record) PrimaryAnswer() string {
	if len(r.Answers) == 0 {
		return ""
	}
	return r.Answers[0]
}

// Bank is the read-only question bank, loaded once at startup.
type Bank struct {
	records []Record
	byID    map[int]Record
}

// LoadEmbedded loads the bundled USCIS civics question bank.
func LoadEmbedded() (*Bank, error) {
	data, err := bankFiles.ReadFile("data/questions.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded question bank: %w", err)
	}
	return load(data)
}

// LoadFile loads a question bank from a JSON file, for deployments that
// override the bundled list.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	return load(data)
}

func load(data []byte) (*Bank, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	byID := make(map[int]Record, len(records))
	for _, r := range records {
		if r.ID <= 0 {
			return nil, fmt.Errorf("question bank has record with invalid id %d", r.ID)
		}
		if strings.TrimSpace(r.Question) == "" {
			return nil, fmt.Errorf("question %d has empty text", r.ID)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("question bank has duplicate id %d", r.ID)
		}
		byID[r.ID] = r
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	return &Bank{records: records, byID: byID}, nil
}

// All returns every record in id order.
func (b *Bank) All() []Record {
	return b.records
}

// Len returns the number of records in the bank.
func (b *Bank) Len() int {
	return len(b.records)
}

// Get looks up one record by id.
func (b *Bank) Get(id int) (Record, bool) {
	r, ok := b.byID[id]
	return r, ok
}

// Search filters the bank by a case-insensitive substring match over the
// question text. Any whitespace-separated term may match. Questions whose
// text contains the whole query are ordered first.
func (b *Bank) Search(query string) []Record {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.records
	}

	lowerQuery := strings.ToLower(query)
	terms := strings.Fields(lowerQuery)

	matched := make([]Record, 0)
	for _, r := range b.records {
		text := strings.ToLower(r.Question)
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched = append(matched, r)
				break
			}
		}
	}

	// Exact (whole query) matches first; ties keep id order.
	sort.SliceStable(matched, func(i, j int) bool {
		iExact := strings.Contains(strings.ToLower(matched[i].Question), lowerQuery)
		jExact := strings.Contains(strings.ToLower(matched[j].Question), lowerQuery)
		return iExact && !jExact
	})

	return matched
}
