// Package sandbox provides synthetic patient and clinical-record generation
// for demo environments. It produces reproducible, Canadian-flavoured data
// suitable for exercising the identity and records stores without real PHI.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opor/opor/internal/domain/identity"
	"github.com/opor/opor/internal/domain/records"
)

// SeedConfig controls the volume and reproducibility of generated data.
type SeedConfig struct {
	PatientCount int   `json:"count"`
	Seed         int64 `json:"seed"`
}

// DefaultSeedConfig returns the volume used when the request supplies none.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{PatientCount: 10}
}

// Demographic and clinical pools, loosely Ontario-flavoured.
var (
	firstNames = []string{
		"Emma", "Liam", "Olivia", "Noah", "Charlotte", "William", "Sophie",
		"Benjamin", "Amélie", "Lucas", "Chloé", "Nathan", "Léa", "Thomas",
		"Zoé", "Étienne", "Maya", "Arjun", "Wei", "Fatima",
	}
	lastNames = []string{
		"Tremblay", "Smith", "Gagnon", "Roy", "Côté", "Bouchard", "Gauthier",
		"Morin", "Lavoie", "Fortin", "Chen", "Singh", "Patel", "Nguyen",
		"MacDonald", "Wilson", "Campbell", "Martin", "Lee", "Brown",
	}
	streets = []string{
		"Yonge Street", "Bloor Street West", "Queen Street East", "King Street West",
		"Dundas Street", "Bay Street", "College Street", "Spadina Avenue",
	}
	cities    = []string{"Toronto", "Ottawa", "Mississauga", "Hamilton", "London", "Kingston", "Sudbury"}
	genders   = []string{"Male", "Female", "Other"}
	providers = []string{"Dr. Osei", "Dr. Lefebvre", "Dr. Kaur", "Dr. Okafor", "Dr. Bergeron", "Dr. Ito"}

	facilities = []string{
		"Toronto General Hospital",
		"St. Michael's Hospital",
		"Sunnybrook Health Sciences Centre",
		"Mount Sinai Hospital",
		"Women's College Hospital",
	}
	specialties = []string{"Family Medicine", "Internal Medicine", "Emergency Medicine"}
	diagnoses   = []string{
		"Hypertension",
		"Type 2 Diabetes",
		"Acute Bronchitis",
		"Osteoarthritis",
		"Anxiety Disorder",
		"Migraine",
		"Gastroesophageal Reflux Disease",
	}
	medicationNames = []string{
		"Metformin 500mg",
		"Lisinopril 10mg",
		"Atorvastatin 20mg",
		"Omeprazole 20mg",
		"Levothyroxine 50mcg",
	}
	allergens  = []string{"Penicillin", "Sulfa drugs", "Aspirin", "Latex", "Peanuts"}
	severities = []string{"Mild", "Moderate", "Severe"}
	vaccines   = []string{"Influenza", "COVID-19", "Tetanus", "Pneumococcal", "Hepatitis B"}
	labTests   = []string{"Complete Blood Count", "Lipid Panel", "HbA1c", "Thyroid Panel"}
)

// Seeder generates synthetic identities and clinical records through the
// domain services, so generated data obeys the same invariants as real
// registrations.
type Seeder struct {
	rng         *rand.Rand
	identitySvc *identity.Service
	recordsSvc  *records.Service
}

// NewSeeder creates a seeder. A zero seed derives one from the clock, so
// repeated unseeded runs produce different data.
func NewSeeder(identitySvc *identity.Service, recordsSvc *records.Service, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		rng:         rand.New(rand.NewSource(seed)),
		identitySvc: identitySvc,
		recordsSvc:  recordsSvc,
	}
}

func (s *Seeder) pick(pool []string) string {
	return pool[s.rng.Intn(len(pool))]
}

// pastDate returns an RFC3339 timestamp up to maxDays in the past.
func (s *Seeder) pastDate(maxDays int) string {
	offset := time.Duration(s.rng.Intn(maxDays*24)) * time.Hour
	return time.Now().Add(-offset).UTC().Format(time.RFC3339)
}

func (s *Seeder) healthCard() string {
	return fmt.Sprintf("%04d-%03d-%03d", 1000+s.rng.Intn(9000), 100+s.rng.Intn(900), 100+s.rng.Intn(900))
}

// GeneratePatient produces one registration input with Ontario-style
// demographics and health card format.
func (s *Seeder) GeneratePatient() identity.RegisterPatientInput {
	first := s.pick(firstNames)
	last := s.pick(lastNames)
	dob := time.Now().AddDate(-18-s.rng.Intn(72), 0, -s.rng.Intn(365))
	return identity.RegisterPatientInput{
		HealthCardNumber: s.healthCard(),
		FirstName:        first,
		LastName:         last,
		DateOfBirth:      dob.Format("2006-01-02"),
		Gender:           s.pick(genders),
		Address:          fmt.Sprintf("%d %s, %s, ON %s", 1+s.rng.Intn(2000), s.pick(streets), s.pick(cities), s.postalCode()),
		Phone:            fmt.Sprintf("+1-%03d-%03d-%04d", 200+s.rng.Intn(700), 200+s.rng.Intn(700), s.rng.Intn(10000)),
		Email:            fmt.Sprintf("%s.%s%d@example.ca", strings.ToLower(first), strings.ToLower(last), s.rng.Intn(100)),
	}
}

func (s *Seeder) postalCode() string {
	letters := "ABCEGHJKLMNPRSTVXY"
	l := func() byte { return letters[s.rng.Intn(len(letters))] }
	d := func() byte { return byte('0' + s.rng.Intn(10)) }
	return string([]byte{l(), d(), l(), ' ', d(), l(), d()})
}

// GenerateClinicalRecords produces a bundle-shaped batch: 2-5 visits,
// 0-3 medications, 0-2 allergies, 1-3 immunizations, 1-3 lab results.
func (s *Seeder) GenerateClinicalRecords() records.AddRecordsInput {
	visits := make([]records.Entry, 0, 5)
	for i := 0; i < 2+s.rng.Intn(4); i++ {
		visits = append(visits, records.Entry{
			"visit_id":   uuid.New().String(),
			"visit_date": s.pastDate(730),
			"facility":   s.pick(facilities),
			"provider":   s.pick(providers),
			"specialty":  s.pick(specialties),
			"diagnosis":  s.pick(diagnoses),
			"vital_signs": records.Entry{
				"blood_pressure": fmt.Sprintf("%d/%d", 110+s.rng.Intn(31), 70+s.rng.Intn(21)),
				"heart_rate":     60 + s.rng.Intn(41),
				"temperature":    36.5 + s.rng.Float64(),
			},
			"notes": fmt.Sprintf("Follow-up for %s at %s.", s.pick(diagnoses), s.pick(facilities)),
		})
	}

	meds := make([]records.Entry, 0, 3)
	for i := 0; i < s.rng.Intn(4); i++ {
		meds = append(meds, records.Entry{
			"name":            s.pick(medicationNames),
			"prescribed_date": s.pastDate(365),
			"prescriber":      s.pick(providers),
		})
	}

	allergies := make([]records.Entry, 0, 2)
	for i := 0; i < s.rng.Intn(3); i++ {
		allergies = append(allergies, records.Entry{
			"allergen": s.pick(allergens),
			"severity": s.pick(severities),
		})
	}

	immunizations := make([]records.Entry, 0, 3)
	for i := 0; i < 1+s.rng.Intn(3); i++ {
		immunizations = append(immunizations, records.Entry{
			"vaccine": s.pick(vaccines),
			"date":    s.pastDate(1825),
		})
	}

	labs := make([]records.Entry, 0, 3)
	for i := 0; i < 1+s.rng.Intn(3); i++ {
		labs = append(labs, records.Entry{
			"test_name": s.pick(labTests),
			"test_date": s.pastDate(365),
			"result":    "Normal",
			"facility":  s.pick(facilities),
		})
	}

	return records.AddRecordsInput{
		ClinicalRecords: visits,
		Medications:     meds,
		Allergies:       allergies,
		Immunizations:   immunizations,
		LabResults:      labs,
	}
}

// Seed registers count synthetic patients with clinical records and returns
// their identifiers. A generated health card colliding with an existing one
// is retried a few times before giving up; any other registration error
// surfaces immediately.
func (s *Seeder) Seed(ctx context.Context, count int) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var p *identity.Patient
		var err error
		for attempt := 0; attempt < 5; attempt++ {
			p, err = s.identitySvc.Register(ctx, s.GeneratePatient())
			if err == nil {
				break
			}
			var dup *identity.DuplicateHealthCardError
			if !errors.As(err, &dup) {
				break
			}
		}
		if err != nil {
			return ids, fmt.Errorf("register synthetic patient %d: %w", i+1, err)
		}

		if err := s.recordsSvc.AddRecords(ctx, p.PatientID, s.GenerateClinicalRecords()); err != nil {
			return ids, fmt.Errorf("seed records for %s: %w", p.PatientID, err)
		}
		ids = append(ids, p.PatientID)
	}
	return ids, nil
}

// Handler exposes seeding over HTTP for demo environments.
type Handler struct {
	identitySvc *identity.Service
	recordsSvc  *records.Service
}

func NewHandler(identitySvc *identity.Service, recordsSvc *records.Service) *Handler {
	return &Handler{identitySvc: identitySvc, recordsSvc: recordsSvc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sandbox/seed", h.SeedData)
}

func (h *Handler) SeedData(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}
	if cfg.PatientCount <= 0 {
		cfg.PatientCount = DefaultSeedConfig().PatientCount
	}

	seeder := NewSeeder(h.identitySvc, h.recordsSvc, cfg.Seed)
	ids, err := seeder.Seed(c.Request().Context(), cfg.PatientCount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Generated %d patients with clinical records", len(ids)),
		"patient_ids": ids,
	})
}
