package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProfileStatus is the review state of a submitted hospital profile
type ProfileStatus string

const (
	StatusPending  ProfileStatus = "pending"
	StatusApproved ProfileStatus = "approved"
	StatusRejected ProfileStatus = "rejected"
)

// ProfileStatuses lists every valid status in display order
var ProfileStatuses = []ProfileStatus{StatusPending, StatusApproved, StatusRejected}

// Valid reports whether s is one of the three review states
func (s ProfileStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseProfileStatus converts a raw query value. "all" and "" mean no filter
// and are reported as ok with an empty status.
func ParseProfileStatus(raw string) (ProfileStatus, bool) {
	switch raw {
	case "", "all":
		return "", true
	}
	s := ProfileStatus(raw)
	return s, s.Valid()
}

// HospitalType is the ownership category of a hospital
type HospitalType string

const (
	HospitalTypeGovernment HospitalType = "Government"
	HospitalTypePrivate    HospitalType = "Private"
)

// HospitalTypes lists accepted hospital types
var HospitalTypes = []string{string(HospitalTypeGovernment), string(HospitalTypePrivate)}

// PatientCount is stored in the patient_count JSONB column
type PatientCount struct {
	Total  *int `json:"total"`
	Annual *int `json:"annual"`
}

// Location is stored in the location JSONB column
type Location struct {
	Address string   `json:"address"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Contact is stored in the contact JSONB column
type Contact struct {
	General   string `json:"general"`
	Emergency string `json:"emergency"`
	Email     string `json:"email"`
	Website   string `json:"website"`
}

// Description is stored in the description JSONB column
type Description struct {
	Brief      string   `json:"brief"`
	Detailed   string   `json:"detailed"`
	Highlights []string `json:"highlights"`
}

// Review is a patient testimonial
type Review struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// Doctor is a single entry of the doctors JSONB array
type Doctor struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Qualification string `json:"qualification"`
	Education     string `json:"education"`
	Experience    string `json:"experience"`
	Languages     string `json:"languages"`
	Expertise     string `json:"expertise"`
	Procedures    string `json:"procedures"`
	PatientsCount string `json:"patientsCount"`
	About         string `json:"about"`
	Timing        string `json:"timing"`
	Awards        string `json:"awards"`
	Publications  string `json:"publications"`
	PhotoURL      string `json:"photoUrl"`
}

// Treatment is a single entry of the treatments JSONB array
type Treatment struct {
	Domain         string `json:"domain"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	Accreditations string `json:"accreditations"`
	Price          string `json:"price"`
	Description    string `json:"description"`
	RecoveryTime   string `json:"recoveryTime"`
	HospitalStay   string `json:"hospitalStay"`
}

// Addon is an optional extra attached to a package
type Addon struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// Package is a single entry of the packages JSONB array
type Package struct {
	Name           string  `json:"name"`
	Tagline        string  `json:"tagline"`
	Rate           string  `json:"rate"`
	Duration       string  `json:"duration"`
	Description    string  `json:"description"`
	VisaAssistance string  `json:"visaAssistance"`
	Flights        string  `json:"flights"`
	Insurance      string  `json:"insurance"`
	Inclusions     string  `json:"inclusions"`
	Addons         []Addon `json:"addons"`
}

// HospitalProfile is the canonical, fully decoded submission record
type HospitalProfile struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Type              HospitalType  `json:"type"`
	EstablishmentYear *int          `json:"establishment_year"`
	Beds              *int          `json:"beds"`
	PatientCount      PatientCount  `json:"patient_count"`
	Accreditations    []string      `json:"accreditations"`
	Location          Location      `json:"location"`
	Contact           Contact       `json:"contact"`
	Description       Description   `json:"description"`
	Departments       []string      `json:"departments"`
	Specialties       []string      `json:"specialties"`
	Equipment         []string      `json:"equipment"`
	Facilities        []string      `json:"facilities"`
	Doctors           []Doctor      `json:"doctors"`
	Treatments        []Treatment   `json:"treatments"`
	Packages          []Package     `json:"packages"`
	Reviews           []Review      `json:"reviews"`
	Photos            []string      `json:"photos"`
	Status            ProfileStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// EnsureCollections replaces nil collections with empty ones so every array
// field serializes as [] rather than null.
func (p *HospitalProfile) EnsureCollections() {
	p.Accreditations = nonNil(p.Accreditations)
	p.Departments = nonNil(p.Departments)
	p.Specialties = nonNil(p.Specialties)
	p.Equipment = nonNil(p.Equipment)
	p.Facilities = nonNil(p.Facilities)
	p.Photos = nonNil(p.Photos)
	p.Description.Highlights = nonNil(p.Description.Highlights)
	p.Doctors = nonNil(p.Doctors)
	p.Treatments = nonNil(p.Treatments)
	p.Reviews = nonNil(p.Reviews)
	p.Packages = nonNil(p.Packages)
	for i := range p.Packages {
		p.Packages[i].Addons = nonNil(p.Packages[i].Addons)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// HospitalProfileRow is the storage shape of a profile: scalar columns plus
// one JSONB column per grouped blob or collection.
type HospitalProfileRow struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	Type              string    `db:"type"`
	EstablishmentYear *int      `db:"establishment_year"`
	Beds              *int      `db:"beds"`
	PatientCount      JSONB     `db:"patient_count"`
	Accreditations    JSONB     `db:"accreditations"`
	Location          JSONB     `db:"location"`
	Contact           JSONB     `db:"contact"`
	Description       JSONB     `db:"description"`
	Departments       JSONB     `db:"departments"`
	Specialties       JSONB     `db:"specialties"`
	Equipment         JSONB     `db:"equipment"`
	Facilities        JSONB     `db:"facilities"`
	Doctors           JSONB     `db:"doctors"`
	Treatments        JSONB     `db:"treatments"`
	Packages          JSONB     `db:"packages"`
	Reviews           JSONB     `db:"reviews"`
	Photos            JSONB     `db:"photos"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// DecodeFailure names a JSONB column that could not be decoded
type DecodeFailure struct {
	Field string
	Err   error
}

func (f DecodeFailure) Error() string {
	return fmt.Sprintf("decode %s: %v", f.Field, f.Err)
}

// NewHospitalProfileRow encodes every grouped blob and collection of p
func NewHospitalProfileRow(p *HospitalProfile) (*HospitalProfileRow, error) {
	cp := *p
	cp.EnsureCollections()

	row := &HospitalProfileRow{
		ID:                cp.ID,
		Name:              cp.Name,
		Type:              string(cp.Type),
		EstablishmentYear: cp.EstablishmentYear,
		Beds:              cp.Beds,
		Status:            string(cp.Status),
		CreatedAt:         cp.CreatedAt,
		UpdatedAt:         cp.UpdatedAt,
	}

	columns := []struct {
		name  string
		dst   *JSONB
		value interface{}
	}{
		{"patient_count", &row.PatientCount, cp.PatientCount},
		{"accreditations", &row.Accreditations, cp.Accreditations},
		{"location", &row.Location, cp.Location},
		{"contact", &row.Contact, cp.Contact},
		{"description", &row.Description, cp.Description},
		{"departments", &row.Departments, cp.Departments},
		{"specialties", &row.Specialties, cp.Specialties},
		{"equipment", &row.Equipment, cp.Equipment},
		{"facilities", &row.Facilities, cp.Facilities},
		{"doctors", &row.Doctors, cp.Doctors},
		{"treatments", &row.Treatments, cp.Treatments},
		{"packages", &row.Packages, cp.Packages},
		{"reviews", &row.Reviews, cp.Reviews},
		{"photos", &row.Photos, cp.Photos},
	}
	for _, col := range columns {
		data, err := json.Marshal(col.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", col.name, err)
		}
		*col.dst = data
	}

	return row, nil
}

// Decode converts the row into a HospitalProfile. Each JSONB column is decoded
// independently; a column that fails keeps its zero value and is reported in
// the returned failures while the rest of the record is still filled in.
func (r *HospitalProfileRow) Decode() (*HospitalProfile, []DecodeFailure) {
	p := &HospitalProfile{
		ID:                r.ID,
		Name:              r.Name,
		Type:              HospitalType(r.Type),
		EstablishmentYear: r.EstablishmentYear,
		Beds:              r.Beds,
		Status:            ProfileStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}

	var failures []DecodeFailure
	decode := func(field string, src JSONB, dst interface{}, reset func()) {
		if err := src.Decode(dst); err != nil {
			reset()
			failures = append(failures, DecodeFailure{Field: field, Err: err})
		}
	}

	decode("patient_count", r.PatientCount, &p.PatientCount, func() { p.PatientCount = PatientCount{} })
	decode("accreditations", r.Accreditations, &p.Accreditations, func() { p.Accreditations = nil })
	decode("location", r.Location, &p.Location, func() { p.Location = Location{} })
	decode("contact", r.Contact, &p.Contact, func() { p.Contact = Contact{} })
	decode("description", r.Description, &p.Description, func() { p.Description = Description{} })
	decode("departments", r.Departments, &p.Departments, func() { p.Departments = nil })
	decode("specialties", r.Specialties, &p.Specialties, func() { p.Specialties = nil })
	decode("equipment", r.Equipment, &p.Equipment, func() { p.Equipment = nil })
	decode("facilities", r.Facilities, &p.Facilities, func() { p.Facilities = nil })
	decode("doctors", r.Doctors, &p.Doctors, func() { p.Doctors = nil })
	decode("treatments", r.Treatments, &p.Treatments, func() { p.Treatments = nil })
	decode("packages", r.Packages, &p.Packages, func() { p.Packages = nil })
	decode("reviews", r.Reviews, &p.Reviews, func() { p.Reviews = nil })
	decode("photos", r.Photos, &p.Photos, func() { p.Photos = nil })

	p.EnsureCollections()
	return p, failures
}

// StatusCounts holds dashboard totals per review state
type StatusCounts struct {
	Total    int `json:"total" db:"total"`
	Pending  int `json:"pending" db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
}
