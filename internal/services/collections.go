package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hospitalhub/profile-intake/internal/models"
)

var (
	// ErrCapacity indicates a collection is already at its maximum size
	ErrCapacity = errors.New("collection is full")

	// ErrIndexOutOfRange indicates an update or remove on a missing position
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownField indicates an update naming a field the record does not have
	ErrUnknownField = errors.New("unknown field")

	// ErrReviewTextRequired indicates a review without text
	ErrReviewTextRequired = errors.New("review text is required")

	// ErrInvalidRating indicates a rating outside 1..5
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Collection limits
const (
	MaxHighlights = 10
	MaxReviews    = 20
	MaxDoctors    = 50
	MaxTreatments = 50
	MaxPackages   = 20
	MaxAddons     = 10

	DefaultRating = 5
)

func capacityError(name string, limit int) error {
	return fmt.Errorf("%s: %w (max %d)", name, ErrCapacity, limit)
}

func indexError(name string, i, size int) error {
	return fmt.Errorf("%s[%d]: %w (size %d)", name, i, ErrIndexOutOfRange, size)
}

// TagList is an ordered set of free-text tags. Duplicates are compared exactly
// (case-sensitive) after trimming.
type TagList struct {
	name  string
	limit int // 0 means unbounded
	items []string
}

// NewTagList creates an unbounded tag list
func NewTagList(name string) *TagList {
	return &TagList{name: name, items: []string{}}
}

// NewCappedTagList creates a tag list that refuses additions beyond limit
func NewCappedTagList(name string, limit int) *TagList {
	return &TagList{name: name, limit: limit, items: []string{}}
}

// Add appends the trimmed value. It reports false without error when the value
// is blank or already present, and ErrCapacity when the list is full.
func (l *TagList) Add(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" || l.Contains(value) {
		return false, nil
	}
	if l.limit > 0 && len(l.items) >= l.limit {
		return false, capacityError(l.name, l.limit)
	}
	l.items = append(l.items, value)
	return true, nil
}

// Contains reports whether value (already trimmed) is present
func (l *TagList) Contains(value string) bool {
	for _, item := range l.items {
		if item == value {
			return true
		}
	}
	return false
}

// Remove deletes the tag at i, shifting later tags down
func (l *TagList) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return indexError(l.name, i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Len returns the number of tags
func (l *TagList) Len() int {
	return len(l.items)
}

// Items returns a copy of the tags in insertion order
func (l *TagList) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// ReviewList holds patient testimonials, at most MaxReviews
type ReviewList struct {
	items []models.Review
}

// NewReviewList creates an empty review list
func NewReviewList() *ReviewList {
	return &ReviewList{items: []models.Review{}}
}

// Add appends a review. Text is required, a zero rating becomes DefaultRating
// and a blank author becomes "Anonymous".
func (l *ReviewList) Add(r models.Review) error {
	r.Text = strings.TrimSpace(r.Text)
	r.Author = strings.TrimSpace(r.Author)
	if r.Text == "" {
		return ErrReviewTextRequired
	}
	if r.Rating == 0 {
		r.Rating = DefaultRating
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if r.Author == "" {
		r.Author = "Anonymous"
	}
	if len(l.items) >= MaxReviews {
		return capacityError("reviews", MaxReviews)
	}
	l.items = append(l.items, r)
	return nil
}

// SetRating changes the rating of the review at i
func (l *ReviewList) SetRating(i, rating int) error {
	if i < 0 || i >= len(l.items) {
		return indexError("reviews", i, len(l.items))
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	l.items[i].Rating = rating
	return nil
}

// Remove deletes the review at i, shifting later reviews down
func (l *ReviewList) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return indexError("reviews", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Items returns a copy of the reviews
func (l *ReviewList) Items() []models.Review {
	out := make([]models.Review, len(l.items))
	copy(out, l.items)
	return out
}

// fieldSetters maps a client field name to a setter on the record
type fieldSetters[T any] map[string]func(*T, string)

// RecordList is an ordered, capped list of sub-records edited one field at a time
type RecordList[T any] struct {
	name    string
	limit   int
	setters fieldSetters[T]
	items   []T
}

func newRecordList[T any](name string, limit int, setters fieldSetters[T]) *RecordList[T] {
	return &RecordList[T]{name: name, limit: limit, setters: setters, items: []T{}}
}

// Add appends a blank record and returns its index
func (l *RecordList[T]) Add() (int, error) {
	if len(l.items) >= l.limit {
		return -1, capacityError(l.name, l.limit)
	}
	var zero T
	l.items = append(l.items, zero)
	return len(l.items) - 1, nil
}

// Update sets one named field on the record at i
func (l *RecordList[T]) Update(i int, field, value string) error {
	if i < 0 || i >= len(l.items) {
		return indexError(l.name, i, len(l.items))
	}
	set, ok := l.setters[field]
	if !ok {
		return fmt.Errorf("%s: %w %q", l.name, ErrUnknownField, field)
	}
	set(&l.items[i], value)
	return nil
}

// HasField reports whether field can be set through Update
func (l *RecordList[T]) HasField(field string) bool {
	_, ok := l.setters[field]
	return ok
}

// Remove deletes the record at i, shifting later records down
func (l *RecordList[T]) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return indexError(l.name, i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Len returns the number of records
func (l *RecordList[T]) Len() int {
	return len(l.items)
}

// Items returns a copy of the records
func (l *RecordList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

var doctorSetters = fieldSetters[models.Doctor]{
	"name":          func(d *models.Doctor, v string) { d.Name = v },
	"title":         func(d *models.Doctor, v string) { d.Title = v },
	"qualification": func(d *models.Doctor, v string) { d.Qualification = v },
	"education":     func(d *models.Doctor, v string) { d.Education = v },
	"experience":    func(d *models.Doctor, v string) { d.Experience = v },
	"languages":     func(d *models.Doctor, v string) { d.Languages = v },
	"expertise":     func(d *models.Doctor, v string) { d.Expertise = v },
	"procedures":    func(d *models.Doctor, v string) { d.Procedures = v },
	"patientsCount": func(d *models.Doctor, v string) { d.PatientsCount = v },
	"about":         func(d *models.Doctor, v string) { d.About = v },
	"timing":        func(d *models.Doctor, v string) { d.Timing = v },
	"awards":        func(d *models.Doctor, v string) { d.Awards = v },
	"publications":  func(d *models.Doctor, v string) { d.Publications = v },
	"photoUrl":      func(d *models.Doctor, v string) { d.PhotoURL = v },
}

var treatmentSetters = fieldSetters[models.Treatment]{
	"domain":         func(t *models.Treatment, v string) { t.Domain = v },
	"name":           func(t *models.Treatment, v string) { t.Name = v },
	"specialty":      func(t *models.Treatment, v string) { t.Specialty = v },
	"accreditations": func(t *models.Treatment, v string) { t.Accreditations = v },
	"price":          func(t *models.Treatment, v string) { t.Price = v },
	"description":    func(t *models.Treatment, v string) { t.Description = v },
	"recoveryTime":   func(t *models.Treatment, v string) { t.RecoveryTime = v },
	"hospitalStay":   func(t *models.Treatment, v string) { t.HospitalStay = v },
}

var packageSetters = fieldSetters[models.Package]{
	"name":           func(p *models.Package, v string) { p.Name = v },
	"tagline":        func(p *models.Package, v string) { p.Tagline = v },
	"rate":           func(p *models.Package, v string) { p.Rate = v },
	"duration":       func(p *models.Package, v string) { p.Duration = v },
	"description":    func(p *models.Package, v string) { p.Description = v },
	"visaAssistance": func(p *models.Package, v string) { p.VisaAssistance = v },
	"flights":        func(p *models.Package, v string) { p.Flights = v },
	"insurance":      func(p *models.Package, v string) { p.Insurance = v },
	"inclusions":     func(p *models.Package, v string) { p.Inclusions = v },
}

var addonSetters = fieldSetters[models.Addon]{
	"name":        func(a *models.Addon, v string) { a.Name = v },
	"amount":      func(a *models.Addon, v string) { a.Amount = v },
	"description": func(a *models.Addon, v string) { a.Description = v },
}

// DoctorList holds at most MaxDoctors doctors
type DoctorList = RecordList[models.Doctor]

// TreatmentList holds at most MaxTreatments treatments
type TreatmentList = RecordList[models.Treatment]

// NewDoctorList creates an empty doctor list
func NewDoctorList() *DoctorList {
	return newRecordList("doctors", MaxDoctors, doctorSetters)
}

// NewTreatmentList creates an empty treatment list
func NewTreatmentList() *TreatmentList {
	return newRecordList("treatments", MaxTreatments, treatmentSetters)
}

// PackageList holds at most MaxPackages packages, each with its own add-on list
type PackageList struct {
	*RecordList[models.Package]
}

// NewPackageList creates an empty package list
func NewPackageList() *PackageList {
	return &PackageList{RecordList: newRecordList("packages", MaxPackages, packageSetters)}
}

// Add appends a blank package with an empty add-on list
func (l *PackageList) Add() (int, error) {
	i, err := l.RecordList.Add()
	if err != nil {
		return i, err
	}
	l.items[i].Addons = []models.Addon{}
	return i, nil
}

// AddAddon appends a blank add-on to package pkg and returns its index
func (l *PackageList) AddAddon(pkg int) (int, error) {
	if pkg < 0 || pkg >= len(l.items) {
		return -1, indexError("packages", pkg, len(l.items))
	}
	addons := l.items[pkg].Addons
	if len(addons) >= MaxAddons {
		return -1, capacityError(fmt.Sprintf("packages[%d].addons", pkg), MaxAddons)
	}
	l.items[pkg].Addons = append(addons, models.Addon{})
	return len(l.items[pkg].Addons) - 1, nil
}

// UpdateAddon sets one named field on add-on i of package pkg
func (l *PackageList) UpdateAddon(pkg, i int, field, value string) error {
	if pkg < 0 || pkg >= len(l.items) {
		return indexError("packages", pkg, len(l.items))
	}
	addons := l.items[pkg].Addons
	if i < 0 || i >= len(addons) {
		return indexError(fmt.Sprintf("packages[%d].addons", pkg), i, len(addons))
	}
	set, ok := addonSetters[field]
	if !ok {
		return fmt.Errorf("addons: %w %q", ErrUnknownField, field)
	}
	set(&addons[i], value)
	return nil
}

// RemoveAddon deletes add-on i of package pkg
func (l *PackageList) RemoveAddon(pkg, i int) error {
	if pkg < 0 || pkg >= len(l.items) {
		return indexError("packages", pkg, len(l.items))
	}
	addons := l.items[pkg].Addons
	if i < 0 || i >= len(addons) {
		return indexError(fmt.Sprintf("packages[%d].addons", pkg), i, len(addons))
	}
	l.items[pkg].Addons = append(addons[:i], addons[i+1:]...)
	return nil
}

// Items returns a copy of the packages, including copies of their add-ons
func (l *PackageList) Items() []models.Package {
	out := l.RecordList.Items()
	for i := range out {
		addons := make([]models.Addon, len(out[i].Addons))
		copy(addons, out[i].Addons)
		out[i].Addons = addons
	}
	return out
}
