package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/validator"
)

// Accepted values for enumerated sub-record fields
var (
	TreatmentDomains = []string{
		"Oncology", "Cardiology", "Orthopedics", "Neurology",
		"Gastroenterology", "Urology", "Other",
	}
	VisaAssistanceOptions = []string{"No", "Yes", "On Request"}
	FlightOptions         = []string{"Excluded", "Included", "Discounted"}
)

const (
	minEstablishmentYear = 1800
	maxEstablishmentYear = 2100
	maxDoctorAbout       = 3000
	maxPackageDesc       = 1500
)

// RecordInput is one client-built sub-record (doctor, treatment, package or
// add-on) as sent on the wire: field name to raw JSON value.
type RecordInput map[string]json.RawMessage

// ReviewInput is one client-built review
type ReviewInput struct {
	Author string            `json:"author"`
	Text   string            `json:"text"`
	Rating models.FlexString `json:"rating"`
}

// SubmissionPayload is the flat JSON body posted by the intake form
type SubmissionPayload struct {
	Name                string            `json:"name"`
	Type                string            `json:"type"`
	EstablishmentYear   models.FlexString `json:"establishment_year"`
	Beds                models.FlexString `json:"beds"`
	PatientCountTotal   models.FlexString `json:"patient_count_total"`
	PatientCountAnnual  models.FlexString `json:"patient_count_annual"`
	Accreditations      []string          `json:"accreditations"`
	AccreditationsOther string            `json:"accreditations_other"`
	Address             string            `json:"address"`
	City                string            `json:"city"`
	State               string            `json:"state"`
	Latitude            models.FlexString `json:"latitude"`
	Longitude           models.FlexString `json:"longitude"`
	ContactGeneral      models.FlexString `json:"contact_general"`
	ContactEmergency    models.FlexString `json:"contact_emergency"`
	ContactEmail        string            `json:"contact_email"`
	ContactWebsite      string            `json:"contact_website"`
	DescriptionBrief    string            `json:"description_brief"`
	DescriptionDetailed string            `json:"description_detailed"`
	Highlights          []string          `json:"highlights"`
	Reviews             []ReviewInput     `json:"reviews"`
	Departments         []string          `json:"departments"`
	Specialties         []string          `json:"specialties"`
	Equipment           []string          `json:"equipment"`
	Facilities          []string          `json:"facilities"`
	FacilitiesOther     string            `json:"facilities_other"`
	Doctors             []RecordInput     `json:"doctors"`
	Treatments          []RecordInput     `json:"treatments"`
	Packages            []RecordInput     `json:"packages"`
	Photos              []string          `json:"photos"`

	// Status is read so it can be ignored; new submissions are always pending.
	Status string `json:"status"`
}

// SubmissionNormalizer validates a payload and builds the canonical record
type SubmissionNormalizer struct {
	phone *validator.PhoneValidator
}

// NewSubmissionNormalizer creates a new normalizer
func NewSubmissionNormalizer() *SubmissionNormalizer {
	return &SubmissionNormalizer{phone: validator.NewPhoneValidator()}
}

// Normalize runs every field check and collection rebuild. When anything fails
// it returns a *ValidationError listing every failure and no record.
func (n *SubmissionNormalizer) Normalize(payload *SubmissionPayload) (*models.HospitalProfile, error) {
	if payload == nil {
		payload = &SubmissionPayload{}
	}
	errs := &validator.Errors{}

	p := &models.HospitalProfile{Status: models.StatusPending}

	// Basic information
	p.Name = validator.Required(errs, "name", "Hospital name", payload.Name)
	p.Type = models.HospitalType(validator.OneOf(errs, "type", "Hospital type", payload.Type, models.HospitalTypes...))
	p.EstablishmentYear = validator.IntRange(errs, "establishment_year", "Establishment year",
		payload.EstablishmentYear.String(), minEstablishmentYear, maxEstablishmentYear)
	p.Beds = validator.NonNegativeInt(errs, "beds", "Number of beds", payload.Beds.String())
	p.PatientCount = models.PatientCount{
		Total:  validator.NonNegativeInt(errs, "patient_count_total", "Total patient count", payload.PatientCountTotal.String()),
		Annual: validator.NonNegativeInt(errs, "patient_count_annual", "Annual patient count", payload.PatientCountAnnual.String()),
	}
	p.Accreditations = mergeSelections(payload.Accreditations, payload.AccreditationsOther)

	// Location
	p.Location = models.Location{
		Address: validator.Required(errs, "address", "Address", payload.Address),
		City:    validator.Required(errs, "city", "City", payload.City),
		State:   strings.TrimSpace(payload.State),
		Lat:     validator.Float(errs, "latitude", "Latitude", payload.Latitude.String(), -90, 90),
		Lng:     validator.Float(errs, "longitude", "Longitude", payload.Longitude.String(), -180, 180),
	}

	// Contact
	p.Contact = models.Contact{
		General:   n.phone.Check(errs, "contact_general", "General contact number", payload.ContactGeneral.String()),
		Emergency: n.phone.Check(errs, "contact_emergency", "Emergency contact number", payload.ContactEmergency.String()),
		Email:     validator.Email(errs, "contact_email", "Email address", payload.ContactEmail),
		Website:   validator.URL(errs, "contact_website", "Website URL", payload.ContactWebsite),
	}

	// Description
	p.Description = models.Description{
		Brief:      strings.TrimSpace(payload.DescriptionBrief),
		Detailed:   strings.TrimSpace(payload.DescriptionDetailed),
		Highlights: buildHighlights(errs, payload.Highlights),
	}

	// Tag lists
	p.Departments = buildTags("departments", payload.Departments)
	p.Specialties = buildTags("specialties", payload.Specialties)
	p.Equipment = buildTags("equipment", payload.Equipment)
	p.Facilities = mergeSelections(payload.Facilities, payload.FacilitiesOther)

	// Repeatable sub-records
	p.Reviews = buildReviews(errs, payload.Reviews)
	p.Doctors = buildDoctors(errs, payload.Doctors)
	p.Treatments = buildTreatments(errs, payload.Treatments)
	p.Packages = buildPackages(errs, payload.Packages)
	p.Photos = buildPhotos(errs, payload.Photos)

	if errs.HasErrors() {
		return nil, &ValidationError{Failures: errs.List()}
	}

	p.EnsureCollections()
	return p, nil
}

// mergeSelections combines checkbox values with a comma separated "other"
// entry: trimmed, blanks dropped, first occurrence kept.
func mergeSelections(selected []string, other string) []string {
	tags := NewTagList("selections")
	for _, v := range selected {
		_, _ = tags.Add(v)
	}
	for _, v := range strings.Split(other, ",") {
		_, _ = tags.Add(v)
	}
	return tags.Items()
}

func buildTags(name string, values []string) []string {
	tags := NewTagList(name)
	for _, v := range values {
		_, _ = tags.Add(v)
	}
	return tags.Items()
}

func buildHighlights(errs *validator.Errors, values []string) []string {
	tags := NewCappedTagList("highlights", MaxHighlights)
	for _, v := range values {
		if _, err := tags.Add(v); err != nil {
			errs.Addf("highlights", "At most %d highlights are allowed.", MaxHighlights)
			break
		}
	}
	return tags.Items()
}

func buildReviews(errs *validator.Errors, inputs []ReviewInput) []models.Review {
	list := NewReviewList()
	for i, in := range inputs {
		field := fmt.Sprintf("reviews[%d]", i)

		rating := 0
		if r := validator.IntRange(errs, field+".rating", fmt.Sprintf("Review #%d rating", i+1), in.Rating.String(), 1, 5); r != nil {
			rating = *r
		} else if strings.TrimSpace(in.Rating.String()) != "" {
			if strings.TrimSpace(in.Text) == "" {
				errs.Addf(field+".text", "Review #%d text is required.", i+1)
			}
			continue
		}

		err := list.Add(models.Review{Author: in.Author, Text: in.Text, Rating: rating})
		switch {
		case err == nil:
		case errors.Is(err, ErrReviewTextRequired):
			errs.Addf(field+".text", "Review #%d text is required.", i+1)
		case errors.Is(err, ErrCapacity):
			errs.Addf("reviews", "At most %d reviews are allowed.", MaxReviews)
			return list.Items()
		default:
			errs.Addf(field, "Review #%d: %v.", i+1, err)
		}
	}
	return list.Items()
}

// fillRecord copies every known field of in onto record idx of list. Fields the
// record does not have are ignored; add-ons are handled by the caller.
func fillRecord[T any](errs *validator.Errors, list *RecordList[T], idx int, prefix, label string, in RecordInput) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !list.HasField(key) {
			continue
		}
		var value models.FlexString
		if err := json.Unmarshal(in[key], &value); err != nil {
			errs.Addf(prefix+"."+key, "%s %s must be text or a number.", label, key)
			continue
		}
		_ = list.Update(idx, key, strings.TrimSpace(value.String()))
	}
}

func buildDoctors(errs *validator.Errors, inputs []RecordInput) []models.Doctor {
	list := NewDoctorList()
	for i, in := range inputs {
		idx, err := list.Add()
		if err != nil {
			errs.Addf("doctors", "At most %d doctors are allowed.", MaxDoctors)
			break
		}
		prefix := fmt.Sprintf("doctors[%d]", i)
		label := fmt.Sprintf("Doctor #%d", i+1)
		fillRecord(errs, list, idx, prefix, label, in)

		d := list.items[idx]
		sub := &validator.Errors{}
		validator.Required(sub, "name", label+" name", d.Name)
		validator.NonNegativeInt(sub, "experience", label+" experience", d.Experience)
		validator.MaxLength(sub, "about", label+" about", d.About, maxDoctorAbout)
		validator.URL(sub, "photoUrl", label+" photo URL", d.PhotoURL)
		errs.Merge(prefix, sub)
	}
	return list.Items()
}

func buildTreatments(errs *validator.Errors, inputs []RecordInput) []models.Treatment {
	list := NewTreatmentList()
	for i, in := range inputs {
		idx, err := list.Add()
		if err != nil {
			errs.Addf("treatments", "At most %d treatments are allowed.", MaxTreatments)
			break
		}
		prefix := fmt.Sprintf("treatments[%d]", i)
		label := fmt.Sprintf("Treatment #%d", i+1)
		fillRecord(errs, list, idx, prefix, label, in)

		t := list.items[idx]
		sub := &validator.Errors{}
		validator.Required(sub, "name", label+" name", t.Name)
		if t.Domain != "" {
			validator.OneOf(sub, "domain", label+" domain", t.Domain, TreatmentDomains...)
		}
		validator.NonNegativeNumber(sub, "price", label+" price", t.Price)
		errs.Merge(prefix, sub)
	}
	return list.Items()
}

func buildPackages(errs *validator.Errors, inputs []RecordInput) []models.Package {
	list := NewPackageList()
	for i, in := range inputs {
		idx, err := list.Add()
		if err != nil {
			errs.Addf("packages", "At most %d packages are allowed.", MaxPackages)
			break
		}
		prefix := fmt.Sprintf("packages[%d]", i)
		label := fmt.Sprintf("Package #%d", i+1)
		fillRecord(errs, list.RecordList, idx, prefix, label, in)

		pkg := &list.items[idx]
		if pkg.VisaAssistance == "" {
			pkg.VisaAssistance = VisaAssistanceOptions[0]
		}
		if pkg.Flights == "" {
			pkg.Flights = FlightOptions[0]
		}

		sub := &validator.Errors{}
		validator.Required(sub, "name", label+" name", pkg.Name)
		validator.NonNegativeNumber(sub, "rate", label+" rate", pkg.Rate)
		validator.MaxLength(sub, "description", label+" description", pkg.Description, maxPackageDesc)
		validator.OneOf(sub, "visaAssistance", label+" visa assistance", pkg.VisaAssistance, VisaAssistanceOptions...)
		validator.OneOf(sub, "flights", label+" flights", pkg.Flights, FlightOptions...)
		buildAddons(sub, list, idx, label, in["addons"])
		errs.Merge(prefix, sub)
	}
	return list.Items()
}

func buildAddons(errs *validator.Errors, list *PackageList, pkg int, label string, raw json.RawMessage) {
	var inputs []RecordInput
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &inputs); err != nil {
			errs.Addf("addons", "%s add-ons must be a list.", label)
			return
		}
	}

	for i, in := range inputs {
		idx, err := list.AddAddon(pkg)
		if err != nil {
			errs.Addf("addons", "%s allows at most %d add-ons.", label, MaxAddons)
			return
		}
		prefix := fmt.Sprintf("addons[%d]", i)
		for _, key := range []string{"name", "amount", "description"} {
			v, ok := in[key]
			if !ok {
				continue
			}
			var value models.FlexString
			if err := json.Unmarshal(v, &value); err != nil {
				errs.Addf(prefix+"."+key, "%s add-on #%d %s must be text or a number.", label, i+1, key)
				continue
			}
			_ = list.UpdateAddon(pkg, idx, key, strings.TrimSpace(value.String()))
		}
		addon := list.items[pkg].Addons[idx]
		validator.NonNegativeNumber(errs, prefix+".amount", fmt.Sprintf("%s add-on #%d amount", label, i+1), addon.Amount)
	}
}

func buildPhotos(errs *validator.Errors, urls []string) []string {
	photos := NewTagList("photos")
	for i, raw := range urls {
		value := validator.URL(errs, fmt.Sprintf("photos[%d]", i), fmt.Sprintf("Photo #%d URL", i+1), raw)
		_, _ = photos.Add(value)
	}
	return photos.Items()
}
