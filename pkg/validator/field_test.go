package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Accumulates(t *testing.T) {
	var errs Errors

	Required(&errs, "name", "Hospital name", "  ")
	OneOf(&errs, "type", "Hospital type", "Charity", "Government", "Private")
	Required(&errs, "address", "Address", "")
	Required(&errs, "city", "City", "\t")

	require.True(t, errs.HasErrors())
	assert.Equal(t, []string{
		"Hospital name is required.",
		"Invalid hospital type.",
		"Address is required.",
		"City is required.",
	}, errs.Messages())
	assert.Equal(t, "name", errs.List()[0].Field)
	assert.Equal(t, "city", errs.List()[3].Field)
}

func TestErrors_Merge(t *testing.T) {
	var parent, child Errors
	child.Add("name", "Doctor name is required.")
	parent.Add("city", "City is required.")

	parent.Merge("doctors[1]", &child)
	parent.Merge("ignored", nil)

	assert.Equal(t, []FieldError{
		{Field: "city", Message: "City is required."},
		{Field: "doctors[1].name", Message: "Doctor name is required."},
	}, parent.List())
}

func TestErrors_ListIsCopy(t *testing.T) {
	var errs Errors
	errs.Add("a", "first")
	list := errs.List()
	list[0].Message = "changed"
	assert.Equal(t, "first", errs.List()[0].Message)
}

func TestRequired(t *testing.T) {
	var errs Errors
	assert.Equal(t, "Apex Care", Required(&errs, "name", "Hospital name", "  Apex Care "))
	assert.False(t, errs.HasErrors())
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"blank is optional", "  ", "", false},
		{"valid", " desk@apexcare.in ", "desk@apexcare.in", false},
		{"missing at", "desk.apexcare.in", "desk.apexcare.in", true},
		{"missing domain", "desk@", "desk@", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var errs Errors
			got := Email(&errs, "contact_email", "Email address", tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantErr, errs.HasErrors())
			if tc.wantErr {
				assert.Equal(t, "Invalid email address.", errs.List()[0].Message)
			}
		})
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"blank is optional", "", false},
		{"https", "https://apexcare.in", false},
		{"http with path", "http://apexcare.in/about?x=1", false},
		{"no scheme", "apexcare.in", true},
		{"relative", "/about", true},
		{"other scheme", "ftp://apexcare.in/file", true},
		{"mailto", "mailto:desk@apexcare.in", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var errs Errors
			URL(&errs, "contact_website", "Website URL", tc.input)
			assert.Equal(t, tc.wantErr, errs.HasErrors())
			if tc.wantErr {
				assert.Equal(t, "Invalid website URL.", errs.List()[0].Message)
			}
		})
	}
}

func TestIntRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *int
		wantErr bool
	}{
		{"blank", "", nil, false},
		{"lower bound", "1800", intPtr(1800), false},
		{"upper bound", "2100", intPtr(2100), false},
		{"padded", " 1995 ", intPtr(1995), false},
		{"below", "1799", nil, true},
		{"above", "2101", nil, true},
		{"decimal", "1995.5", nil, true},
		{"negative", "-1995", nil, true},
		{"signed", "+1995", nil, true},
		{"text", "nineteen", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var errs Errors
			got := IntRange(&errs, "establishment_year", "Establishment year", tc.input, 1800, 2100)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantErr, errs.HasErrors())
		})
	}
}

func TestNonNegativeInt(t *testing.T) {
	var errs Errors
	assert.Equal(t, intPtr(0), NonNegativeInt(&errs, "beds", "Beds", "0"))
	assert.Equal(t, intPtr(250), NonNegativeInt(&errs, "beds", "Beds", "250"))
	assert.Nil(t, NonNegativeInt(&errs, "beds", "Beds", ""))
	assert.False(t, errs.HasErrors())

	assert.Nil(t, NonNegativeInt(&errs, "beds", "Beds", "-3"))
	assert.Nil(t, NonNegativeInt(&errs, "beds", "Beds", "many"))
	assert.Nil(t, NonNegativeInt(&errs, "beds", "Beds", "+5"))
	assert.Equal(t, 3, errs.Len())
	assert.Equal(t, "Beds must be a non-negative whole number.", errs.List()[0].Message)
}

func TestNonNegativeNumber(t *testing.T) {
	var errs Errors
	got := NonNegativeNumber(&errs, "rate", "Package rate", "4500.50")
	require.NotNil(t, got)
	assert.InDelta(t, 4500.50, *got, 0.0001)

	assert.Nil(t, NonNegativeNumber(&errs, "rate", "Package rate", "-1"))
	assert.Nil(t, NonNegativeNumber(&errs, "rate", "Package rate", "NaN"))
	assert.Nil(t, NonNegativeNumber(&errs, "rate", "Package rate", "Inf"))
	assert.Equal(t, 3, errs.Len())
}

func TestFloat(t *testing.T) {
	var errs Errors
	lat := Float(&errs, "latitude", "Latitude", "18.5204", -90, 90)
	require.NotNil(t, lat)
	assert.InDelta(t, 18.5204, *lat, 0.00001)

	assert.Nil(t, Float(&errs, "latitude", "Latitude", "91", -90, 90))
	assert.Nil(t, Float(&errs, "longitude", "Longitude", "east", -180, 180))
	assert.Equal(t, []string{
		"Latitude must be a number between -90 and 90.",
		"Longitude must be a number between -180 and 180.",
	}, errs.Messages())
}

func TestOneOf(t *testing.T) {
	var errs Errors
	assert.Equal(t, "Private", OneOf(&errs, "type", "Hospital type", " Private ", "Government", "Private"))
	assert.False(t, errs.HasErrors())

	// exact match only
	OneOf(&errs, "type", "Hospital type", "private", "Government", "Private")
	OneOf(&errs, "type", "Hospital type", "", "Government", "Private")
	assert.Equal(t, 2, errs.Len())
}

func TestMaxLength(t *testing.T) {
	var errs Errors
	MaxLength(&errs, "about", "About", strings.Repeat("é", 3000), 3000)
	assert.False(t, errs.HasErrors())

	MaxLength(&errs, "about", "About", strings.Repeat("a", 3001), 3000)
	require.Equal(t, 1, errs.Len())
	assert.Equal(t, "About must be at most 3000 characters.", errs.List()[0].Message)
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "hospital type", lowerFirst("Hospital type"))
	assert.Equal(t, "URL", lowerFirst("URL"))
	assert.Equal(t, "", lowerFirst(""))
}

func intPtr(n int) *int {
	return &n
}
