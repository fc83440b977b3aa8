package api

import (
	"fmt"
	"time"

	"github.com/midir99/backupmpps/internal/domain"
)

// apiRecord is the wire shape of one record object in a listing page.
// Dates come as "2006-01-02" strings, timestamps as ISO 8601; all of them
// may be null.
type apiRecord struct {
	ID                         string  `json:"id"`
	Slug                       string  `json:"slug"`
	Name                       string  `json:"mp_name"`
	Height                     *int    `json:"mp_height"`
	Weight                     *int    `json:"mp_weight"`
	PhysicalBuild              string  `json:"mp_physical_build"`
	Complexion                 string  `json:"mp_complexion"`
	Sex                        string  `json:"mp_sex"`
	DOB                        *string `json:"mp_dob"`
	AgeWhenDisappeared         int     `json:"mp_age_when_disappeared"`
	EyesDescription            string  `json:"mp_eyes_description"`
	HairDescription            string  `json:"mp_hair_description"`
	OutfitDescription          string  `json:"mp_outfit_description"`
	IdentifyingCharacteristics string  `json:"mp_identifying_characteristics"`
	Circumstances              string  `json:"circumstances_behind_dissapearance"`
	MissingFrom                string  `json:"missing_from"`
	MissingDate                *string `json:"missing_date"`
	Found                      bool    `json:"found"`
	AlertType                  string  `json:"alert_type"`
	State                      string  `json:"po_state"`
	PostURL                    string  `json:"po_post_url"`
	PostPublicationDate        *string `json:"po_post_publication_date"`
	PosterURL                  string  `json:"po_poster_url"`
	IsMultiple                 bool    `json:"is_multiple"`
	UpdatedAt                  *string `json:"updated_at"`
	CreatedAt                  *string `json:"created_at"`
}

// toDomain validates the wire record and converts it into a domain.Record.
// A missing required field or a malformed date is a hard parse failure for
// the whole page.
func (r *apiRecord) toDomain() (domain.Record, error) {
	if r.ID == "" {
		return domain.Record{}, domain.Ef(domain.CodeDataSource, "record is missing the id field")
	}
	if r.PostURL == "" {
		return domain.Record{}, domain.Ef(domain.CodeDataSource, "record %s is missing the po_post_url field", r.ID)
	}
	if r.PosterURL == "" {
		return domain.Record{}, domain.Ef(domain.CodeDataSource, "record %s is missing the po_poster_url field", r.ID)
	}

	dob, err := parseDate(r.DOB)
	if err != nil {
		return domain.Record{}, invalidField(r.ID, "mp_dob", err)
	}
	missingDate, err := parseDate(r.MissingDate)
	if err != nil {
		return domain.Record{}, invalidField(r.ID, "missing_date", err)
	}
	postPublicationDate, err := parseDate(r.PostPublicationDate)
	if err != nil {
		return domain.Record{}, invalidField(r.ID, "po_post_publication_date", err)
	}
	updatedAt, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return domain.Record{}, invalidField(r.ID, "updated_at", err)
	}
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.Record{}, invalidField(r.ID, "created_at", err)
	}

	return domain.Record{
		ID:                         r.ID,
		Slug:                       r.Slug,
		Name:                       r.Name,
		Height:                     r.Height,
		Weight:                     r.Weight,
		PhysicalBuild:              r.PhysicalBuild,
		Complexion:                 r.Complexion,
		Sex:                        r.Sex,
		DOB:                        dob,
		AgeWhenDisappeared:         r.AgeWhenDisappeared,
		EyesDescription:            r.EyesDescription,
		HairDescription:            r.HairDescription,
		OutfitDescription:          r.OutfitDescription,
		IdentifyingCharacteristics: r.IdentifyingCharacteristics,
		Circumstances:              r.Circumstances,
		MissingFrom:                r.MissingFrom,
		MissingDate:                missingDate,
		Found:                      r.Found,
		AlertType:                  r.AlertType,
		State:                      r.State,
		PostURL:                    r.PostURL,
		PostPublicationDate:        postPublicationDate,
		PosterURL:                  r.PosterURL,
		IsMultiple:                 r.IsMultiple,
		UpdatedAt:                  updatedAt,
		CreatedAt:                  createdAt,
	}, nil
}

func invalidField(id, field string, err error) error {
	return domain.E(domain.CodeDataSource, fmt.Sprintf("record %s has an invalid %s field", id, field), err)
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseTimestamp accepts RFC 3339 as well as the zone-less ISO 8601 form
// the API emits for naive datetimes.
func parseTimestamp(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", *s)
}
