// Package domain holds the core types of the backup pipeline: the
// missing-person-poster record and the error taxonomy shared by every stage.
package domain

import "time"

// AssetRole identifies which of a record's two downloadable resources an
// asset represents. The role string doubles as the suffix of the asset's
// base filename, so bucket keys line up with the API field names.
type AssetRole string

const (
	AssetPost   AssetRole = "po_post_url"
	AssetPoster AssetRole = "po_poster_url"
)

// Record is one missing-person-poster entry as provided by the Extraviados
// MX API. Immutable once parsed; the descriptive fields are used only for
// logging and labeling, never for pipeline decisions.
type Record struct {
	ID                         string
	Slug                       string
	Name                       string
	Height                     *int
	Weight                     *int
	PhysicalBuild              string
	Complexion                 string
	Sex                        string
	DOB                        *time.Time
	AgeWhenDisappeared         int
	EyesDescription            string
	HairDescription            string
	OutfitDescription          string
	IdentifyingCharacteristics string
	Circumstances              string
	MissingFrom                string
	MissingDate                *time.Time
	Found                      bool
	AlertType                  string
	State                      string
	PostURL                    string
	PostPublicationDate        *time.Time
	PosterURL                  string
	IsMultiple                 bool
	UpdatedAt                  *time.Time
	CreatedAt                  *time.Time
}

// AssetURL returns the locator for the given role.
func (r *Record) AssetURL(role AssetRole) string {
	if role == AssetPoster {
		return r.PosterURL
	}
	return r.PostURL
}

// AssetBaseName returns the extension-less local filename for one of the
// record's assets, e.g. "8f14e45f.po_poster_url". The downloader appends
// the extension derived from the response content type.
func (r *Record) AssetBaseName(role AssetRole) string {
	return r.ID + "." + string(role)
}
