// Package places finds nearby medical facilities through the Amazon
// Location geo-places API and normalizes the results.
package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/geoplaces"
	"github.com/aws/aws-sdk-go-v2/service/geoplaces/types"

	"github.com/keatteoh99/medrock/pkg"
)

const (
	maxResults    = 10
	defaultRadius = 5000
	notAvailable  = "N/A"
)

// categoryFilters maps the API surface's facility categories onto provider
// category codes. Unrecognized categories fall back to hospital search.
var categoryFilters = map[string][]string{
	"hospital": {"hospital", "hospital_emergency_room", "hospital_or_health_care_facility"},
	"clinics":  {"medical_services-clinics"},
	"pharmacy": {"pharmacy", "drugstore_or_pharmacy"},
	"dentist":  {"dentist-dental_office"},
}

// GeoAPI is the slice of the geo-places client the finder uses.
// *geoplaces.Client satisfies it.
type GeoAPI interface {
	SearchNearby(ctx context.Context, params *geoplaces.SearchNearbyInput, optFns ...func(*geoplaces.Options)) (*geoplaces.SearchNearbyOutput, error)
}

// Finder searches for facilities around a position.
type Finder struct {
	api GeoAPI
	key string
}

// NewFinder creates a finder. key is the Location Service API key and may be
// empty when the client is configured with SigV4 credentials instead.
func NewFinder(api GeoAPI, key string) (*Finder, error) {
	if api == nil {
		return nil, errors.New("places: nil api")
	}
	return &Finder{api: api, key: key}, nil
}

// SearchNearby returns up to ten facilities of the given category around the
// position, nearest first. Position order is longitude then latitude, as the
// provider expects.
func (f *Finder) SearchNearby(ctx context.Context, lon, lat float64, category string, radiusM int32) ([]pkg.Facility, error) {
	if radiusM <= 0 {
		radiusM = defaultRadius
	}
	filters, ok := categoryFilters[strings.ToLower(category)]
	if !ok {
		filters = categoryFilters["hospital"]
	}
	in := &geoplaces.SearchNearbyInput{
		QueryPosition:      []float64{lon, lat},
		QueryRadius:        aws.Int64(int64(radiusM)),
		MaxResults:         aws.Int32(maxResults),
		Language:           aws.String("en"),
		AdditionalFeatures: []types.SearchNearbyAdditionalFeature{types.SearchNearbyAdditionalFeatureContact},
		Filter: &types.SearchNearbyFilter{
			IncludeCategories: filters,
		},
	}
	if f.key != "" {
		in.Key = aws.String(f.key)
	}
	out, err := f.api.SearchNearby(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("search nearby: %w", err)
	}
	facilities := make([]pkg.Facility, 0, len(out.ResultItems))
	for _, item := range out.ResultItems {
		facilities = append(facilities, normalize(item))
	}
	return facilities, nil
}

// normalize flattens one provider result into a Facility. Missing contact
// details become "N/A" so downstream formatting never renders empty fields.
func normalize(item types.SearchNearbyResultItem) pkg.Facility {
	fac := pkg.Facility{
		ID:        aws.ToString(item.PlaceId),
		Name:      aws.ToString(item.Title),
		Address:   notAvailable,
		Phone:     notAvailable,
		Website:   notAvailable,
		Category:  notAvailable,
		DistanceM: item.Distance,
	}
	if fac.Name == "" {
		fac.Name = notAvailable
	}
	if item.Address != nil && aws.ToString(item.Address.Label) != "" {
		fac.Address = aws.ToString(item.Address.Label)
	}
	if len(item.Position) == 2 {
		fac.Lon, fac.Lat = item.Position[0], item.Position[1]
	}
	if item.Contacts != nil {
		if phone := firstContact(item.Contacts.Phones); phone != "" {
			fac.Phone = phone
		}
		if site := firstContact(item.Contacts.Websites); site != "" {
			fac.Website = site
		}
	}
	if len(item.Categories) > 0 && aws.ToString(item.Categories[0].Name) != "" {
		fac.Category = aws.ToString(item.Categories[0].Name)
	}
	if len(item.OpeningHours) > 0 {
		fac.OpenNow = item.OpeningHours[0].OpenNow
	}
	return fac
}

func firstContact(details []types.ContactDetails) string {
	for _, d := range details {
		if v := aws.ToString(d.Value); v != "" {
			return v
		}
	}
	return ""
}
