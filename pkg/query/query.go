// Package query converts browse queries to and from URL query
// strings so searches can be shared and restored.
package query

import (
	"net/url"
	"strconv"

	"nonbiri/pkg/models"
)

// Values flattens a query into url.Values. Zero scalars and empty
// slice items are omitted; slice fields become repeated pairs.
func Values(q models.BrowseQuery) url.Values {
	v := url.Values{}

	setInt(v, "limit", q.Limit)
	setInt(v, "offset", q.Offset)
	setString(v, "title", q.Title)
	setInt(v, "year", q.Year)
	setInt(v, "sort", int(q.Sort))
	setInt(v, "order", int(q.Order))

	for _, s := range q.Authors {
		setString(v, "author", s)
	}
	for _, s := range q.Artists {
		setString(v, "artist", s)
	}
	for _, s := range q.IncludedTags {
		setString(v, "includedTag", s)
	}
	for _, s := range q.ExcludedTags {
		setString(v, "excludedTag", s)
	}
	for _, s := range q.IDs {
		setString(v, "id", s)
	}
	for _, n := range q.Status {
		v.Add("status", strconv.Itoa(int(n)))
	}
	for _, n := range q.Origin {
		v.Add("origin", strconv.Itoa(int(n)))
	}
	for _, n := range q.ExcludedOrigin {
		v.Add("excludedOrigin", strconv.Itoa(int(n)))
	}
	for _, n := range q.AvailableLanguage {
		v.Add("availableLanguage", strconv.Itoa(int(n)))
	}
	for _, n := range q.Demographic {
		v.Add("demographic", strconv.Itoa(int(n)))
	}
	for _, n := range q.ContentRating {
		v.Add("rating", strconv.Itoa(int(n)))
	}

	return v
}

// Format renders a query as a "?k=v" string, or "" when every field
// is empty.
func Format(q models.BrowseQuery) string {
	encoded := Values(q).Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

// Parse is the inverse of Format. It accepts a query string with or
// without the leading "?" and ignores unknown keys and values that
// fail to parse.
func Parse(rawQuery string) (models.BrowseQuery, error) {
	q := models.BrowseQuery{}

	if len(rawQuery) > 0 && rawQuery[0] == '?' {
		rawQuery = rawQuery[1:]
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return q, err
	}

	q.Limit = getInt(values, "limit")
	q.Offset = getInt(values, "offset")
	q.Title = values.Get("title")
	q.Year = getInt(values, "year")
	q.Sort = models.Sort(getInt(values, "sort"))
	q.Order = models.Order(getInt(values, "order"))

	q.Authors = getStrings(values, "author")
	q.Artists = getStrings(values, "artist")
	q.IncludedTags = getStrings(values, "includedTag")
	q.ExcludedTags = getStrings(values, "excludedTag")
	q.IDs = getStrings(values, "id")

	for _, n := range getInts(values, "status") {
		q.Status = append(q.Status, models.Status(n))
	}
	for _, n := range getInts(values, "origin") {
		q.Origin = append(q.Origin, models.Language(n))
	}
	for _, n := range getInts(values, "excludedOrigin") {
		q.ExcludedOrigin = append(q.ExcludedOrigin, models.Language(n))
	}
	for _, n := range getInts(values, "availableLanguage") {
		q.AvailableLanguage = append(q.AvailableLanguage, models.Language(n))
	}
	for _, n := range getInts(values, "demographic") {
		q.Demographic = append(q.Demographic, models.Demographic(n))
	}
	for _, n := range getInts(values, "rating") {
		q.ContentRating = append(q.ContentRating, models.Rating(n))
	}

	return q, nil
}

// IsEmpty reports whether formatting the query would produce "".
func IsEmpty(q models.BrowseQuery) bool {
	return len(Values(q)) == 0
}

func setInt(v url.Values, key string, n int) {
	if n != 0 {
		v.Add(key, strconv.Itoa(n))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Add(key, s)
	}
}

func getInt(v url.Values, key string) int {
	n, err := strconv.Atoi(v.Get(key))
	if err != nil {
		return 0
	}
	return n
}

func getInts(v url.Values, key string) []int {
	var result []int
	for _, s := range v[key] {
		if n, err := strconv.Atoi(s); err == nil {
			result = append(result, n)
		}
	}
	return result
}

func getStrings(v url.Values, key string) []string {
	var result []string
	for _, s := range v[key] {
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}
