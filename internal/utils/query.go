package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var filterOps = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"ne":  "<>",
}

// ParseFilterKey splits a query key of the form "field[op]" into its field
// and SQL operator. A bare key maps to equality.
func ParseFilterKey(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "=", true
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	field = key[:open]
	sqlOp, known := filterOps[key[open+1:len(key)-1]]
	if field == "" || !known {
		return "", "", false
	}
	return field, sqlOp, true
}

// ApplyFilters maps query-string operators onto the query, restricted to the
// allowed column set: "unit_price[gte]=10" becomes "unit_price >= 10".
// Unknown fields and malformed keys are ignored.
func ApplyFilters(query *gorm.DB, c *fiber.Ctx, allowed map[string]bool) *gorm.DB {
	for key, value := range c.Queries() {
		if value == "" {
			continue
		}
		field, op, ok := ParseFilterKey(key)
		if !ok || !allowed[field] {
			continue
		}
		query = query.Where(field+" "+op+" ?", value)
	}
	return query
}

// ApplySort reads the sort param (comma-separated columns, "-" prefix for
// descending) restricted to the allowed column set, falling back to the
// provided default ordering.
func ApplySort(query *gorm.DB, c *fiber.Ctx, allowed map[string]bool, fallback string) *gorm.DB {
	sorted := false
	for _, part := range strings.Split(c.Query("sort"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		direction := "asc"
		if strings.HasPrefix(part, "-") {
			part = part[1:]
			direction = "desc"
		}
		if !allowed[part] {
			continue
		}
		query = query.Order(part + " " + direction)
		sorted = true
	}
	if !sorted && fallback != "" {
		query = query.Order(fallback)
	}
	return query
}
