package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterKey(t *testing.T) {
	cases := []struct {
		key       string
		field, op string
		ok        bool
	}{
		{"unit_price", "unit_price", "=", true},
		{"unit_price[gte]", "unit_price", ">=", true},
		{"unit_price[gt]", "unit_price", ">", true},
		{"moq[lte]", "moq", "<=", true},
		{"lead_time_days[lt]", "lead_time_days", "<", true},
		{"currency[ne]", "currency", "<>", true},
		{"unit_price[between]", "", "", false},
		{"unit_price[gte", "", "", false},
		{"[gte]", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			field, op, ok := ParseFilterKey(tc.key)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.field, field)
			assert.Equal(t, tc.op, op)
		})
	}
}
