package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`12.99`, "12.99"},
		{`"4.5"`, "4.50"},
		{`null`, "0.00"},
		{`1e2`, "100.00"},
		{`123456789012345678`, "123456789012345678.00"},
	}
	for _, tc := range cases {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(tc.in), &m), tc.in)
		assert.Equal(t, tc.want, m.String(), tc.in)
	}
}

func TestMoneyUnmarshalRejectsOutOfRange(t *testing.T) {
	for _, in := range []string{
		`1e50000000`,
		`1e-50000000`,
		`"1e19"`,
		`0.00000000001`,
		`1234567890123456789`,
		`-1234567890123456789`,
		`1.00000000000000000000000000000000`,
	} {
		var m Money
		err := json.Unmarshal([]byte(in), &m)
		assert.ErrorIs(t, err, ErrAmountOutOfRange, in)
	}
}

func TestMoneyUnmarshalInsideStruct(t *testing.T) {
	var req CreateOrderRequest
	err := json.Unmarshal([]byte(`{"items":[{"productId":1,"price":1e50000000,"quantity":1}]}`), &req)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}
